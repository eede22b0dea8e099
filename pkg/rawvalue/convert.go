package rawvalue

import (
	"math/big"
	"reflect"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var jsonConfig = jsoniter.Config{UseNumber: true}.Froze()

// FromJSON decodes a JSON document into a Value. Object key order is kept.
// Integral numbers become integer scalars, other numbers are kept as their
// textual form.
func FromJSON(data []byte) (Value, error) {
	iter := jsoniter.ParseBytes(jsonConfig, data)
	val := readJSON(iter)
	if iter.Error != nil {
		return nil, errors.Wrap(iter.Error, "error decoding json raw value")
	}
	return val, nil
}

func readJSON(iter *jsoniter.Iterator) Value {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		return Null{}
	case jsoniter.StringValue:
		return String(iter.ReadString())
	case jsoniter.BoolValue:
		return Bool(iter.ReadBool())
	case jsoniter.NumberValue:
		num := iter.ReadNumber()
		if n, ok := new(big.Int).SetString(string(num), 10); ok {
			return BigInt(n)
		}
		return String(string(num))
	case jsoniter.ArrayValue:
		list := List{}
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			list = append(list, readJSON(it))
			return it.Error == nil
		})
		return list
	case jsoniter.ObjectValue:
		entries := Entries{}
		iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
			entries = append(entries, Pair{Key: String(field), Value: readJSON(it)})
			return it.Error == nil
		})
		return entries
	}
	iter.Skip()
	return Unrecognized{}
}

// FromGo converts a plain Go value into a Value. Entries and List values and
// the scalar types of this package pass through untouched. Go maps carry no
// order, so their keys are sorted by their string form; use Entries directly
// when order matters.
func FromGo(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Null{}
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case int32:
		return Int(int64(t))
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint64:
		return BigInt(new(big.Int).SetUint64(t))
	case *big.Int:
		if t == nil {
			return Null{}
		}
		return BigInt(t)
	case []byte:
		return Bytes(t)
	case common.Address:
		return Address(t)
	case []interface{}:
		list := make(List, len(t))
		for i, item := range t {
			list[i] = FromGo(item)
		}
		return list
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make(Entries, len(keys))
		for i, k := range keys {
			entries[i] = Pair{Key: String(k), Value: FromGo(t[k])}
		}
		return entries
	}
	return fromReflect(v)
}

func fromReflect(v interface{}) Value {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		list := make(List, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			list[i] = FromGo(rv.Index(i).Interface())
		}
		return list
	case reflect.Map:
		keys := rv.MapKeys()
		entries := make(Entries, len(keys))
		for i, k := range keys {
			entries[i] = Pair{Key: FromGo(k.Interface()), Value: FromGo(rv.MapIndex(k).Interface())}
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return KeyString(entries[i].Key) < KeyString(entries[j].Key)
		})
		return entries
	case reflect.Ptr:
		if rv.IsNil() {
			return Null{}
		}
		return FromGo(rv.Elem().Interface())
	}
	return Unrecognized{Source: v}
}

// ToGo converts a Value back into plain Go values. Entries become
// map[string]interface{} keyed by KeyString, so ordering is lost.
func ToGo(v Value) interface{} {
	switch t := v.(type) {
	case Scalar:
		return t.Interface()
	case Address:
		return common.Address(t)
	case Entries:
		m := make(map[string]interface{}, len(t))
		for _, p := range t {
			m[KeyString(p.Key)] = ToGo(p.Value)
		}
		return m
	case List:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = ToGo(item)
		}
		return out
	case Unrecognized:
		return t.Source
	}
	return nil
}
