// Package calldata implements the binary value encoding used for contract
// call arguments and results.
//
// Every value starts with an unsigned LEB128 header whose low 3 bits are the
// type and whose remaining bits are either the value (integers, specials) or
// a length (bytes, strings, arrays, maps).
package calldata // import "github.com/joincivil/content-moderation-adapter/pkg/calldata"

import (
	"bytes"
	"math/big"
	"sort"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/joincivil/content-moderation-adapter/pkg/rawvalue"
)

const (
	bitsInType = 3

	typeSpecial = 0
	typePInt    = 1
	typeNInt    = 2
	typeBytes   = 3
	typeStr     = 4
	typeArr     = 5
	typeMap     = 6

	specialNull  = (0 << bitsInType) | typeSpecial
	specialFalse = (1 << bitsInType) | typeSpecial
	specialTrue  = (2 << bitsInType) | typeSpecial
	specialAddr  = (3 << bitsInType) | typeSpecial

	// maxDepth bounds nesting when decoding untrusted input
	maxDepth = 64
)

var (
	// ErrTruncated is returned when the input ends inside a value
	ErrTruncated = errors.New("calldata: unexpected end of input")

	// ErrTrailingData is returned when bytes remain after the top level value
	ErrTrailingData = errors.New("calldata: trailing data")
)

// Encode encodes a Go or raw value. Go values are converted with
// rawvalue.FromGo first.
func Encode(v interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}
	err := encode(buf, rawvalue.FromGo(v))
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MakeCallObject builds the call description for a contract method. An empty
// method name is used for constructor calls on deploy.
func MakeCallObject(method string, args []interface{}) rawvalue.Entries {
	obj := rawvalue.Entries{}
	if len(args) > 0 {
		list := make(rawvalue.List, len(args))
		for i, arg := range args {
			list[i] = rawvalue.FromGo(arg)
		}
		obj = append(obj, rawvalue.Pair{Key: rawvalue.String("args"), Value: list})
	}
	if method != "" {
		obj = append(obj, rawvalue.Pair{Key: rawvalue.String("method"), Value: rawvalue.String(method)})
	}
	return obj
}

func encode(buf *bytes.Buffer, v rawvalue.Value) error {
	switch t := v.(type) {
	case nil, rawvalue.Null:
		writeUint(buf, specialNull)
	case rawvalue.Address:
		writeUint(buf, specialAddr)
		buf.Write(t[:])
	case rawvalue.Scalar:
		return encodeScalar(buf, t)
	case rawvalue.List:
		writeHeader(buf, len(t), typeArr)
		for _, item := range t {
			if err := encode(buf, item); err != nil {
				return err
			}
		}
	case rawvalue.Entries:
		return encodeEntries(buf, t)
	case rawvalue.Unrecognized:
		return errors.Errorf("calldata: cannot encode %T", t.Source)
	}
	return nil
}

func encodeScalar(buf *bytes.Buffer, s rawvalue.Scalar) error {
	switch s.Type() {
	case rawvalue.ScalarBool:
		b, _ := s.Bool()
		if b {
			writeUint(buf, specialTrue)
		} else {
			writeUint(buf, specialFalse)
		}
	case rawvalue.ScalarInt:
		n, _ := s.BigInt()
		if n.Sign() >= 0 {
			writeBig(buf, n.Lsh(n, bitsInType).Or(n, big.NewInt(typePInt)))
		} else {
			// -n - 1
			n.Neg(n).Sub(n, big.NewInt(1))
			writeBig(buf, n.Lsh(n, bitsInType).Or(n, big.NewInt(typeNInt)))
		}
	case rawvalue.ScalarBytes:
		raw, _ := s.Raw()
		writeHeader(buf, len(raw), typeBytes)
		buf.Write(raw)
	case rawvalue.ScalarString:
		str, _ := s.Str()
		if !utf8.ValidString(str) {
			return errors.New("calldata: string is not valid utf-8")
		}
		writeHeader(buf, len(str), typeStr)
		buf.WriteString(str)
	}
	return nil
}

func encodeEntries(buf *bytes.Buffer, e rawvalue.Entries) error {
	type keyed struct {
		key   string
		value rawvalue.Value
	}
	items := make([]keyed, len(e))
	for i, p := range e {
		s, ok := p.Key.(rawvalue.Scalar)
		if !ok {
			return errors.Errorf("calldata: map key must be a string, got %v", rawvalue.Describe(p.Key))
		}
		key, ok := s.Str()
		if !ok {
			return errors.Errorf("calldata: map key must be a string, got %v", rawvalue.Describe(p.Key))
		}
		items[i] = keyed{key: key, value: p.Value}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return bytes.Compare([]byte(items[i].key), []byte(items[j].key)) < 0
	})
	for i := 1; i < len(items); i++ {
		if items[i].key == items[i-1].key {
			return errors.Errorf("calldata: duplicate map key %q", items[i].key)
		}
	}
	writeHeader(buf, len(items), typeMap)
	for _, item := range items {
		writeUint(buf, uint64(len(item.key)))
		buf.WriteString(item.key)
		if err := encode(buf, item.value); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(buf *bytes.Buffer, length int, typ uint64) {
	writeUint(buf, uint64(length)<<bitsInType|typ)
}

func writeUint(buf *bytes.Buffer, n uint64) {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			buf.WriteByte(b | 0x80)
			continue
		}
		buf.WriteByte(b)
		return
	}
}

func writeBig(buf *bytes.Buffer, n *big.Int) {
	if n.IsUint64() {
		writeUint(buf, n.Uint64())
		return
	}
	mask := big.NewInt(0x7f)
	rest := new(big.Int).Set(n)
	low := new(big.Int)
	for {
		low.And(rest, mask)
		rest.Rsh(rest, 7)
		if rest.Sign() != 0 {
			buf.WriteByte(byte(low.Uint64()) | 0x80)
			continue
		}
		buf.WriteByte(byte(low.Uint64()))
		return
	}
}

// Decode decodes a single value that must span the whole input
func Decode(data []byte) (rawvalue.Value, error) {
	d := &decoder{data: data}
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, ErrTrailingData
	}
	return v, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) readBig() (*big.Int, error) {
	n := new(big.Int)
	shift := uint(0)
	for {
		if d.pos >= len(d.data) {
			return nil, ErrTruncated
		}
		b := d.data[d.pos]
		d.pos++
		chunk := new(big.Int).SetUint64(uint64(b & 0x7f))
		n.Or(n, chunk.Lsh(chunk, shift))
		if b&0x80 == 0 {
			return n, nil
		}
		shift += 7
	}
}

func (d *decoder) readLength(n *big.Int) (int, error) {
	if !n.IsInt64() || n.Int64() > int64(len(d.data)-d.pos) {
		return 0, ErrTruncated
	}
	return int(n.Int64()), nil
}

func (d *decoder) take(length int) ([]byte, error) {
	if length > len(d.data)-d.pos {
		return nil, ErrTruncated
	}
	out := d.data[d.pos : d.pos+length]
	d.pos += length
	return out, nil
}

func (d *decoder) value(depth int) (rawvalue.Value, error) {
	if depth > maxDepth {
		return nil, errors.New("calldata: nesting too deep")
	}
	header, err := d.readBig()
	if err != nil {
		return nil, err
	}
	typ := new(big.Int).And(header, big.NewInt(1<<bitsInType-1)).Int64()
	rest := new(big.Int).Rsh(header, bitsInType)

	switch typ {
	case typeSpecial:
		return d.special(header)
	case typePInt:
		return rawvalue.BigInt(rest), nil
	case typeNInt:
		return rawvalue.BigInt(rest.Neg(rest).Sub(rest, big.NewInt(1))), nil
	case typeBytes, typeStr:
		length, err := d.readLength(rest)
		if err != nil {
			return nil, err
		}
		raw, err := d.take(length)
		if err != nil {
			return nil, err
		}
		if typ == typeBytes {
			return rawvalue.Bytes(raw), nil
		}
		if !utf8.Valid(raw) {
			return nil, errors.New("calldata: string is not valid utf-8")
		}
		return rawvalue.String(string(raw)), nil
	case typeArr:
		// Every element takes at least one byte, so the remaining input bounds the length
		length, err := d.readLength(rest)
		if err != nil {
			return nil, err
		}
		list := make(rawvalue.List, 0, length)
		for i := 0; i < length; i++ {
			item, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
		return list, nil
	case typeMap:
		length, err := d.readLength(rest)
		if err != nil {
			return nil, err
		}
		entries := make(rawvalue.Entries, 0, length)
		for i := 0; i < length; i++ {
			keyLen, err := d.readBig()
			if err != nil {
				return nil, err
			}
			kl, err := d.readLength(keyLen)
			if err != nil {
				return nil, err
			}
			key, err := d.take(kl)
			if err != nil {
				return nil, err
			}
			item, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			entries = append(entries, rawvalue.Pair{Key: rawvalue.String(string(key)), Value: item})
		}
		return entries, nil
	}
	return nil, errors.Errorf("calldata: unknown type %v", typ)
}

func (d *decoder) special(header *big.Int) (rawvalue.Value, error) {
	if !header.IsUint64() {
		return nil, errors.New("calldata: invalid special value")
	}
	switch header.Uint64() {
	case specialNull:
		return rawvalue.Null{}, nil
	case specialFalse:
		return rawvalue.Bool(false), nil
	case specialTrue:
		return rawvalue.Bool(true), nil
	case specialAddr:
		raw, err := d.take(common.AddressLength)
		if err != nil {
			return nil, err
		}
		return rawvalue.Address(common.BytesToAddress(raw)), nil
	}
	return nil, errors.Errorf("calldata: invalid special value %v", header)
}
