// Package rawvalue contains the loosely typed value model returned by contract
// reads before it is flattened into domain records.
package rawvalue // import "github.com/joincivil/content-moderation-adapter/pkg/rawvalue"

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Kind identifies the shape of a Value
type Kind int

const (
	// KindUnrecognized is a value whose shape is not known
	KindUnrecognized Kind = iota
	// KindNull is an absent value
	KindNull
	// KindScalar is a string, integer, bool or byte string
	KindScalar
	// KindAddress is a native 20 byte account address
	KindAddress
	// KindEntries is an ordered sequence of key/value pairs
	KindEntries
	// KindList is an ordered sequence of values
	KindList
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindAddress:
		return "address"
	case KindEntries:
		return "entries"
	case KindList:
		return "list"
	}
	return "unrecognized"
}

// Value is the closed sum type of raw contract values. The only
// implementations are the types in this package.
type Value interface {
	Kind() Kind
	isValue()
}

// Null is an absent value
type Null struct{}

// Kind returns KindNull
func (Null) Kind() Kind { return KindNull }
func (Null) isValue()   {}

// Unrecognized wraps an input the model could not classify
type Unrecognized struct {
	Source interface{}
}

// Kind returns KindUnrecognized
func (Unrecognized) Kind() Kind { return KindUnrecognized }
func (Unrecognized) isValue()   {}

// Address is a native account address, as produced by the calldata decoder
type Address common.Address

// Kind returns KindAddress
func (Address) Kind() Kind { return KindAddress }
func (Address) isValue()   {}

// Hex returns the lowercase 0x prefixed form of the address
func (a Address) Hex() string {
	return hexutil.Encode(a[:])
}

// ScalarType is the underlying type of a Scalar
type ScalarType int

const (
	// ScalarString is a text scalar
	ScalarString ScalarType = iota
	// ScalarInt is an arbitrary precision integer scalar
	ScalarInt
	// ScalarBool is a boolean scalar
	ScalarBool
	// ScalarBytes is a byte string scalar
	ScalarBytes
)

// Scalar is a leaf value
type Scalar struct {
	typ ScalarType
	str string
	num *big.Int
	b   bool
	raw []byte
}

// Kind returns KindScalar
func (Scalar) Kind() Kind { return KindScalar }
func (Scalar) isValue()   {}

// String builds a text scalar
func String(s string) Scalar {
	return Scalar{typ: ScalarString, str: s}
}

// Int builds an integer scalar
func Int(n int64) Scalar {
	return Scalar{typ: ScalarInt, num: big.NewInt(n)}
}

// BigInt builds an integer scalar from a big.Int. The value is copied.
func BigInt(n *big.Int) Scalar {
	return Scalar{typ: ScalarInt, num: new(big.Int).Set(n)}
}

// Bool builds a boolean scalar
func Bool(b bool) Scalar {
	return Scalar{typ: ScalarBool, b: b}
}

// Bytes builds a byte string scalar. The slice is copied.
func Bytes(b []byte) Scalar {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Scalar{typ: ScalarBytes, raw: cp}
}

// Type returns the underlying scalar type
func (s Scalar) Type() ScalarType {
	return s.typ
}

// Str returns the text of a string scalar
func (s Scalar) Str() (string, bool) {
	return s.str, s.typ == ScalarString
}

// BigInt returns a copy of the integer of an integer scalar
func (s Scalar) BigInt() (*big.Int, bool) {
	if s.typ != ScalarInt || s.num == nil {
		return nil, false
	}
	return new(big.Int).Set(s.num), true
}

// Bool returns the value of a boolean scalar
func (s Scalar) Bool() (bool, bool) {
	return s.b, s.typ == ScalarBool
}

// Raw returns the content of a byte string scalar
func (s Scalar) Raw() ([]byte, bool) {
	return s.raw, s.typ == ScalarBytes
}

// String converts the scalar to its display form. Byte strings are rendered
// as 0x prefixed hex.
func (s Scalar) String() string {
	switch s.typ {
	case ScalarString:
		return s.str
	case ScalarInt:
		if s.num == nil {
			return "0"
		}
		return s.num.String()
	case ScalarBool:
		return strconv.FormatBool(s.b)
	case ScalarBytes:
		return hexutil.Encode(s.raw)
	}
	return ""
}

// Interface returns the scalar as a plain Go value
func (s Scalar) Interface() interface{} {
	switch s.typ {
	case ScalarString:
		return s.str
	case ScalarInt:
		if s.num == nil {
			return int64(0)
		}
		if s.num.IsInt64() {
			return s.num.Int64()
		}
		return new(big.Int).Set(s.num)
	case ScalarBool:
		return s.b
	case ScalarBytes:
		return s.raw
	}
	return nil
}

// Pair is a single key/value association in an Entries value
type Pair struct {
	Key   Value
	Value Value
}

// Entries is an ordered sequence of key/value pairs. Iteration order is the
// order of the source data.
type Entries []Pair

// Kind returns KindEntries
func (Entries) Kind() Kind { return KindEntries }
func (Entries) isValue()   {}

// Get returns the first value stored under the given string key
func (e Entries) Get(key string) (Value, bool) {
	for _, p := range e {
		if KeyString(p.Key) == key {
			return p.Value, true
		}
	}
	return nil, false
}

// List is an ordered sequence of values
type List []Value

// Kind returns KindList
func (List) Kind() Kind { return KindList }
func (List) isValue()   {}

// KeyString renders a key as the string used for field names. Scalars use
// their display form; anything else renders as an empty string.
func KeyString(v Value) string {
	switch k := v.(type) {
	case Scalar:
		return k.String()
	case Address:
		return k.Hex()
	}
	return ""
}

// Describe returns a short human readable description of a value for
// diagnostic output.
func Describe(v Value) string {
	if v == nil {
		return "<nil>"
	}
	switch t := v.(type) {
	case Scalar:
		return fmt.Sprintf("scalar(%v)", t.String())
	case Address:
		return fmt.Sprintf("address(%v)", t.Hex())
	case Entries:
		return fmt.Sprintf("entries(len=%v)", len(t))
	case List:
		return fmt.Sprintf("list(len=%v)", len(t))
	case Unrecognized:
		return fmt.Sprintf("unrecognized(%T)", t.Source)
	}
	return v.Kind().String()
}
