// Package address normalizes the many encodings of account addresses found in
// contract responses into a canonical lowercase hex string.
package address // import "github.com/joincivil/content-moderation-adapter/pkg/address"

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/joincivil/content-moderation-adapter/pkg/diagnostics"
	"github.com/joincivil/content-moderation-adapter/pkg/rawvalue"
)

const (
	hexPrefix = "0x"

	bytesFieldName = "bytes"
)

// objectFieldNames are the fields checked on object shaped addresses, in order
var objectFieldNames = []string{"hex", "address", "value"}

// Normalize converts a raw value into a canonical address string. It returns
// an empty string when the value is not a recognized address encoding; an
// empty string means "address unavailable", never the zero address.
func Normalize(v rawvalue.Value, sink diagnostics.Sink) string {
	sink = diagnostics.OrNop(sink)
	if v == nil {
		sink.Anomalyf("address: nil value")
		return ""
	}
	addr, rule := normalize(v)
	if addr == "" {
		sink.Anomalyf("address: unrecognized encoding %v", rawvalue.Describe(v))
		return ""
	}
	sink.Tracef("address: %v decoded via %v", addr, rule)
	return addr
}

func normalize(v rawvalue.Value) (string, string) {
	switch t := v.(type) {
	case rawvalue.Address:
		return t.Hex(), "native"
	case rawvalue.Scalar:
		return fromScalar(t)
	case rawvalue.Entries:
		return fromEntries(t)
	case rawvalue.List:
		// A list of 20 byte values is the same byte layout as the indexed form
		if addr, ok := fromByteList(t); ok {
			return addr, "byte list"
		}
	case rawvalue.Null, rawvalue.Unrecognized:
	}
	return "", ""
}

func fromScalar(s rawvalue.Scalar) (string, string) {
	if str, ok := s.Str(); ok && IsCanonical(str) {
		return str, "canonical"
	}
	if str := s.String(); strings.HasPrefix(str, hexPrefix) {
		return str, "stringified"
	}
	return "", ""
}

func fromEntries(e rawvalue.Entries) (string, string) {
	if addr, ok := fromIndexedBytes(e); ok {
		return addr, "indexed bytes"
	}
	if inner, ok := e.Get(bytesFieldName); ok {
		if innerEntries, ok := inner.(rawvalue.Entries); ok {
			if addr, ok := fromIndexedBytes(innerEntries); ok {
				return addr, "indexed bytes field"
			}
		}
		if raw, ok := inner.(rawvalue.Scalar); ok {
			if b, ok := raw.Raw(); ok && len(b) == common.AddressLength {
				return hexutil.Encode(b), "bytes field"
			}
		}
	}
	for _, p := range e {
		if s, ok := p.Value.(rawvalue.Scalar); ok {
			if str, ok := s.Str(); ok && strings.HasPrefix(str, hexPrefix) {
				return str, "keyed hex value"
			}
		}
	}
	for _, name := range objectFieldNames {
		field, ok := e.Get(name)
		if !ok {
			continue
		}
		if s, ok := field.(rawvalue.Scalar); ok {
			if str := s.String(); str != "" {
				return str, "object field " + name
			}
		}
		if a, ok := field.(rawvalue.Address); ok {
			return a.Hex(), "object field " + name
		}
	}
	return "", ""
}

// fromIndexedBytes reassembles an address from a structure keyed 0..19. All
// twenty positions must be present; partial sets are rejected.
func fromIndexedBytes(e rawvalue.Entries) (string, bool) {
	if len(e) < common.AddressLength {
		return "", false
	}
	var out common.Address
	seen := make([]bool, common.AddressLength)
	for _, p := range e {
		idx, err := strconv.Atoi(rawvalue.KeyString(p.Key))
		if err != nil || idx < 0 || idx >= common.AddressLength {
			continue
		}
		b, ok := byteValue(p.Value)
		if !ok {
			return "", false
		}
		out[idx] = b
		seen[idx] = true
	}
	for _, s := range seen {
		if !s {
			return "", false
		}
	}
	return hexutil.Encode(out[:]), true
}

func fromByteList(l rawvalue.List) (string, bool) {
	if len(l) != common.AddressLength {
		return "", false
	}
	var out common.Address
	for i, item := range l {
		b, ok := byteValue(item)
		if !ok {
			return "", false
		}
		out[i] = b
	}
	return hexutil.Encode(out[:]), true
}

func byteValue(v rawvalue.Value) (byte, bool) {
	s, ok := v.(rawvalue.Scalar)
	if !ok {
		return 0, false
	}
	n, ok := s.BigInt()
	if !ok {
		return 0, false
	}
	if n.Sign() < 0 || !n.IsInt64() || n.Int64() > 255 {
		return 0, false
	}
	return byte(n.Int64()), true
}

// IsCanonical returns true if the string is a 0x prefixed address of the
// expected byte length
func IsCanonical(s string) bool {
	return strings.HasPrefix(s, hexPrefix) && common.IsHexAddress(s)
}
