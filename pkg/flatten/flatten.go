// Package flatten converts nested, nameless keyed contract responses into
// flat field named records.
package flatten // import "github.com/joincivil/content-moderation-adapter/pkg/flatten"

import (
	"math/big"

	"github.com/joincivil/content-moderation-adapter/pkg/address"
	"github.com/joincivil/content-moderation-adapter/pkg/diagnostics"
	"github.com/joincivil/content-moderation-adapter/pkg/rawvalue"
)

const (
	// CreatorAddressFieldName is the address typed field on guidelines
	CreatorAddressFieldName = "creator_address"
	// ModeratorAddressFieldName is the address typed field on moderation results
	ModeratorAddressFieldName = "moderator_address"
)

// Transform converts a leaf field value before it is stored on a record
type Transform func(v rawvalue.Value, sink diagnostics.Sink) rawvalue.Value

// AddressTransform passes a field through the address codec. The result is
// always a string scalar, empty when the address could not be decoded.
func AddressTransform(v rawvalue.Value, sink diagnostics.Sink) rawvalue.Value {
	return rawvalue.String(address.Normalize(v, sink))
}

// DefaultTransforms returns the transforms for the address typed fields
func DefaultTransforms() map[string]Transform {
	return map[string]Transform{
		CreatorAddressFieldName:   AddressTransform,
		ModeratorAddressFieldName: AddressTransform,
	}
}

// Shape describes the nesting of a raw value. Each entry in PathKeys is the
// field name a structural key is injected under, outermost first. A shape
// with no path keys is a single field map.
type Shape struct {
	PathKeys []string
}

// OneLevel is a shape of a single field map
func OneLevel() Shape {
	return Shape{}
}

// TwoLevel is a shape of key -> field map
func TwoLevel(key string) Shape {
	return Shape{PathKeys: []string{key}}
}

// ThreeLevel is a shape of outer key -> inner key -> field map
func ThreeLevel(outer string, inner string) Shape {
	return Shape{PathKeys: []string{outer, inner}}
}

// Field is a single named value on a Record
type Field struct {
	Name  string
	Value rawvalue.Value
}

// Record is a flattened record. Field order follows the source data, with
// injected structural keys first.
type Record []Field

// Get returns the value of the named field
func (r Record) Get(name string) (rawvalue.Value, bool) {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i].Name == name {
			return r[i].Value, true
		}
	}
	return nil, false
}

// Text returns the display form of a scalar field or an empty string
func (r Record) Text(name string) string {
	v, ok := r.Get(name)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case rawvalue.Scalar:
		return t.String()
	case rawvalue.Address:
		return t.Hex()
	}
	return ""
}

// Int returns an integer field as int64, or 0 if it is missing or not an
// integer
func (r Record) Int(name string) int64 {
	v, ok := r.Get(name)
	if !ok {
		return 0
	}
	s, ok := v.(rawvalue.Scalar)
	if !ok {
		return 0
	}
	n, ok := s.BigInt()
	if !ok {
		if str, isStr := s.Str(); isStr {
			if parsed, ok := new(big.Int).SetString(str, 10); ok {
				n = parsed
			}
		}
	}
	if n == nil || !n.IsInt64() {
		return 0
	}
	return n.Int64()
}

// Set sets the named field, replacing an existing value
func (r *Record) Set(name string, v rawvalue.Value) {
	for i := range *r {
		if (*r)[i].Name == name {
			(*r)[i].Value = v
			return
		}
	}
	*r = append(*r, Field{Name: name, Value: v})
}

// Flattener converts raw values into records. The zero value has no
// transforms and discards diagnostics.
type Flattener struct {
	Sink       diagnostics.Sink
	Transforms map[string]Transform
}

// NewFlattener returns a Flattener with the address transforms and the given
// diagnostic sink
func NewFlattener(sink diagnostics.Sink) *Flattener {
	return &Flattener{
		Sink:       diagnostics.OrNop(sink),
		Transforms: DefaultTransforms(),
	}
}

func (f *Flattener) sink() diagnostics.Sink {
	return diagnostics.OrNop(f.Sink)
}

// Flatten converts a raw value of the given shape into records. Values that
// are not keyed structures yield an empty slice.
func (f *Flattener) Flatten(raw rawvalue.Value, shape Shape) []Record {
	records := []Record{}
	f.walk(raw, shape.PathKeys, Record{}, &records)
	return records
}

// FlattenRecord converts a single field map into a record. The second return
// is false when the raw value is not a keyed structure.
func (f *Flattener) FlattenRecord(raw rawvalue.Value) (Record, bool) {
	entries, ok := f.entries(raw)
	if !ok {
		return nil, false
	}
	return f.fields(entries, Record{}), true
}

// FlattenItems converts a list of field maps, or a keyed structure whose
// values are field maps, into one record per item. Keys of a keyed structure
// are not injected. Items that are not field maps are skipped.
func (f *Flattener) FlattenItems(raw rawvalue.Value) []Record {
	records := []Record{}
	var items []rawvalue.Value
	switch t := raw.(type) {
	case rawvalue.List:
		items = t
	case rawvalue.Entries:
		for _, p := range t {
			items = append(items, p.Value)
		}
	case rawvalue.Null, rawvalue.Scalar, rawvalue.Address, rawvalue.Unrecognized, nil:
		f.sink().Tracef("flatten: items value is %v, no records", rawvalue.Describe(raw))
		return records
	}
	for i, item := range items {
		rec, ok := f.FlattenRecord(item)
		if !ok {
			f.sink().Anomalyf("flatten: item %v is %v, skipped", i, rawvalue.Describe(item))
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (f *Flattener) walk(raw rawvalue.Value, pathKeys []string, prefix Record, out *[]Record) {
	entries, ok := f.entries(raw)
	if !ok {
		return
	}
	if len(pathKeys) == 0 {
		*out = append(*out, f.fields(entries, prefix))
		return
	}
	for _, p := range entries {
		key := f.keyName(p.Key)
		f.sink().Tracef("flatten: %v = %v", pathKeys[0], key)
		next := make(Record, len(prefix), len(prefix)+1)
		copy(next, prefix)
		next = append(next, Field{Name: pathKeys[0], Value: rawvalue.String(key)})
		f.walk(p.Value, pathKeys[1:], next, out)
	}
}

// fields builds a record from a field map. Structural keys in prefix win over
// same named data fields.
func (f *Flattener) fields(entries rawvalue.Entries, prefix Record) Record {
	rec := make(Record, len(prefix), len(prefix)+len(entries))
	copy(rec, prefix)
	for _, p := range entries {
		name := f.keyName(p.Key)
		if _, injected := prefix.Get(name); injected {
			continue
		}
		value := p.Value
		if transform, ok := f.Transforms[name]; ok && transform != nil {
			value = transform(value, f.sink())
		}
		rec = append(rec, Field{Name: name, Value: value})
	}
	return rec
}

// keyName renders a key as a field name. Keys that have no string form are
// kept as an empty name and reported.
func (f *Flattener) keyName(key rawvalue.Value) string {
	switch key.(type) {
	case rawvalue.Scalar, rawvalue.Address:
		return rawvalue.KeyString(key)
	}
	f.sink().Anomalyf("flatten: key %v has no string form", rawvalue.Describe(key))
	return ""
}

// entries matches the raw value against the keyed shape. Anything else means
// "no data" rather than an error.
func (f *Flattener) entries(raw rawvalue.Value) (rawvalue.Entries, bool) {
	switch t := raw.(type) {
	case rawvalue.Entries:
		return t, true
	case rawvalue.Null, nil:
		f.sink().Tracef("flatten: no data")
	case rawvalue.Scalar, rawvalue.Address, rawvalue.List, rawvalue.Unrecognized:
		f.sink().Tracef("flatten: %v is not a keyed structure", rawvalue.Describe(raw))
	}
	return nil, false
}
