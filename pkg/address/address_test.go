package address_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/joincivil/content-moderation-adapter/pkg/address"
	"github.com/joincivil/content-moderation-adapter/pkg/diagnostics"
	"github.com/joincivil/content-moderation-adapter/pkg/rawvalue"
)

const (
	testAddress      = "0x77e5aabddb760fba989a1c4b2cdd4aa8fa3d311d"
	testMixedAddress = "0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d"
)

func indexedBytes(count int) rawvalue.Entries {
	addr := common.HexToAddress(testAddress)
	entries := rawvalue.Entries{}
	for i := 0; i < count; i++ {
		entries = append(entries, rawvalue.Pair{
			Key:   rawvalue.Int(int64(i)),
			Value: rawvalue.Int(int64(addr[i])),
		})
	}
	return entries
}

func TestNormalizeRecognizedShapes(t *testing.T) {
	tests := []struct {
		name  string
		value rawvalue.Value
		want  string
	}{
		{"canonical string", rawvalue.String(testAddress), testAddress},
		{"canonical mixed case is kept as is", rawvalue.String(testMixedAddress), testMixedAddress},
		{"native address", rawvalue.Address(common.HexToAddress(testAddress)), testAddress},
		{"indexed bytes", indexedBytes(20), testAddress},
		{
			"indexed bytes with string keys",
			func() rawvalue.Value {
				e := indexedBytes(20)
				for i := range e {
					e[i].Key = rawvalue.String(rawvalue.KeyString(e[i].Key))
				}
				return e
			}(),
			testAddress,
		},
		{
			"bytes field",
			rawvalue.Entries{{Key: rawvalue.String("bytes"), Value: indexedBytes(20)}},
			testAddress,
		},
		{
			"keyed structure with hex value",
			rawvalue.Entries{
				{Key: rawvalue.String("kind"), Value: rawvalue.String("account")},
				{Key: rawvalue.String("id"), Value: rawvalue.String(testAddress)},
				{Key: rawvalue.String("other"), Value: rawvalue.String("0xdeadbeef")},
			},
			testAddress,
		},
		{
			"object hex field",
			rawvalue.Entries{{Key: rawvalue.String("hex"), Value: rawvalue.String(testAddress[2:])}},
			testAddress[2:],
		},
		{
			"object address field",
			rawvalue.Entries{{Key: rawvalue.String("address"), Value: rawvalue.Address(common.HexToAddress(testAddress))}},
			testAddress,
		},
		{
			"object value field",
			rawvalue.Entries{{Key: rawvalue.String("value"), Value: rawvalue.Int(42)}},
			"42",
		},
		{"stringified bytes", rawvalue.Bytes(common.HexToAddress(testAddress).Bytes()), testAddress},
	}
	for _, tt := range tests {
		got := address.Normalize(tt.value, nil)
		if got != tt.want {
			t.Errorf("%v: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNormalizeObjectFieldOrder(t *testing.T) {
	value := rawvalue.Entries{
		{Key: rawvalue.String("value"), Value: rawvalue.Int(1)},
		{Key: rawvalue.String("address"), Value: rawvalue.Int(2)},
		{Key: rawvalue.String("hex"), Value: rawvalue.Int(3)},
	}
	if got := address.Normalize(value, nil); got != "3" {
		t.Errorf("hex field should win over address and value, got %v", got)
	}
}

func TestNormalizeRejectsPartialBytes(t *testing.T) {
	sink := &diagnostics.RecordingSink{}
	got := address.Normalize(indexedBytes(19), sink)
	if got != "" {
		t.Errorf("Should not have decoded a partial byte set: %v", got)
	}
	if len(sink.Anomalies()) != 1 {
		t.Errorf("Should have recorded one anomaly, got %v", sink.Anomalies())
	}
}

func TestNormalizeRejectsOutOfRangeByte(t *testing.T) {
	e := indexedBytes(20)
	e[3].Value = rawvalue.Int(256)
	if got := address.Normalize(e, nil); got != "" {
		t.Errorf("Should not have decoded out of range byte: %v", got)
	}
}

func TestNormalizeUnrecognized(t *testing.T) {
	values := []rawvalue.Value{
		nil,
		rawvalue.Null{},
		rawvalue.Unrecognized{Source: struct{}{}},
		rawvalue.String("not an address"),
		rawvalue.Int(12),
		rawvalue.Entries{},
		rawvalue.List{rawvalue.Int(1)},
	}
	for _, v := range values {
		if got := address.Normalize(v, nil); got != "" {
			t.Errorf("Should not have decoded %v: got %v", rawvalue.Describe(v), got)
		}
	}
}

func TestIsCanonical(t *testing.T) {
	if !address.IsCanonical(testAddress) {
		t.Errorf("Should be canonical: %v", testAddress)
	}
	if address.IsCanonical(testAddress[2:]) {
		t.Errorf("Should require 0x prefix")
	}
	if address.IsCanonical(testAddress[:40]) {
		t.Errorf("Should require full length")
	}
}
