package calldata_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/joincivil/content-moderation-adapter/pkg/calldata"
	"github.com/joincivil/content-moderation-adapter/pkg/rawvalue"
)

func TestEncodeGolden(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  []byte
	}{
		{"null", nil, []byte{0x00}},
		{"false", false, []byte{0x08}},
		{"true", true, []byte{0x10}},
		{"small int", 1, []byte{0x09}},
		{"multi byte int", 16, []byte{0x81, 0x01}},
		{"minus one", -1, []byte{0x02}},
		{"string", "ab", []byte{0x14, 'a', 'b'}},
		{"bytes", []byte{0xff}, []byte{0x0b, 0xff}},
		{"array", []interface{}{1, "a"}, []byte{0x15, 0x09, 0x0c, 'a'}},
		{
			"map sorted by key",
			rawvalue.Entries{
				{Key: rawvalue.String("b"), Value: rawvalue.Int(1)},
				{Key: rawvalue.String("a"), Value: rawvalue.Null{}},
			},
			[]byte{0x16, 0x01, 'a', 0x00, 0x01, 'b', 0x09},
		},
	}
	for _, tt := range tests {
		got, err := calldata.Encode(tt.value)
		if err != nil {
			t.Errorf("%v: error encoding: %v", tt.name, err)
			continue
		}
		if !bytes.Equal(got, tt.want) {
			t.Errorf("%v: got %x, want %x", tt.name, got, tt.want)
		}
	}
}

func TestEncodeCallObject(t *testing.T) {
	obj := calldata.MakeCallObject("m", []interface{}{"x"})
	got, err := calldata.Encode(obj)
	if err != nil {
		t.Fatalf("Error encoding call object: %v", err)
	}
	want := []byte{0x16, 0x04, 'a', 'r', 'g', 's', 0x0d, 0x0c, 'x', 0x06, 'm', 'e', 't', 'h', 'o', 'd', 0x0c, 'm'}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x, want %x", got, want)
	}

	empty, err := calldata.Encode(calldata.MakeCallObject("", nil))
	if err != nil {
		t.Fatalf("Error encoding empty call object: %v", err)
	}
	if !bytes.Equal(empty, []byte{0x06}) {
		t.Errorf("Empty call object should be an empty map, got %x", empty)
	}
}

func TestDecodeNestedResponse(t *testing.T) {
	addr := common.HexToAddress("0x77e5aaBddb760FBa989A1C4B2CDd4aA8Fa3d311d")
	guideline := rawvalue.Entries{
		{Key: rawvalue.String("creator_address"), Value: rawvalue.Address(addr)},
		{Key: rawvalue.String("id"), Value: rawvalue.String("g1")},
		{Key: rawvalue.String("text"), Value: rawvalue.String("no dogs")},
	}
	encoded, err := calldata.Encode(rawvalue.Entries{{Key: rawvalue.String("g1"), Value: guideline}})
	if err != nil {
		t.Fatalf("Error encoding: %v", err)
	}
	decoded, err := calldata.Decode(encoded)
	if err != nil {
		t.Fatalf("Error decoding: %v", err)
	}
	outer, ok := decoded.(rawvalue.Entries)
	if !ok || len(outer) != 1 {
		t.Fatalf("Should have decoded a single entry map: %v", rawvalue.Describe(decoded))
	}
	inner, ok := outer[0].Value.(rawvalue.Entries)
	if !ok {
		t.Fatalf("Inner value should be a map")
	}
	creator, _ := inner.Get("creator_address")
	if a, ok := creator.(rawvalue.Address); !ok || common.Address(a) != addr {
		t.Errorf("Address should decode natively, got %v", rawvalue.Describe(creator))
	}
	text, _ := inner.Get("text")
	if rawvalue.KeyString(text) != "no dogs" {
		t.Errorf("text should decode, got %v", rawvalue.Describe(text))
	}
}

func TestDecodeLargeIntegers(t *testing.T) {
	large, _ := new(big.Int).SetString("-340282366920938463463374607431768211456", 10)
	encoded, err := calldata.Encode(large)
	if err != nil {
		t.Fatalf("Error encoding: %v", err)
	}
	decoded, err := calldata.Decode(encoded)
	if err != nil {
		t.Fatalf("Error decoding: %v", err)
	}
	n, ok := decoded.(rawvalue.Scalar).BigInt()
	if !ok || n.Cmp(large) != 0 {
		t.Errorf("Should have decoded %v, got %v", large, n)
	}
}

func TestDecodeErrors(t *testing.T) {
	inputs := map[string][]byte{
		"empty":            {},
		"truncated header": {0x81},
		"truncated string": {0x14, 'a'},
		"truncated addr":   {0x18, 0x01},
		"trailing":         {0x00, 0x00},
		"unknown special":  {0x20},
		"unknown type":     {0x07},
		"huge array":       {0xfd, 0xff, 0xff, 0xff, 0x0f},
	}
	for name, input := range inputs {
		if _, err := calldata.Decode(input); err == nil {
			t.Errorf("%v: should have failed to decode %x", name, input)
		}
	}
}

func TestEncodeRejectsNonStringKeys(t *testing.T) {
	_, err := calldata.Encode(rawvalue.Entries{{Key: rawvalue.Int(1), Value: rawvalue.Null{}}})
	if err == nil {
		t.Errorf("Should have rejected an integer map key")
	}
}
