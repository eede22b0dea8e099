package flatten_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/joincivil/content-moderation-adapter/pkg/diagnostics"
	"github.com/joincivil/content-moderation-adapter/pkg/flatten"
	"github.com/joincivil/content-moderation-adapter/pkg/rawvalue"
)

const (
	testAddress = "0xdfe273082089bb7f70ee36eebcde64832fe97e55"
)

func str(s string) rawvalue.Value {
	return rawvalue.String(s)
}

func byteStructure() rawvalue.Entries {
	addr := common.HexToAddress(testAddress)
	entries := rawvalue.Entries{}
	for i, b := range addr {
		entries = append(entries, rawvalue.Pair{Key: rawvalue.Int(int64(i)), Value: rawvalue.Int(int64(b))})
	}
	return entries
}

func TestFlattenTwoLevel(t *testing.T) {
	raw := rawvalue.Entries{
		{Key: str("g1"), Value: rawvalue.Entries{
			{Key: str("text"), Value: str("T")},
			{Key: str("creator_address"), Value: byteStructure()},
		}},
	}
	records := flatten.NewFlattener(nil).Flatten(raw, flatten.TwoLevel("id"))
	if len(records) != 1 {
		t.Fatalf("Should have returned one record, got %v", len(records))
	}
	rec := records[0]
	if rec.Text("id") != "g1" {
		t.Errorf("id should be g1, got %v", rec.Text("id"))
	}
	if rec.Text("text") != "T" {
		t.Errorf("text should be T, got %v", rec.Text("text"))
	}
	if rec.Text("creator_address") != testAddress {
		t.Errorf("creator_address should be decoded, got %v", rec.Text("creator_address"))
	}
}

func TestFlattenThreeLevelKeepsOrder(t *testing.T) {
	result := func(outcome string) rawvalue.Value {
		return rawvalue.Entries{
			{Key: str("outcome"), Value: str(outcome)},
			{Key: str("moderator_address"), Value: str(testAddress)},
		}
	}
	raw := rawvalue.Entries{
		{Key: str("post-b"), Value: rawvalue.Entries{
			{Key: str("g2"), Value: result("keep")},
			{Key: str("g1"), Value: result("remove")},
		}},
		{Key: str("post-a"), Value: rawvalue.Entries{
			{Key: str("g1"), Value: result("limit")},
		}},
	}
	records := flatten.NewFlattener(nil).Flatten(raw, flatten.ThreeLevel("post_id", "guideline_id"))
	expected := [][3]string{
		{"post-b", "g2", "keep"},
		{"post-b", "g1", "remove"},
		{"post-a", "g1", "limit"},
	}
	if len(records) != len(expected) {
		t.Fatalf("Should have returned %v records, got %v", len(expected), len(records))
	}
	for i, exp := range expected {
		rec := records[i]
		if rec.Text("post_id") != exp[0] || rec.Text("guideline_id") != exp[1] || rec.Text("outcome") != exp[2] {
			t.Errorf("Record %v out of order or wrong: %v %v %v", i,
				rec.Text("post_id"), rec.Text("guideline_id"), rec.Text("outcome"))
		}
		if rec.Text("moderator_address") != testAddress {
			t.Errorf("moderator_address should pass through the codec, got %v", rec.Text("moderator_address"))
		}
	}
}

func TestFlattenStructuralKeyWins(t *testing.T) {
	raw := rawvalue.Entries{
		{Key: str("g1"), Value: rawvalue.Entries{
			{Key: str("guideline_id"), Value: str("stale")},
			{Key: str("outcome"), Value: str("keep")},
		}},
	}
	records := flatten.NewFlattener(nil).Flatten(raw, flatten.TwoLevel("guideline_id"))
	if len(records) != 1 {
		t.Fatalf("Should have returned one record, got %v", len(records))
	}
	if records[0].Text("guideline_id") != "g1" {
		t.Errorf("Structural key should win, got %v", records[0].Text("guideline_id"))
	}
}

func TestFlattenNonKeyedValues(t *testing.T) {
	values := []rawvalue.Value{
		nil,
		rawvalue.Null{},
		rawvalue.String("scalar"),
		rawvalue.Int(5),
		rawvalue.List{rawvalue.Int(1)},
		rawvalue.Unrecognized{Source: 3.5},
	}
	f := flatten.NewFlattener(nil)
	for _, v := range values {
		records := f.Flatten(v, flatten.TwoLevel("id"))
		if records == nil || len(records) != 0 {
			t.Errorf("Should have returned an empty slice for %v", rawvalue.Describe(v))
		}
	}
}

func TestFlattenSkipsNonKeyedInnerValues(t *testing.T) {
	raw := rawvalue.Entries{
		{Key: str("g1"), Value: rawvalue.Null{}},
		{Key: str("g2"), Value: rawvalue.Entries{{Key: str("text"), Value: str("ok")}}},
	}
	records := flatten.NewFlattener(nil).Flatten(raw, flatten.TwoLevel("id"))
	if len(records) != 1 || records[0].Text("id") != "g2" {
		t.Errorf("Should have only kept g2, got %v records", len(records))
	}
}

func TestFlattenUndecodableAddressKeepsRecord(t *testing.T) {
	sink := &diagnostics.RecordingSink{}
	raw := rawvalue.Entries{
		{Key: str("text"), Value: str("T")},
		{Key: str("creator_address"), Value: rawvalue.Int(7)},
	}
	rec, ok := flatten.NewFlattener(sink).FlattenRecord(raw)
	if !ok {
		t.Fatalf("Should have flattened the record")
	}
	if v, ok := rec.Get("creator_address"); !ok || rawvalue.KeyString(v) != "" {
		t.Errorf("Undecodable address should be an empty string")
	}
	if rec.Text("text") != "T" {
		t.Errorf("Other fields should be kept")
	}
	if len(sink.Anomalies()) == 0 {
		t.Errorf("Should have reported the anomaly to the sink")
	}
}

func TestFlattenItems(t *testing.T) {
	item := func(post string) rawvalue.Value {
		return rawvalue.Entries{{Key: str("post_id"), Value: str(post)}}
	}
	f := flatten.NewFlattener(nil)
	fromList := f.FlattenItems(rawvalue.List{item("a"), rawvalue.Int(1), item("b")})
	if len(fromList) != 2 || fromList[0].Text("post_id") != "a" || fromList[1].Text("post_id") != "b" {
		t.Errorf("List items not flattened correctly: %v", len(fromList))
	}
	fromEntries := f.FlattenItems(rawvalue.Entries{
		{Key: rawvalue.Int(0), Value: item("c")},
		{Key: rawvalue.Int(1), Value: item("d")},
	})
	if len(fromEntries) != 2 || fromEntries[1].Text("post_id") != "d" {
		t.Errorf("Entries items not flattened correctly: %v", len(fromEntries))
	}
	if len(f.FlattenItems(rawvalue.Null{})) != 0 {
		t.Errorf("Null should flatten to no items")
	}
}

func TestRecordInt(t *testing.T) {
	rec := flatten.Record{
		{Name: "total", Value: rawvalue.Int(25)},
		{Name: "page", Value: rawvalue.String("3")},
		{Name: "bad", Value: rawvalue.String("x")},
	}
	if rec.Int("total") != 25 {
		t.Errorf("total should be 25")
	}
	if rec.Int("page") != 3 {
		t.Errorf("page should be parsed from a string")
	}
	if rec.Int("bad") != 0 || rec.Int("missing") != 0 {
		t.Errorf("bad and missing fields should be 0")
	}
}

func TestFlattenReportsStructuredKeys(t *testing.T) {
	sink := &diagnostics.RecordingSink{}
	raw := rawvalue.Entries{
		{Key: rawvalue.List{str("g1")}, Value: rawvalue.Entries{{Key: str("text"), Value: str("T")}}},
		{Key: str("g2"), Value: rawvalue.Entries{
			{Key: rawvalue.Entries{{Key: str("a"), Value: str("b")}}, Value: str("x")},
		}},
	}
	records := flatten.NewFlattener(sink).Flatten(raw, flatten.TwoLevel("id"))
	if len(records) != 2 {
		t.Fatalf("Should have kept both records, got %v", len(records))
	}
	if records[0].Text("id") != "" || records[0].Text("text") != "T" {
		t.Errorf("Should have kept the record with an empty id, got %v", records[0])
	}
	if len(sink.Anomalies()) != 2 {
		t.Errorf("Should have reported both structured keys, got %v", sink.Anomalies())
	}
}
