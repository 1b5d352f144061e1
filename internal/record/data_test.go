package record

import (
	"encoding/json"
	"testing"
)

func TestData_MarshalSortedKeys(t *testing.T) {
	d := Data{"zeta": "z", "alpha": "a", "mid": int64(3)}

	got, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	want := `{"alpha":"a","mid":3,"zeta":"z"}`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestData_MarshalDeterministic(t *testing.T) {
	d := Data{"b": int64(2), "a": int64(1), "c": int64(3)}

	first, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("Marshal() iteration %d failed: %v", i, err)
		}
		if string(again) != string(first) {
			t.Fatalf("Marshal() iteration %d = %s, want %s", i, again, first)
		}
	}
}

func TestData_RoundTripPreservesIntegers(t *testing.T) {
	d := Data{"id": int64(9007199254740993), "label": "Old", "ratio": 0.5}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	var back Data
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}

	id, ok := back["id"].(int64)
	if !ok {
		t.Fatalf("id decoded as %T, want int64", back["id"])
	}
	if id != 9007199254740993 {
		t.Errorf("id = %d, want 9007199254740993", id)
	}
	if back["label"] != "Old" {
		t.Errorf("label = %v, want Old", back["label"])
	}
	if back["ratio"] != 0.5 {
		t.Errorf("ratio = %v, want 0.5", back["ratio"])
	}
}

func TestData_RoundTripNested(t *testing.T) {
	d := Data{
		"config": map[string]any{"retries": int64(3)},
		"tags":   []any{"a", int64(2)},
		"none":   nil,
	}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	var back Data
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}

	cfg, ok := back["config"].(map[string]any)
	if !ok {
		t.Fatalf("config decoded as %T, want map[string]any", back["config"])
	}
	if cfg["retries"] != int64(3) {
		t.Errorf("config.retries = %v (%T), want int64(3)", cfg["retries"], cfg["retries"])
	}

	tags, ok := back["tags"].([]any)
	if !ok {
		t.Fatalf("tags decoded as %T, want []any", back["tags"])
	}
	if tags[1] != int64(2) {
		t.Errorf("tags[1] = %v (%T), want int64(2)", tags[1], tags[1])
	}

	if back["none"] != nil {
		t.Errorf("none = %v, want nil", back["none"])
	}
}

func TestData_Without(t *testing.T) {
	d := Data{"id": int64(7), "label": "x", "rank": int64(1)}

	got := d.Without("id", "rank")
	if len(got) != 1 || got["label"] != "x" {
		t.Errorf("Without() = %v, want map with only label", got)
	}

	// Original is untouched
	if len(d) != 3 {
		t.Errorf("Without() mutated receiver: %v", d)
	}
}

func TestData_SortedColumns(t *testing.T) {
	d := Data{"c": 1, "a": 2, "b": 3}

	got := d.SortedColumns()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("SortedColumns() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SortedColumns()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusHistorical, StatusRolledBack} {
		if !s.Valid() {
			t.Errorf("Status(%q).Valid() = false, want true", s)
		}
	}
	if Status("committed").Valid() {
		t.Error(`Status("committed").Valid() = true, want false`)
	}
}

func TestOperation_Valid(t *testing.T) {
	for _, o := range []Operation{OpInsert, OpUpdate, OpDelete} {
		if !o.Valid() {
			t.Errorf("Operation(%q).Valid() = false, want true", o)
		}
	}
	if Operation("upsert").Valid() {
		t.Error(`Operation("upsert").Valid() = true, want false`)
	}
}

func TestSource_Valid(t *testing.T) {
	for _, s := range []Source{SourceLLM, SourceMCP, SourceAPI} {
		if !s.Valid() {
			t.Errorf("Source(%q).Valid() = false, want true", s)
		}
	}
	if Source("cron").Valid() {
		t.Error(`Source("cron").Valid() = true, want false`)
	}
}
