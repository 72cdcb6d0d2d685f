package chart

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "2024-13-01", "01/02/2024", "yesterday"} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q) succeeded, want error", in)
		}
	}
}

func TestAddDaysIsFlat(t *testing.T) {
	// 2024 is a leap year: 365 flat days back from 2024-11-23 lands on 2023-11-24.
	d := MustParseDate("2024-11-23").AddDays(-365)
	if d.String() != "2023-11-24" {
		t.Errorf("AddDays(-365) = %s, want 2023-11-24", d)
	}
	if got := MustParseDate("2024-03-01").DaysSince(MustParseDate("2024-02-28")); got != 2 {
		t.Errorf("DaysSince across leap day = %d, want 2", got)
	}
}

func TestDateCompare(t *testing.T) {
	a, b := NewDate(2025, 1, 5), NewDate(2025, 1, 6)
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(NewDate(2025, 1, 5)) != 0 {
		t.Errorf("Compare = %d, %d, %d; want -1, 1, 0", a.Compare(b), b.Compare(a), a.Compare(a))
	}
}

func TestDateJSON(t *testing.T) {
	var p Point
	if err := json.Unmarshal([]byte(`{"date":"2024-01-05","value":null}`), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.Date.String() != "2024-01-05" || p.Value != nil {
		t.Errorf("got %+v", p)
	}
	out, err := json.Marshal(p.Date)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `"2024-01-05"` {
		t.Errorf("Marshal = %s", out)
	}
	if err := json.Unmarshal([]byte(`{"date":"Jan 5"}`), &p); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestDateYAML(t *testing.T) {
	var v struct {
		Start Date `yaml:"start"`
		End   Date `yaml:"end"`
	}
	if err := yaml.Unmarshal([]byte("start: 2023-11-23\nend: \"2023-11-24\"\n"), &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v.Start.String() != "2023-11-23" || v.End.String() != "2023-11-24" {
		t.Errorf("got start=%s end=%s", v.Start, v.End)
	}
}
