package period

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Period
		wantErr bool
	}{
		{"1992-07", Period{1992, 7}, false},
		{"199207", Period{1992, 7}, false},
		{" 2013-12 ", Period{2013, 12}, false},
		{"2013-13", Period{}, true},
		{"2013-00", Period{}, true},
		{"13-01", Period{}, true},
		{"abcd-01", Period{}, true},
		{"", Period{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatting(t *testing.T) {
	p := Period{Year: 1993, Month: 1}
	if got := p.String(); got != "1993-01" {
		t.Errorf("String() = %q, want 1993-01", got)
	}
	if got := p.Key(); got != "199301" {
		t.Errorf("Key() = %q, want 199301", got)
	}
	if got := p.YYMM(); got != "9301" {
		t.Errorf("YYMM() = %q, want 9301", got)
	}
	if got := (Period{Year: 2007, Month: 4}).YYMM(); got != "0704" {
		t.Errorf("YYMM() = %q, want 0704", got)
	}
}

func TestNext(t *testing.T) {
	if got := (Period{1999, 12}).Next(); got != (Period{2000, 1}) {
		t.Errorf("Next() = %v, want 2000-01", got)
	}
	if got := (Period{1999, 3}).Next(); got != (Period{1999, 4}) {
		t.Errorf("Next() = %v, want 1999-04", got)
	}
}

func TestRange(t *testing.T) {
	got, err := Range(Period{1992, 11}, Period{1993, 2})
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	want := []Period{{1992, 11}, {1992, 12}, {1993, 1}}
	if len(got) != len(want) {
		t.Fatalf("Range() returned %d periods, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Range()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRange_Invalid(t *testing.T) {
	if _, err := Range(Period{1993, 2}, Period{1993, 2}); err == nil {
		t.Error("Range() with start == end should fail")
	}
	if _, err := Range(Period{1993, 2}, Period{1992, 2}); err == nil {
		t.Error("Range() with start after end should fail")
	}
	if _, err := Range(Period{1993, 0}, Period{1994, 2}); err == nil {
		t.Error("Range() with invalid start should fail")
	}
}
