package author

import (
	"reflect"
	"testing"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Query
	}{
		{
			name:  "single word is last name",
			input: "Yu",
			want:  Query{Last: "yu"},
		},
		{
			name:  "two words is First Last",
			input: "Timothy Yu",
			want:  Query{First: "timothy", Last: "yu"},
		},
		{
			name:  "three words: first two are given names",
			input: "Timothy C Yu",
			want:  Query{First: "timothy c", Last: "yu"},
		},
		{
			name:  "comma format: Last, First",
			input: "Yu, Timothy",
			want:  Query{First: "timothy", Last: "yu"},
		},
		{
			name:  "comma format with spaces",
			input: "Yu,  Timothy C",
			want:  Query{First: "timothy c", Last: "yu"},
		},
		{
			name:  "accents and hyphens are folded",
			input: "José García-López",
			want:  Query{First: "jose garcia", Last: "lopez"},
		},
		{
			name:  "empty string",
			input: "",
			want:  Query{},
		},
		{
			name:  "whitespace only",
			input: "   ",
			want:  Query{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuery(tt.input)
			if got != tt.want {
				t.Errorf("ParseQuery(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestQueryMatches(t *testing.T) {
	tests := []struct {
		name  string
		query string
		names []string
		want  bool
	}{
		{"last name only", "smith", []string{"a. smith"}, true},
		{"last name is exact", "smith", []string{"a. smithson"}, false},
		{"initial prefix", "A. Smith", []string{"alice smith"}, true},
		{"initial prefix with middle", "A. Smith", []string{"a. b. smith"}, true},
		{"given name mismatch", "Bob Smith", []string{"alice smith"}, false},
		{"comma form of stored name", "Smith", []string{"smith, a."}, true},
		{"folded query", "Weiß", []string{"rainer weiss"}, true},
		{"empty query never matches", "", []string{"a. smith"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseQuery(tt.query)
			if got := q.Matches(tt.names[0]); got != tt.want {
				t.Errorf("ParseQuery(%q).Matches(%q) = %v, want %v", tt.query, tt.names[0], got, tt.want)
			}
		})
	}
}

func TestQueryFilter(t *testing.T) {
	names := []string{"a. smith", "alice smith", "b. smith", "a. smithson", "smith"}
	got := ParseQuery("A Smith").Filter(names)
	want := []string{"a. smith", "alice smith"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter() = %v, want %v", got, want)
	}
}
