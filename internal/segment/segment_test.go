package segment

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "two sentences",
			in:   "Hello. World.",
			want: []string{"Hello.", "World."},
		},
		{
			name: "mixed terminators",
			in:   "Really? Yes! Good.",
			want: []string{"Really?", "Yes!", "Good."},
		},
		{
			name: "trailing text without terminator gets a period",
			in:   "First. second half",
			want: []string{"First.", "second half."},
		},
		{
			name: "whitespace trimmed around sentences",
			in:   "  One.   Two.  ",
			want: []string{"One.", "Two."},
		},
		{
			name: "ellipsis collapses to one segment",
			in:   "Wait...",
			want: []string{"Wait."},
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
		{
			name: "only punctuation and whitespace",
			in:   " . ! ? ",
			want: nil,
		},
		{
			name: "newlines inside a sentence are preserved",
			in:   "line one\nline two.",
			want: []string{"line one\nline two."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplit_Deterministic(t *testing.T) {
	in := "A sentence. Another one! A third? And a tail"
	first := Split(in)
	for range 10 {
		if got := Split(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("Split is not deterministic: %#v vs %#v", got, first)
		}
	}
}
