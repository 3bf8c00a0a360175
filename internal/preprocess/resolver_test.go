package preprocess

import "testing"

// TestResolveTag covers prefix matching, polarity, and whitespace stripping.
func TestResolveTag(t *testing.T) {
	vocab := Vocabulary{}
	vocab.Add("t1")
	vocab.Add("t2")
	active := TagSet{}
	active.Add("t1")

	tests := []struct {
		name          string
		line          string
		wantDirective bool
		wantTag       string
		wantRest      string
		wantMatch     bool
	}{
		{
			name:          "positive active",
			line:          "t1: depth 10",
			wantDirective: true,
			wantTag:       "t1",
			wantRest:      "depth 10",
			wantMatch:     true,
		},
		{
			name:          "positive inactive",
			line:          "t2: depth 10",
			wantDirective: true,
			wantTag:       "t2",
			wantRest:      "depth 10",
			wantMatch:     false,
		},
		{
			name:          "negated active",
			line:          "~t1: depth 10",
			wantDirective: true,
			wantTag:       "t1",
			wantRest:      "depth 10",
			wantMatch:     false,
		},
		{
			name:          "negated inactive",
			line:          "~t2: depth 10",
			wantDirective: true,
			wantTag:       "t2",
			wantRest:      "depth 10",
			wantMatch:     true,
		},
		{
			name:          "block form has empty rest",
			line:          "t1:",
			wantDirective: true,
			wantTag:       "t1",
			wantRest:      "",
			wantMatch:     true,
		},
		{
			name:          "only one layer of leading whitespace stripped",
			line:          "t1: \t value",
			wantDirective: true,
			wantTag:       "t1",
			wantRest:      "value",
			wantMatch:     true,
		},
		{
			name: "unknown tag is not a directive",
			line: "t3: depth 10",
		},
		{
			name: "tag must be followed by a colon",
			line: "t1 depth 10",
		},
		{
			name: "tag prefix mid-line does not match",
			line: "set t1: depth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok, err := ResolveTag(tt.line, vocab, active)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantDirective {
				t.Fatalf("directive = %v, want %v", ok, tt.wantDirective)
			}
			if !ok {
				return
			}
			if d.Tag != tt.wantTag {
				t.Errorf("tag = %q, want %q", d.Tag, tt.wantTag)
			}
			if d.Rest != tt.wantRest {
				t.Errorf("rest = %q, want %q", d.Rest, tt.wantRest)
			}
			if d.Match != tt.wantMatch {
				t.Errorf("match = %v, want %v", d.Match, tt.wantMatch)
			}
		})
	}
}

// TestResolveTagAmbiguous verifies that a line matched by more than one known
// tag is rejected instead of resolved by iteration order.
func TestResolveTagAmbiguous(t *testing.T) {
	vocab := Vocabulary{}
	vocab.Add("x")
	vocab.Add("~x")

	_, _, err := ResolveTag("~x: value", vocab, TagSet{})
	if err == nil {
		t.Fatal("expected ambiguity error, got nil")
	}
}
