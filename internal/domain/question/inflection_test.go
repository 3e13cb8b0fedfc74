package question_test

import (
	"testing"

	"github.com/vocabtrainer/server/internal/domain/question"
)

func TestIsInflectionOf(t *testing.T) {
	cases := []struct {
		candidate, base string
		want            bool
	}{
		{"cajoled", "cajole", true},
		{"cajoling", "cajole", true},
		{"varies", "vary", true},
		{"happiest", "happy", true},
		{"terse", "terse", true},
		{"running", "run", false}, // not a suffix-on-stem match; doubled consonant unsupported
		{"banana", "apple", false},
		{"flattery", "flatter", false},
	}
	for _, tc := range cases {
		if got := question.IsInflectionOf(tc.candidate, tc.base); got != tc.want {
			t.Errorf("IsInflectionOf(%q, %q) = %v, want %v", tc.candidate, tc.base, got, tc.want)
		}
	}
}

func TestFindInflection(t *testing.T) {
	choices := []string{"beguiled", "flattered", "cajoled", "wheedled"}
	idx, ok := question.FindInflection(choices, "cajole")
	if !ok || idx != 2 {
		t.Fatalf("FindInflection = (%d, %v), want (2, true)", idx, ok)
	}

	_, ok = question.FindInflection(choices, "placate")
	if ok {
		t.Fatalf("FindInflection should not match unrelated target")
	}
}

func TestFindExact(t *testing.T) {
	choices := []string{"Terse", "Curt", "Brief", "Laconic"}
	idx, ok := question.FindExact(choices, "terse")
	if !ok || idx != 0 {
		t.Fatalf("FindExact = (%d, %v), want (0, true)", idx, ok)
	}
}
