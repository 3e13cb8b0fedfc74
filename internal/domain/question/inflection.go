package question

import "strings"

// inflectionSuffixes is the list of morphological suffixes the
// validator recognizes when a generator's chosen answer isn't an exact
// match for the target word. IsInflectionOf tries every suffix in
// turn, so their order does not change its result.
var inflectionSuffixes = []string{
	"tion", "ment", "ness", "ous", "ive",
	"ing", "est", "er",
	"es", "ed", "ly", "al",
	"s", "d",
}

// IsInflectionOf reports whether candidate is base (case-insensitively)
// or a recognized morphological inflection of it: a suffixed form, an
// e-dropping form for stems ending in 'e' (e.g. "cajole" -> "cajoling"),
// or a y->i form for stems ending in 'y' (e.g. "vary" -> "varies").
func IsInflectionOf(candidate, base string) bool {
	c := strings.ToLower(strings.TrimSpace(candidate))
	b := strings.ToLower(strings.TrimSpace(base))
	if c == "" || b == "" {
		return false
	}
	if c == b {
		return true
	}

	for _, suf := range inflectionSuffixes {
		if !strings.HasSuffix(c, suf) {
			continue
		}
		stem := strings.TrimSuffix(c, suf)
		if stem == b {
			return true
		}
		// e-dropping: "cajole" + "ing" -> "cajoling" (stem "cajol").
		if stem+"e" == b {
			return true
		}
		// y -> i: "vary" + "es" -> "varies" (stem "vari").
		if strings.HasSuffix(stem, "i") && strings.TrimSuffix(stem, "i")+"y" == b {
			return true
		}
	}
	return false
}

// FindInflection scans choices for the first entry that is base or a
// recognized inflection of it, returning its index. ok is false if none
// match.
func FindInflection(choices []string, base string) (index int, ok bool) {
	for i, c := range choices {
		if IsInflectionOf(c, base) {
			return i, true
		}
	}
	return -1, false
}

// FindExact scans choices for the first entry matching target
// case-insensitively, returning its index. ok is false if none match.
func FindExact(choices []string, target string) (index int, ok bool) {
	want := strings.ToLower(strings.TrimSpace(target))
	for i, c := range choices {
		if strings.ToLower(strings.TrimSpace(c)) == want {
			return i, true
		}
	}
	return -1, false
}
