package question

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// blankVariant matches the sloppy blank-marker spellings a generator
// sometimes produces instead of the canonical "___".
var blankVariant = regexp.MustCompile(`(?i)_{4,}|\[blank\]|\(blank\)`)

// NormalizeBlankMarker rewrites any recognized blank-marker variant in
// stem to the canonical BlankMarker.
func NormalizeBlankMarker(stem string) string {
	return blankVariant.ReplaceAllString(stem, BlankMarker)
}

// ContainsBlankMarker reports whether stem contains exactly the
// canonical blank marker at least once.
func ContainsBlankMarker(stem string) bool {
	return strings.Contains(stem, BlankMarker)
}

// ValidateChoicesDistinct reports an error if choices does not have
// exactly 4 case-insensitively distinct, non-empty entries.
func ValidateChoicesDistinct(choices []string) error {
	if len(choices) != 4 {
		return fmt.Errorf("choices must be list of 4 (got %d)", len(choices))
	}
	seen := make(map[string]struct{}, 4)
	for _, c := range choices {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("choices must not be empty")
		}
		key := strings.ToLower(strings.TrimSpace(c))
		if _, dup := seen[key]; dup {
			return fmt.Errorf("choices must be case-insensitively distinct (duplicate %q)", c)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// ContainsWordOrInflection reports whether text contains word or a
// recognized morphological inflection of it, as a whole word.
func ContainsWordOrInflection(text, word string) bool {
	for _, tok := range tokenize(text) {
		if IsInflectionOf(tok, word) {
			return true
		}
	}
	return false
}

var tokenRe = regexp.MustCompile(`[A-Za-z]+`)

func tokenize(text string) []string {
	return tokenRe.FindAllString(text, -1)
}

// startsWithVowelSound is a coarse a/an heuristic based on the choice's
// initial letter — sufficient for the blank-leak guard below, which
// only needs to detect when choices disagree on vowel/consonant class.
func startsWithVowelSound(word string) bool {
	word = strings.TrimSpace(word)
	if word == "" {
		return false
	}
	r := unicode.ToLower(rune(word[0]))
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// articleBeforeBlank matches "a ___" / "an ___" (case-insensitive),
// capturing the article so it can be rewritten.
var articleBeforeBlank = regexp.MustCompile(`(?i)\b(a|an)\s+` + regexp.QuoteMeta(BlankMarker))

// RewriteLeakyArticle rewrites a leading "a ___"/"an ___" in stem to
// "a(n) ___" when choices mix vowel-initial and consonant-initial
// words, which would otherwise let the article itself give away the
// vowel/consonant class of the correct answer.
func RewriteLeakyArticle(stem string, choices []string) string {
	if !articleBeforeBlank.MatchString(stem) {
		return stem
	}
	if !mixedInitialClass(choices) {
		return stem
	}
	return articleBeforeBlank.ReplaceAllString(stem, "a(n) "+BlankMarker)
}

func mixedInitialClass(choices []string) bool {
	sawVowel, sawConsonant := false, false
	for _, c := range choices {
		if startsWithVowelSound(c) {
			sawVowel = true
		} else {
			sawConsonant = true
		}
	}
	return sawVowel && sawConsonant
}
