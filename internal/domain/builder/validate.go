package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vocabtrainer/server/internal/domain/question"
)

// stage1Draft is the wire shape a generator's stage-1 response is
// unmarshalled into, before validation and repair produce a
// question.Question.
type stage1Draft struct {
	Stem            string `json:"stem"`
	Choices         []any  `json:"choices"`
	CorrectIndex    any    `json:"correct_index"`
	Explanation     string `json:"explanation"`
	ContextSentence string `json:"context_sentence"`
}

// validateAndRepair checks a stage-1 draft against the question-shape
// invariants, repairing what can be repaired in place (blank-marker
// normalization, a(n) rewriting, correct_index coercion) and returning
// a feedback string describing the first uncorrectable problem found.
// feedback == "" means the draft is ready to become a question.Question.
func validateAndRepair(draft *stage1Draft, qType question.Type, targetWord string) (q *question.Question, feedback string) {
	if draft.Stem == "" {
		return nil, "stem is required and must be non-empty"
	}
	if len(draft.Choices) != 4 {
		return nil, fmt.Sprintf("choices must be a list of 4 (got %d)", len(draft.Choices))
	}

	choices, err := stringChoices(draft.Choices)
	if err != nil {
		return nil, err.Error()
	}
	if err := question.ValidateChoicesDistinct(choices); err != nil {
		return nil, err.Error()
	}

	correctIndex, err := coerceIndex(draft.CorrectIndex)
	if err != nil {
		return nil, err.Error()
	}

	targetIdx, ok := question.FindExact(choices, targetWord)
	if !ok {
		targetIdx, ok = question.FindInflection(choices, targetWord)
	}
	if !ok {
		return nil, fmt.Sprintf("target word %q must be one of the choices (or a recognized inflection)", targetWord)
	}
	// Trust the generator's correct_index only when it actually points
	// at the target; otherwise repair it to the word we found.
	indexPointsAtTarget := correctIndex >= 0 && correctIndex < len(choices) &&
		(choices[correctIndex] == targetWord || question.IsInflectionOf(choices[correctIndex], targetWord))
	if !indexPointsAtTarget {
		correctIndex = targetIdx
	}

	stem := draft.Stem
	if qType == question.TypeFillBlank {
		stem = question.NormalizeBlankMarker(stem)
		if strings.Count(stem, question.BlankMarker) != 1 {
			return nil, fmt.Sprintf("fill_blank stem must contain the blank marker %q exactly once", question.BlankMarker)
		}
		stem = question.RewriteLeakyArticle(stem, choices)
	}

	contextSentence := draft.ContextSentence
	if contextSentence != "" {
		correctWord := choices[correctIndex]
		if !question.ContainsWordOrInflection(contextSentence, correctWord) && !question.ContainsWordOrInflection(contextSentence, targetWord) {
			return nil, fmt.Sprintf("context_sentence must contain %q or a recognized inflection of it", targetWord)
		}
	}

	var arr [4]string
	copy(arr[:], choices)

	return &question.Question{
		QuestionType:    qType,
		TargetWord:      targetWord,
		Stem:            stem,
		Choices:         arr,
		CorrectIndex:    correctIndex,
		Explanation:     draft.Explanation,
		ContextSentence: contextSentence,
	}, ""
}

func stringChoices(raw []any) ([]string, error) {
	out := make([]string, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("choice %d is not a string", i)
		}
		out[i] = strings.TrimSpace(s)
	}
	return out, nil
}

// coerceIndex accepts correct_index as a JSON number or a numeric
// string, since backends vary in which they emit.
func coerceIndex(v any) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("correct_index %q is not numeric", t)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("correct_index is required")
	default:
		return 0, fmt.Errorf("correct_index has unexpected type %T", v)
	}
}

// stage2Entry is the wire shape of one element of a stage-2 response
// array, parallel to a question.ChoiceDetail.
type stage2Entry struct {
	Word        string `json:"word"`
	BaseWord    string `json:"base_word"`
	Meaning     string `json:"meaning"`
	Distinction string `json:"distinction"`
	Why         string `json:"why"`
}

// validateStage2 checks that a stage-2 response has exactly one entry
// per choice, in order.
func validateStage2(entries []stage2Entry, choices [4]string) (details [4]question.ChoiceDetail, feedback string) {
	if len(entries) != len(choices) {
		return details, fmt.Sprintf("choice_details must have exactly %d entries (got %d)", len(choices), len(entries))
	}
	for i, e := range entries {
		details[i] = question.ChoiceDetail{
			Word:        e.Word,
			BaseWord:    e.BaseWord,
			Meaning:     e.Meaning,
			Distinction: e.Distinction,
			Why:         e.Why,
		}
	}
	return details, ""
}
