package builder

import (
	"fmt"
	"strings"

	"github.com/vocabtrainer/server/internal/domain/question"
	"github.com/vocabtrainer/server/internal/domain/vocab"
)

var stagePrompts = map[question.Type]string{
	question.TypeFillBlank: `You are generating a vocabulary quiz question: a fill-in-the-blank question that tests precise word choice among near-synonyms.

Cluster "%s":
%s

Target word: %s
Meaning: %s
Key distinction: %s

%s

Write a natural English sentence (15-30 words) where only the target word fits. Replace the target word with ___ in the stem. Provide exactly 4 choices from the same cluster, one correct. All four choices must be conjugated identically so the student chooses based on meaning, not grammar.

Respond with JSON only:
{"stem": "...", "choices": ["w1","w2","w3","w4"], "correct_index": 0, "explanation": "...", "context_sentence": "..."}`,

	question.TypeBestFit: `You are generating a vocabulary quiz question: a "best fit" question testing subtle distinctions among near-synonyms.

Cluster "%s":
%s

Target word: %s
Meaning: %s
Key distinction: %s

%s

Describe a scenario (2-3 sentences) without using any cluster word, then ask which word best fits. Provide exactly 4 choices from the same cluster, one correct.

Respond with JSON only:
{"stem": "...", "choices": ["w1","w2","w3","w4"], "correct_index": 0, "explanation": "...", "context_sentence": "..."}`,

	question.TypeDistinction: `You are generating a vocabulary quiz question testing explicit knowledge of a distinction among near-synonyms.

Cluster "%s":
%s

Target word: %s
Meaning: %s
Key distinction: %s

%s

Ask about the target word's key distinction from its cluster-mates. Provide exactly 4 choices from the same cluster, one correct.

Respond with JSON only:
{"stem": "...", "choices": ["w1","w2","w3","w4"], "correct_index": 0, "explanation": "...", "context_sentence": "..."}`,
}

const stageTwoPrompt = `Given this accepted quiz question:
Stem: %s
Choices: %s
Correct: %s

For EACH choice, provide a parallel JSON array entry describing it: {"word": choice text, "base_word": dictionary form, "meaning": brief meaning, "distinction": how it differs from the others, "why": one sentence on why it fits or doesn't fit this specific stem}.

Respond with a JSON array of exactly %d objects, in choice order, with no other text.`

func formatClusterInfo(entries []vocab.ClusterEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s: %s — %s\n", e.Word, e.Meaning, e.Distinction)
	}
	return b.String()
}

func formatEnrichment(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return "For richer context, you may weave in these words if they fit naturally: " + strings.Join(words, ", ")
}

func buildStage1Prompt(qType question.Type, cluster *vocab.Cluster, target vocab.ClusterEntry, enrichment []string) string {
	tmpl := stagePrompts[qType]
	return fmt.Sprintf(tmpl,
		cluster.Title, formatClusterInfo(cluster.Entries),
		target.Word, target.Meaning, target.Distinction,
		formatEnrichment(enrichment))
}

func buildStage2Prompt(stem string, choices [4]string, correctWord string) string {
	quoted := make([]string, len(choices))
	for i, c := range choices {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return fmt.Sprintf(stageTwoPrompt, stem, strings.Join(quoted, ", "), correctWord, len(choices))
}

func appendFeedback(prompt, feedback string) string {
	if feedback == "" {
		return prompt
	}
	return prompt + "\n\nYour previous attempt was rejected: " + feedback + "\nFix this and respond again with the same JSON format only."
}
