// Package builder implements the two-stage question generation pipeline
//: stem+choices, then per-choice annotation, with
// validation, auto-repair, and feedback-driven retry at each stage.
package builder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/vocabtrainer/server/internal/domain/question"
	"github.com/vocabtrainer/server/internal/domain/vocab"
	"github.com/vocabtrainer/server/internal/generation"
	"github.com/vocabtrainer/server/internal/repository"
)

const (
	maxStage1Attempts = 3
	maxStage2Attempts = 3
	enrichmentMin     = 5
	enrichmentMax     = 10
)

// Builder drives question generation against the Store and a
// generation.Provider.
type Builder struct {
	Words     repository.WordRepository
	Clusters  repository.ClusterRepository
	Questions repository.QuestionRepository

	// BackendName identifies the generator for Question.SourceBackend,
	// e.g. "local" or "mock".
	BackendName string
}

// New constructs a Builder over the Store's repositories.
func New(words repository.WordRepository, clusters repository.ClusterRepository, questions repository.QuestionRepository, backendName string) *Builder {
	return &Builder{Words: words, Clusters: clusters, Questions: questions, BackendName: backendName}
}

// Params pins an optional target and/or question type; zero values are
// filled in by weighted selection.
type Params struct {
	TargetWord   string
	ClusterTitle string
	QuestionType question.Type
}

// Build generates one question end to end: target/type selection (if
// unpinned), stage 1 (stem+choices) with retry-on-feedback, and stage 2
// (choice_details) with retry-on-feedback and a Store-lookup fallback.
func (b *Builder) Build(ctx context.Context, provider generation.Provider, params Params) (*question.Question, error) {
	targetWord, clusterTitle := params.TargetWord, params.ClusterTitle
	if targetWord == "" || clusterTitle == "" {
		key, err := SelectTarget(ctx, b.Questions)
		if err != nil {
			return nil, err
		}
		targetWord, clusterTitle = key.Word, key.ClusterTitle
	}

	qType := params.QuestionType
	if qType == "" {
		qType = SelectQuestionType()
	}

	cluster, err := b.Clusters.Get(ctx, clusterTitle)
	if err != nil {
		return nil, fmt.Errorf("loading cluster %q: %w", clusterTitle, err)
	}
	if !cluster.Eligible() {
		return nil, ErrNoEligibleClusters
	}
	targetEntry, ok := cluster.EntryFor(targetWord)
	if !ok {
		return nil, fmt.Errorf("%w: word %q is not a member of cluster %q", ErrNoEligibleClusters, targetWord, clusterTitle)
	}

	enrichment, err := b.sampleEnrichment(ctx, cluster)
	if err != nil {
		return nil, err
	}

	q, err := b.runStage1(ctx, provider, qType, cluster, targetEntry, enrichment)
	if err != nil {
		return nil, err
	}

	details, err := b.runStage2(ctx, provider, cluster, q)
	if err != nil {
		return nil, err
	}
	q.ChoiceDetails = details

	q.ID = uuid.NewString()
	q.GeneratedAt = time.Now().UTC()
	q.SourceBackend = b.BackendName
	q.ClusterTitle = clusterTitle

	if err := b.Questions.Save(ctx, q); err != nil {
		return nil, fmt.Errorf("saving generated question: %w", err)
	}
	return q, nil
}

func (b *Builder) runStage1(ctx context.Context, provider generation.Provider, qType question.Type, cluster *vocab.Cluster, target vocab.ClusterEntry, enrichment []string) (*question.Question, error) {
	prompt := buildStage1Prompt(qType, cluster, target, enrichment)
	feedback := ""

	for attempt := 0; attempt < maxStage1Attempts; attempt++ {
		resp, err := provider.Complete(ctx, generation.CompletionRequest{
			Messages: []generation.Message{{Role: "user", Content: appendFeedback(prompt, feedback)}},
		})
		if err != nil {
			return nil, fmt.Errorf("stage 1 generation: %w", err)
		}

		var draft stage1Draft
		if !extractJSON(resp.Content, &draft) {
			feedback = "response must be a single JSON object with fields stem, choices, correct_index, explanation, context_sentence"
			continue
		}

		q, fb := validateAndRepair(&draft, qType, target.Word)
		if fb != "" {
			feedback = fb
			continue
		}
		return q, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrStageOneFailed, feedback)
}

func (b *Builder) runStage2(ctx context.Context, provider generation.Provider, cluster *vocab.Cluster, q *question.Question) ([4]question.ChoiceDetail, error) {
	prompt := buildStage2Prompt(q.Stem, q.Choices, q.CorrectWord())
	feedback := ""

	for attempt := 0; attempt < maxStage2Attempts; attempt++ {
		resp, err := provider.Complete(ctx, generation.CompletionRequest{
			Messages: []generation.Message{{Role: "user", Content: appendFeedback(prompt, feedback)}},
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return [4]question.ChoiceDetail{}, ctxErr
			}
			return b.fallbackChoiceDetails(cluster, q.Choices), nil
		}

		var entries []stage2Entry
		if !extractJSONArray(resp.Content, &entries) {
			feedback = "response must be a JSON array of per-choice objects with no other text"
			continue
		}

		details, fb := validateStage2(entries, q.Choices)
		if fb != "" {
			feedback = fb
			continue
		}
		return details, nil
	}
	return b.fallbackChoiceDetails(cluster, q.Choices), nil
}

// fallbackChoiceDetails covers stage-2 total failure: look up each
// choice in the cluster's own entries (or a suffix-stripped form of
// it) and fill meaning/distinction from there, leaving why empty.
func (b *Builder) fallbackChoiceDetails(cluster *vocab.Cluster, choices [4]string) [4]question.ChoiceDetail {
	var details [4]question.ChoiceDetail
	for i, choice := range choices {
		entry, ok := cluster.EntryFor(choice)
		if !ok {
			entry, ok = findBySuffixStrippedForm(cluster, choice)
		}
		if ok {
			details[i] = question.ChoiceDetail{
				Word:        choice,
				BaseWord:    entry.Word,
				Meaning:     entry.Meaning,
				Distinction: entry.Distinction,
			}
		} else {
			details[i] = question.ChoiceDetail{Word: choice, BaseWord: choice}
		}
	}
	return details
}

func findBySuffixStrippedForm(cluster *vocab.Cluster, choice string) (vocab.ClusterEntry, bool) {
	for _, e := range cluster.Entries {
		if question.IsInflectionOf(choice, e.Word) {
			return e, true
		}
	}
	return vocab.ClusterEntry{}, false
}

// sampleEnrichment draws a small random set of unrelated words from the
// full word list, for generation flavor only — they are never required
// to appear in the result.
func (b *Builder) sampleEnrichment(ctx context.Context, cluster *vocab.Cluster) ([]string, error) {
	words, err := b.Words.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing words for enrichment sample: %w", err)
	}

	inCluster := make(map[string]struct{}, len(cluster.Entries))
	for _, e := range cluster.Entries {
		inCluster[vocab.Normalize(e.Word)] = struct{}{}
	}

	var candidates []string
	for _, w := range words {
		if _, excluded := inCluster[vocab.Normalize(w.Word)]; !excluded {
			candidates = append(candidates, w.Word)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	rand.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

	n := enrichmentMin + rand.IntN(enrichmentMax-enrichmentMin+1)
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n], nil
}
