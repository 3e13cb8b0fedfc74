package builder

import (
	"context"
	"math/rand/v2"

	"github.com/vocabtrainer/server/internal/domain/question"
	"github.com/vocabtrainer/server/internal/repository"
)

// questionTypeWeights are the fixed categorical weights used to choose
// a question type when the caller doesn't pin one.
var questionTypeWeights = []struct {
	qType  question.Type
	weight float64
}{
	{question.TypeFillBlank, 0.60},
	{question.TypeBestFit, 0.25},
	{question.TypeDistinction, 0.15},
}

// SelectQuestionType draws a question.Type from the fixed categorical
// distribution fill_blank 0.60 / best_fit 0.25 / distinction 0.15.
func SelectQuestionType() question.Type {
	r := rand.Float64()
	var cumulative float64
	for _, w := range questionTypeWeights {
		cumulative += w.weight
		if r < cumulative {
			return w.qType
		}
	}
	return questionTypeWeights[len(questionTypeWeights)-1].qType
}

// SelectTarget draws a (word, cluster) pair to generate a question for,
// weighting every eligible pair by 1/(1+ready_count) so pairs with
// fewer ready questions are proportionally more likely to be chosen —
// never to the exclusion of well-stocked pairs, so variety doesn't
// collapse onto a single starved pair.
func SelectTarget(ctx context.Context, questions repository.QuestionRepository) (repository.WordClusterKey, error) {
	counts, err := questions.GetWordClusterQuestionCounts(ctx)
	if err != nil {
		return repository.WordClusterKey{}, err
	}
	if len(counts) == 0 {
		return repository.WordClusterKey{}, ErrNoEligibleClusters
	}

	keys := make([]repository.WordClusterKey, 0, len(counts))
	weights := make([]float64, 0, len(counts))
	var total float64
	for k, n := range counts {
		keys = append(keys, k)
		w := 1.0 / float64(1+n)
		weights = append(weights, w)
		total += w
	}

	r := rand.Float64() * total
	var cumulative float64
	for i, w := range weights {
		cumulative += w
		if r < cumulative {
			return keys[i], nil
		}
	}
	return keys[len(keys)-1], nil
}
