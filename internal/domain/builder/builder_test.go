package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vocabtrainer/server/internal/domain/question"
	"github.com/vocabtrainer/server/internal/domain/vocab"
	genmock "github.com/vocabtrainer/server/internal/generation/mock"
	"github.com/vocabtrainer/server/internal/repository"
	"github.com/vocabtrainer/server/internal/repository/mocks"
)

func persuadeCluster() *vocab.Cluster {
	return &vocab.Cluster{
		Title: "persuade",
		Entries: []vocab.ClusterEntry{
			{Word: "cajole", Meaning: "to coax with flattery", Distinction: "implies gentle, persistent flattery"},
			{Word: "beguile", Meaning: "to charm, sometimes deceptively", Distinction: "implies charm bordering on deception"},
			{Word: "flatter", Meaning: "to compliment insincerely", Distinction: "implies insincere praise"},
			{Word: "wheedle", Meaning: "to coax by sweet talk", Distinction: "implies wheedling through sweet words"},
		},
	}
}

func newBuilder(t *testing.T, cluster *vocab.Cluster, words []vocab.Word) (*Builder, *mocks.ClusterRepository, *mocks.WordRepository, *mocks.QuestionRepository) {
	t.Helper()
	clusterRepo := &mocks.ClusterRepository{}
	wordRepo := &mocks.WordRepository{}
	questionRepo := &mocks.QuestionRepository{}

	clusterRepo.On("Get", mock.Anything, cluster.Title).Return(cluster, nil)
	wordRepo.On("List", mock.Anything).Return(words, nil)
	questionRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	b := New(wordRepo, clusterRepo, questionRepo, "mock")
	return b, clusterRepo, wordRepo, questionRepo
}

func TestBuild_AcceptsInflectedCorrectChoice(t *testing.T) {
	cluster := persuadeCluster()
	b, _, _, _ := newBuilder(t, cluster, nil)

	provider := &genmock.Provider{Responses: []string{
		`{"stem": "She tried to ___ her brother into lending the car.", ` +
			`"choices": ["cajoled", "beguiled", "flattered", "wheedled"], "correct_index": 0, ` +
			`"explanation": "cajole fits the gentle persistence implied here.", ` +
			`"context_sentence": "She tried to cajole her brother into lending the car."}`,
		`[{"word":"cajoled","base_word":"cajole","meaning":"coaxed with flattery","distinction":"gentle persistence","why":"fits the sentence"},
		  {"word":"beguiled","base_word":"beguile","meaning":"charmed","distinction":"borders on deception","why":"wrong tone"},
		  {"word":"flattered","base_word":"flatter","meaning":"praised insincerely","distinction":"no coaxing implied","why":"wrong sense"},
		  {"word":"wheedled","base_word":"wheedle","meaning":"coaxed by sweet talk","distinction":"similar but less apt","why":"close but not best"}]`,
	}}

	q, err := b.Build(context.Background(), provider, Params{
		TargetWord: "cajole", ClusterTitle: "persuade", QuestionType: question.TypeFillBlank,
	})
	require.NoError(t, err)
	require.Equal(t, "cajole", q.TargetWord)
	require.Equal(t, "cajoled", q.Choices[q.CorrectIndex])
	require.Equal(t, 0, q.CorrectIndex)
	require.Contains(t, q.Stem, question.BlankMarker)
}

func TestBuild_RetriesStage1WithFeedbackOnTooFewChoices(t *testing.T) {
	cluster := persuadeCluster()
	b, _, _, _ := newBuilder(t, cluster, nil)

	provider := &genmock.Provider{Responses: []string{
		`{"stem": "She tried to ___ him.", "choices": ["cajoled", "beguiled", "flattered"], "correct_index": 0, "explanation": "x", "context_sentence": "She tried to cajole him."}`,
		`{"stem": "She tried to ___ her brother into lending the car.", "choices": ["cajoled", "beguiled", "flattered", "wheedled"], "correct_index": 0, "explanation": "x", "context_sentence": "She tried to cajole her brother into lending the car."}`,
		`[{"word":"cajoled","base_word":"cajole","meaning":"m","distinction":"d","why":"w"},
		  {"word":"beguiled","base_word":"beguile","meaning":"m","distinction":"d","why":"w"},
		  {"word":"flattered","base_word":"flatter","meaning":"m","distinction":"d","why":"w"},
		  {"word":"wheedled","base_word":"wheedle","meaning":"m","distinction":"d","why":"w"}]`,
	}}

	q, err := b.Build(context.Background(), provider, Params{
		TargetWord: "cajole", ClusterTitle: "persuade", QuestionType: question.TypeFillBlank,
	})
	require.NoError(t, err)
	require.Len(t, provider.Calls, 3)
	require.Equal(t, "cajoled", q.Choices[q.CorrectIndex])
}

func TestBuild_FailsAfterExhaustingStage1Retries(t *testing.T) {
	cluster := persuadeCluster()
	b, _, _, _ := newBuilder(t, cluster, nil)

	badResponse := `{"stem": "She tried to ___ him.", "choices": ["cajoled", "beguiled", "flattered"], "correct_index": 0, "explanation": "x", "context_sentence": "x"}`
	provider := &genmock.Provider{Responses: []string{badResponse, badResponse, badResponse}}

	_, err := b.Build(context.Background(), provider, Params{
		TargetWord: "cajole", ClusterTitle: "persuade", QuestionType: question.TypeFillBlank,
	})
	require.ErrorIs(t, err, ErrStageOneFailed)
	require.Len(t, provider.Calls, 3)
}

func TestBuild_FallsBackToStoreLookupWhenStage2Fails(t *testing.T) {
	cluster := persuadeCluster()
	b, _, _, _ := newBuilder(t, cluster, nil)

	stage1 := `{"stem": "She tried to ___ her brother into lending the car.", ` +
		`"choices": ["cajoled", "beguiled", "flattered", "wheedled"], "correct_index": 0, ` +
		`"explanation": "x", "context_sentence": "She tried to cajole her brother into lending the car."}`

	provider := &genmock.Provider{Responses: []string{stage1, "not json", "still not json", "nope"}}

	q, err := b.Build(context.Background(), provider, Params{
		TargetWord: "cajole", ClusterTitle: "persuade", QuestionType: question.TypeFillBlank,
	})
	require.NoError(t, err)
	require.Equal(t, "cajole", q.ChoiceDetails[0].BaseWord)
	require.Equal(t, "to coax with flattery", q.ChoiceDetails[0].Meaning)
	require.Empty(t, q.ChoiceDetails[0].Why)
}

func TestSelectTarget_WeightsTowardFewerReadyQuestions(t *testing.T) {
	questions := &mocks.QuestionRepository{}
	questions.On("GetWordClusterQuestionCounts", mock.Anything).Return(map[repository.WordClusterKey]int{
		{Word: "cajole", ClusterTitle: "persuade"}: 0,
		{Word: "beguile", ClusterTitle: "persuade"}: 50,
	}, nil)

	counts := map[string]int{}
	for i := 0; i < 200; i++ {
		key, err := SelectTarget(context.Background(), questions)
		require.NoError(t, err)
		counts[key.Word]++
	}
	require.Greater(t, counts["cajole"], counts["beguile"])
}

func TestSelectTarget_NoEligibleClusters(t *testing.T) {
	questions := &mocks.QuestionRepository{}
	questions.On("GetWordClusterQuestionCounts", mock.Anything).Return(map[repository.WordClusterKey]int{}, nil)

	_, err := SelectTarget(context.Background(), questions)
	require.ErrorIs(t, err, ErrNoEligibleClusters)
}

func TestSelectQuestionType_StaysWithinEnum(t *testing.T) {
	seen := map[question.Type]bool{}
	for i := 0; i < 100; i++ {
		seen[SelectQuestionType()] = true
	}
	for qt := range seen {
		require.Contains(t, []question.Type{question.TypeFillBlank, question.TypeBestFit, question.TypeDistinction}, qt)
	}
}
