package buffer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vocabtrainer/server/internal/domain/builder"
	"github.com/vocabtrainer/server/internal/domain/vocab"
	genmock "github.com/vocabtrainer/server/internal/generation/mock"
	"github.com/vocabtrainer/server/internal/repository"
	"github.com/vocabtrainer/server/internal/repository/mocks"
)

func blockingCluster() *vocab.Cluster {
	return &vocab.Cluster{
		Title: "persuade",
		Entries: []vocab.ClusterEntry{
			{Word: "cajole", Meaning: "m", Distinction: "d"},
			{Word: "beguile", Meaning: "m", Distinction: "d"},
			{Word: "flatter", Meaning: "m", Distinction: "d"},
			{Word: "wheedle", Meaning: "m", Distinction: "d"},
		},
	}
}

func TestController_Check_CollapsesConcurrentCallsIntoOneBuild(t *testing.T) {
	cluster := blockingCluster()

	clusterRepo := &mocks.ClusterRepository{}
	clusterRepo.On("Get", mock.Anything, cluster.Title).Return(cluster, nil)
	wordRepo := &mocks.WordRepository{}
	wordRepo.On("List", mock.Anything).Return([]vocab.Word(nil), nil)

	questionRepo := &mocks.QuestionRepository{}
	questionRepo.On("GetWordClusterQuestionCounts", mock.Anything).Return(map[repository.WordClusterKey]int{
		{Word: "cajole", ClusterTitle: "persuade"}: 0,
	}, nil)
	questionRepo.On("ReadyCount", mock.Anything).Return(0, nil)

	var saveCount int
	var saveMu sync.Mutex
	gate := make(chan struct{})
	questionRepo.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saveMu.Lock()
		saveCount++
		saveMu.Unlock()
		<-gate
	}).Return(nil)

	b := builder.New(wordRepo, clusterRepo, questionRepo, "mock")
	provider := &genmock.Provider{Responses: []string{
		`{"stem": "She tried to ___ him.", "choices": ["cajoled", "beguiled", "flattered", "wheedled"], "correct_index": 0, "explanation": "x", "context_sentence": "She tried to cajole him."}`,
		`[{"word":"cajoled","base_word":"cajole","meaning":"m","distinction":"d","why":"w"},
		  {"word":"beguiled","base_word":"beguile","meaning":"m","distinction":"d","why":"w"},
		  {"word":"flattered","base_word":"flatter","meaning":"m","distinction":"d","why":"w"},
		  {"word":"wheedled","base_word":"wheedle","meaning":"m","distinction":"d","why":"w"}]`,
	}}

	scheduler := NewScheduler()
	controller := NewController(questionRepo, b, provider, scheduler, 3, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = controller.Check(context.Background(), 0)
		}()
	}
	wg.Wait()

	require.True(t, controller.InFlight())
	close(gate)
	time.Sleep(50 * time.Millisecond)

	saveMu.Lock()
	defer saveMu.Unlock()
	require.Equal(t, 1, saveCount, "concurrent Check calls must spawn exactly one background build")
}
