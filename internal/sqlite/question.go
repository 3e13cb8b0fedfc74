package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vocabtrainer/server/internal/domain/question"
	"github.com/vocabtrainer/server/internal/repository"
)

// QuestionRepository implements the Store's question query surface
// over SQLite.
type QuestionRepository struct {
	db *DB
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(db *DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) Save(ctx context.Context, q *question.Question) error {
	choices, err := json.Marshal(q.Choices)
	if err != nil {
		return fmt.Errorf("%w: marshal choices: %v", repository.ErrStorageFailure, err)
	}
	details, err := json.Marshal(q.ChoiceDetails)
	if err != nil {
		return fmt.Errorf("%w: marshal choice details: %v", repository.ErrStorageFailure, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO questions (
			id, question_type, target_word, cluster_title, stem, choices, correct_index,
			explanation, context_sentence, choice_details, generated_at, source_backend,
			answered_at, chosen_index, was_correct, response_time_ms, session_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.ID, string(q.QuestionType), q.TargetWord, q.ClusterTitle, q.Stem, string(choices), q.CorrectIndex,
		q.Explanation, q.ContextSentence, string(details), q.GeneratedAt, q.SourceBackend,
		q.AnsweredAt, q.ChosenIndex, nullableBool(q.WasCorrect), q.ResponseTimeMs, q.SessionID)
	if err != nil {
		return fmt.Errorf("%w: save question: %v", repository.ErrStorageFailure, err)
	}
	return nil
}

func (r *QuestionRepository) GetReviewQuestions(ctx context.Context, now time.Time, limit int) ([]question.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+questionColumns+`
		FROM questions q
		JOIN word_progress wp ON wp.word = q.target_word AND wp.cluster_title = q.cluster_title
		WHERE q.answered_at IS NULL AND wp.archived = 0 AND wp.next_review <= ?
		ORDER BY wp.next_review DESC
		LIMIT ?
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: get review questions: %v", repository.ErrStorageFailure, err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (r *QuestionRepository) GetNewQuestions(ctx context.Context, limit int) ([]question.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+questionColumns+`
		FROM questions q
		WHERE q.answered_at IS NULL
		  AND NOT EXISTS (
			SELECT 1 FROM word_progress wp
			WHERE wp.word = q.target_word AND wp.cluster_title = q.cluster_title
		  )
		ORDER BY RANDOM()
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: get new questions: %v", repository.ErrStorageFailure, err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (r *QuestionRepository) GetActiveWordNewQuestions(ctx context.Context, limit int, exclude []string) ([]question.Question, error) {
	excludeSet := make([]string, len(exclude))
	for i, w := range exclude {
		excludeSet[i] = strings.ToLower(w)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(excludeSet)), ",")
	query := `
		SELECT ` + questionColumns + `
		FROM questions q
		JOIN word_progress wp ON wp.word = q.target_word AND wp.cluster_title = q.cluster_title
		WHERE q.answered_at IS NULL AND wp.archived = 0
	`
	args := []any{}
	if len(excludeSet) > 0 {
		query += ` AND LOWER(q.target_word) NOT IN (` + placeholders + `)`
		for _, w := range excludeSet {
			args = append(args, w)
		}
	}
	query += ` ORDER BY RANDOM() LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: get active word new questions: %v", repository.ErrStorageFailure, err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (r *QuestionRepository) MarkAnswered(ctx context.Context, id string, chosenIndex int, wasCorrect bool, responseMs int64, sessionID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE questions
		SET answered_at = CURRENT_TIMESTAMP, chosen_index = ?, was_correct = ?, response_time_ms = ?, session_id = ?
		WHERE id = ?
	`, chosenIndex, boolToInt(wasCorrect), responseMs, sessionID, id)
	if err != nil {
		return fmt.Errorf("%w: mark question answered: %v", repository.ErrStorageFailure, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: mark question answered: %v", repository.ErrStorageFailure, err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *QuestionRepository) ReadyCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM questions q
		LEFT JOIN word_progress wp ON wp.word = q.target_word AND wp.cluster_title = q.cluster_title
		WHERE q.answered_at IS NULL AND (wp.archived IS NULL OR wp.archived = 0)
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: ready count: %v", repository.ErrStorageFailure, err)
	}
	return count, nil
}

func (r *QuestionRepository) GetWordClusterQuestionCounts(ctx context.Context) (map[repository.WordClusterKey]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ce.word, c.title, COUNT(q.id)
		FROM cluster_entries ce
		JOIN clusters c ON c.id = ce.cluster_id
		LEFT JOIN word_progress wp ON wp.word = ce.word AND wp.cluster_title = c.title
		LEFT JOIN questions q ON q.target_word = ce.word AND q.cluster_title = c.title AND q.answered_at IS NULL
		WHERE (wp.archived IS NULL OR wp.archived = 0)
		  AND c.id IN (SELECT cluster_id FROM cluster_entries GROUP BY cluster_id HAVING COUNT(*) >= 4)
		GROUP BY ce.word, c.title
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: word cluster question counts: %v", repository.ErrStorageFailure, err)
	}
	defer rows.Close()

	counts := make(map[repository.WordClusterKey]int)
	for rows.Next() {
		var key repository.WordClusterKey
		var count int
		if err := rows.Scan(&key.Word, &key.ClusterTitle, &count); err != nil {
			return nil, fmt.Errorf("%w: word cluster question counts: %v", repository.ErrStorageFailure, err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: word cluster question counts: %v", repository.ErrStorageFailure, err)
	}
	return counts, nil
}

func (r *QuestionRepository) GetWordClustersNeedingQuestions(ctx context.Context) ([]repository.WordClusterKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT wp.word, wp.cluster_title
		FROM word_progress wp
		LEFT JOIN questions q ON q.target_word = wp.word AND q.cluster_title = wp.cluster_title AND q.answered_at IS NULL
		WHERE wp.archived = 0
		GROUP BY wp.word, wp.cluster_title
		HAVING COUNT(q.id) = 0
		ORDER BY wp.next_review ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: word clusters needing questions: %v", repository.ErrStorageFailure, err)
	}
	defer rows.Close()
	return scanKeys(rows)
}

func (r *QuestionRepository) GetNewWordClustersWithoutQuestions(ctx context.Context, limit int) ([]repository.WordClusterKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ce.word, c.title
		FROM cluster_entries ce
		JOIN clusters c ON c.id = ce.cluster_id
		LEFT JOIN word_progress wp ON wp.word = ce.word AND wp.cluster_title = c.title
		LEFT JOIN questions q ON q.target_word = ce.word AND q.cluster_title = c.title AND q.answered_at IS NULL
		WHERE wp.word IS NULL
		  AND c.id IN (SELECT cluster_id FROM cluster_entries GROUP BY cluster_id HAVING COUNT(*) >= 4)
		GROUP BY ce.word, c.title
		HAVING COUNT(q.id) = 0
		ORDER BY RANDOM()
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: new word clusters without questions: %v", repository.ErrStorageFailure, err)
	}
	defer rows.Close()
	return scanKeys(rows)
}

const questionColumns = `
	q.id, q.question_type, q.target_word, q.cluster_title, q.stem, q.choices, q.correct_index,
	q.explanation, q.context_sentence, q.choice_details, q.generated_at, q.source_backend,
	q.answered_at, q.chosen_index, q.was_correct, q.response_time_ms, q.session_id
`

func scanQuestions(rows *sql.Rows) ([]question.Question, error) {
	var out []question.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan questions: %v", repository.ErrStorageFailure, err)
	}
	return out, nil
}

func scanQuestion(rows *sql.Rows) (question.Question, error) {
	var q question.Question
	var questionType string
	var choices, details string
	var answeredAt sql.NullTime
	var chosenIndex sql.NullInt64
	var wasCorrect sql.NullInt64
	var responseMs sql.NullInt64
	var sessionID sql.NullString

	err := rows.Scan(&q.ID, &questionType, &q.TargetWord, &q.ClusterTitle, &q.Stem, &choices, &q.CorrectIndex,
		&q.Explanation, &q.ContextSentence, &details, &q.GeneratedAt, &q.SourceBackend,
		&answeredAt, &chosenIndex, &wasCorrect, &responseMs, &sessionID)
	if err != nil {
		return question.Question{}, fmt.Errorf("%w: scan question: %v", repository.ErrStorageFailure, err)
	}

	q.QuestionType = question.Type(questionType)
	if err := json.Unmarshal([]byte(choices), &q.Choices); err != nil {
		return question.Question{}, fmt.Errorf("%w: unmarshal choices: %v", repository.ErrStorageFailure, err)
	}
	if err := json.Unmarshal([]byte(details), &q.ChoiceDetails); err != nil {
		return question.Question{}, fmt.Errorf("%w: unmarshal choice details: %v", repository.ErrStorageFailure, err)
	}
	if answeredAt.Valid {
		q.AnsweredAt = &answeredAt.Time
	}
	if chosenIndex.Valid {
		v := int(chosenIndex.Int64)
		q.ChosenIndex = &v
	}
	if wasCorrect.Valid {
		v := wasCorrect.Int64 != 0
		q.WasCorrect = &v
	}
	if responseMs.Valid {
		q.ResponseTimeMs = &responseMs.Int64
	}
	if sessionID.Valid {
		q.SessionID = &sessionID.String
	}
	return q, nil
}

func scanKeys(rows *sql.Rows) ([]repository.WordClusterKey, error) {
	var out []repository.WordClusterKey
	for rows.Next() {
		var key repository.WordClusterKey
		if err := rows.Scan(&key.Word, &key.ClusterTitle); err != nil {
			return nil, fmt.Errorf("%w: scan word cluster key: %v", repository.ErrStorageFailure, err)
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan word cluster keys: %v", repository.ErrStorageFailure, err)
	}
	return out, nil
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return boolToInt(*b)
}
