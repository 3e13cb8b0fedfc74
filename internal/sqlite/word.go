package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vocabtrainer/server/internal/domain/vocab"
	"github.com/vocabtrainer/server/internal/repository"
)

// WordRepository persists vocab.Word rows.
type WordRepository struct {
	db *DB
}

// NewWordRepository creates a new WordRepository.
func NewWordRepository(db *DB) *WordRepository {
	return &WordRepository{db: db}
}

func (r *WordRepository) Upsert(ctx context.Context, word vocab.Word) error {
	key := vocab.Normalize(word.Word)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO words (word, definition, section, source_file)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(word) DO UPDATE SET
			definition = excluded.definition,
			section = excluded.section,
			source_file = excluded.source_file
	`, key, word.Definition, word.Section, word.SourceFile)
	if err != nil {
		return fmt.Errorf("%w: upsert word: %v", repository.ErrStorageFailure, err)
	}
	return nil
}

func (r *WordRepository) Get(ctx context.Context, word string) (vocab.Word, error) {
	key := vocab.Normalize(word)
	var w vocab.Word
	err := r.db.QueryRowContext(ctx,
		`SELECT word, definition, section, source_file FROM words WHERE word = ?`, key,
	).Scan(&w.Word, &w.Definition, &w.Section, &w.SourceFile)
	if errors.Is(err, sql.ErrNoRows) {
		return vocab.Word{}, repository.ErrNotFound
	}
	if err != nil {
		return vocab.Word{}, fmt.Errorf("%w: get word: %v", repository.ErrStorageFailure, err)
	}
	return w, nil
}

func (r *WordRepository) List(ctx context.Context) ([]vocab.Word, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT word, definition, section, source_file FROM words ORDER BY word`)
	if err != nil {
		return nil, fmt.Errorf("%w: list words: %v", repository.ErrStorageFailure, err)
	}
	defer rows.Close()

	var out []vocab.Word
	for rows.Next() {
		var w vocab.Word
		if err := rows.Scan(&w.Word, &w.Definition, &w.Section, &w.SourceFile); err != nil {
			return nil, fmt.Errorf("%w: scan word: %v", repository.ErrStorageFailure, err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list words: %v", repository.ErrStorageFailure, err)
	}
	return out, nil
}
