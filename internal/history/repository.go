package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/beacon/pkg/query"
	"github.com/JaimeStill/beacon/pkg/repository"
)

// Store reads and updates lead predictions.
type Store interface {
	// List returns every record, most recently predicted first.
	List(ctx context.Context) ([]Record, error)
	Find(ctx context.Context, leadName string) (*Record, error)
	// UpdateScore writes a rescore result to the record keyed by leadName
	// and returns the stored row.
	UpdateScore(ctx context.Context, leadName string, u ScoreUpdate) (*Record, error)
}

type store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a PostgreSQL-backed Store over the lead_predictions table.
func NewStore(db *sql.DB, logger *slog.Logger) Store {
	return &store{
		db:     db,
		logger: logger.With("system", "history.store"),
	}
}

func (s *store) List(ctx context.Context) ([]Record, error) {
	q, args := query.NewBuilder(projection, defaultSort).Build()

	records, err := repository.QueryMany(ctx, s.db, q, args, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	return records, nil
}

func (s *store) Find(ctx context.Context, leadName string) (*Record, error) {
	r, err := findRecord(ctx, s.db, leadName)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound)
	}
	return &r, nil
}

func findRecord(ctx context.Context, q repository.Querier, leadName string) (Record, error) {
	stmt, args := query.NewBuilder(projection).BuildSingle(string(ColumnLeadName), leadName)
	return repository.QueryOne(ctx, q, stmt, args, scanRecord)
}

func (s *store) UpdateScore(ctx context.Context, leadName string, u ScoreUpdate) (*Record, error) {
	q := `
		UPDATE lead_predictions
		SET lead_score = $1,
			classification = $2,
			gpt_summary = COALESCE(NULLIF($3, ''), gpt_summary),
			predicted_at = $4
		WHERE lead_name = $5`

	r, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Record, error) {
		if err := repository.ExecExpectOne(
			ctx, tx, q,
			u.LeadScore, u.Classification, u.GPTSummary, u.PredictedAt, leadName,
		); err != nil {
			return Record{}, err
		}
		return findRecord(ctx, tx, leadName)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound)
	}

	s.logger.Info("prediction rescored", "lead_name", leadName, "lead_score", u.LeadScore)
	return &r, nil
}
