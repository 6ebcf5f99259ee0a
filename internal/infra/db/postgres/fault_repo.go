package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/safemeds/safemeds/internal/domain/faults"
)

type FaultRepository struct{ db *sql.DB }

func NewFaultRepository(db *sql.DB) *FaultRepository { return &FaultRepository{db: db} }

func (r *FaultRepository) Save(ctx context.Context, f *domain.Fault) error {
	const q = `
INSERT INTO analysis_faults
  (profile_id, analysis_id, stage, input, message, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`

	msg := f.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		stringOrDash(f.ProfileID), f.AnalysisID, stringOrDash(f.Stage), f.Input, msg, created,
	)
	return err
}

func (r *FaultRepository) ListByProfile(ctx context.Context, profileID string, limit int) ([]*domain.Fault, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, profile_id, analysis_id, stage, input, message, created_at
FROM analysis_faults
WHERE profile_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, profileID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Fault
	for rows.Next() {
		var f domain.Fault
		if err := rows.Scan(&f.ID, &f.ProfileID, &f.AnalysisID, &f.Stage, &f.Input, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
