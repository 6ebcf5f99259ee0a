package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/safemeds/safemeds/internal/domain/cabinet"
)

type CabinetRepository struct{ db *sql.DB }

func NewCabinetRepository(db *sql.DB) *CabinetRepository { return &CabinetRepository{db: db} }

func (r *CabinetRepository) Save(ctx context.Context, e *domain.Entry) error {
	const q = `
INSERT INTO cabinet_entries
(id, profile_id, drug_name, active_ingredient, status, headline, expiry_date, added_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 headline = EXCLUDED.headline,
 expiry_date = EXCLUDED.expiry_date;`

	added := e.AddedAt
	if added.IsZero() {
		added = time.Now()
	}
	var expiry any
	if e.ExpiryDate != "" {
		expiry = e.ExpiryDate
	}
	_, err := r.db.ExecContext(ctx, q,
		e.ID, stringOrDash(e.ProfileID), stringOrDash(e.DrugName), e.ActiveIngredient,
		stringOrDash(string(e.Status)), e.Headline, expiry, added,
	)
	return err
}

func (r *CabinetRepository) List(ctx context.Context, profileID string) ([]*domain.Entry, error) {
	const q = `
SELECT id, profile_id, drug_name, active_ingredient, status, headline, expiry_date, added_at
FROM cabinet_entries
WHERE profile_id=$1
ORDER BY added_at DESC, id DESC;`
	rows, err := r.db.QueryContext(ctx, q, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Entry
	for rows.Next() {
		var e domain.Entry
		var expiry sql.NullString
		if err := rows.Scan(&e.ID, &e.ProfileID, &e.DrugName, &e.ActiveIngredient, &e.Status, &e.Headline, &expiry, &e.AddedAt); err != nil {
			return nil, err
		}
		e.ExpiryDate = expiry.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *CabinetRepository) Delete(ctx context.Context, profileID string, id domain.EntryID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cabinet_entries WHERE profile_id=$1 AND id=$2;", profileID, id)
	return err
}
