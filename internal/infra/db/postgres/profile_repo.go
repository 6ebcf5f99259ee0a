package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/safemeds/safemeds/internal/domain/profiles"
)

type ProfileRepository struct{ db *sql.DB }

func NewProfileRepository(db *sql.DB) *ProfileRepository { return &ProfileRepository{db: db} }

func (r *ProfileRepository) Save(ctx context.Context, p *domain.HealthProfile) error {
	const q = `
INSERT INTO health_profiles
(id, name, relation, avatar, theme_color, age, gender,
 conditions, allergies, current_meds, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
 name = EXCLUDED.name,
 relation = EXCLUDED.relation,
 avatar = EXCLUDED.avatar,
 theme_color = EXCLUDED.theme_color,
 age = EXCLUDED.age,
 gender = EXCLUDED.gender,
 conditions = EXCLUDED.conditions,
 allergies = EXCLUDED.allergies,
 current_meds = EXCLUDED.current_meds,
 updated_at = EXCLUDED.updated_at;`

	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	_, err := r.db.ExecContext(ctx, q,
		p.ID, stringOrDash(p.Name), stringOrDash(p.Relation), p.Avatar, p.ThemeColor, p.Age, stringOrDash(p.Gender),
		encodeList(p.Conditions), encodeList(p.Allergies), encodeList(p.CurrentMeds),
		created, updated,
	)
	return err
}

func (r *ProfileRepository) Get(ctx context.Context, id domain.ProfileID) (*domain.HealthProfile, error) {
	const q = `
SELECT id, name, relation, avatar, theme_color, age, gender,
       conditions, allergies, current_meds, created_at, updated_at
FROM health_profiles
WHERE id=$1
LIMIT 1;`
	return scanProfile(r.db.QueryRowContext(ctx, q, id))
}

func (r *ProfileRepository) List(ctx context.Context) ([]*domain.HealthProfile, error) {
	const q = `
SELECT id, name, relation, avatar, theme_color, age, gender,
       conditions, allergies, current_meds, created_at, updated_at
FROM health_profiles
ORDER BY created_at ASC;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.HealthProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProfileRepository) Delete(ctx context.Context, id domain.ProfileID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM health_profiles WHERE id=$1;", id)
	return err
}

func scanProfile(row rowScanner) (*domain.HealthProfile, error) {
	var p domain.HealthProfile
	var conditions, allergies, meds string
	if err := row.Scan(
		&p.ID, &p.Name, &p.Relation, &p.Avatar, &p.ThemeColor, &p.Age, &p.Gender,
		&conditions, &allergies, &meds, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Conditions = decodeList(conditions)
	p.Allergies = decodeList(allergies)
	p.CurrentMeds = decodeList(meds)
	return &p, nil
}
