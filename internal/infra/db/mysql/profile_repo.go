package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/safemeds/safemeds/internal/domain/profiles"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Save insert/update HealthProfile record
func (r *ProfileRepository) Save(ctx context.Context, p *domain.HealthProfile) error {
	const q = `
INSERT INTO health_profiles
(id, name, relation, avatar, theme_color, age, gender,
 conditions, allergies, current_meds, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 name=VALUES(name), relation=VALUES(relation), avatar=VALUES(avatar),
 theme_color=VALUES(theme_color), age=VALUES(age), gender=VALUES(gender),
 conditions=VALUES(conditions), allergies=VALUES(allergies),
 current_meds=VALUES(current_meds), updated_at=VALUES(updated_at);
`
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
WHERE id=? LIMIT 1;`
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
	_, err := r.db.ExecContext(ctx, "DELETE FROM health_profiles WHERE id=?;", id)
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
