package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	domain "github.com/safemeds/safemeds/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisColumns = `id, profile_id, drug_name, active_ingredient, strength, purpose, status,
       headline, reasoning, simple_explanation, interaction_score,
       side_effects, safe_alternatives, contraindications,
       analyzed_at, fda_source, image_url`

// Save insert/update DrugAnalysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.DrugAnalysis) error {
	const q = `
INSERT INTO drug_analyses
(id, profile_id, drug_name, active_ingredient, strength, purpose, status,
 headline, reasoning, simple_explanation, interaction_score,
 side_effects, safe_alternatives, contraindications,
 analyzed_at, fda_source, image_url)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 status=VALUES(status), headline=VALUES(headline), reasoning=VALUES(reasoning),
 simple_explanation=VALUES(simple_explanation), interaction_score=VALUES(interaction_score),
 side_effects=VALUES(side_effects), safe_alternatives=VALUES(safe_alternatives),
 contraindications=VALUES(contraindications), image_url=VALUES(image_url);
`
	// Ensure non-nullable fields have safe defaults
	profile := stringOrDash(a.ProfileID)
	status := stringOrDash(string(a.Status))
	analyzedAt := a.Timestamp
	if analyzedAt == 0 {
		analyzedAt = time.Now().UnixMilli()
	}

	_, err := r.db.ExecContext(ctx, q,
		a.ID, profile, a.DrugName, a.ActiveIngredient, a.Strength, a.Purpose, status,
		a.Headline, a.Reasoning, a.SimpleExplanation, a.InteractionScore,
		encodeList(a.SideEffects), encodeList(a.SafeAlternatives), encodeList(a.ContraindicationsDetected),
		analyzedAt, a.FDASource, a.ImageURL,
	)
	return err
}

// Get by ID + profile
func (r *AnalysisRepository) Get(ctx context.Context, profileID string, id domain.AnalysisID) (*domain.DrugAnalysis, error) {
	q := `SELECT ` + analysisColumns + `
FROM drug_analyses
WHERE profile_id=? AND id=? LIMIT 1;`
	return scanAnalysis(r.db.QueryRowContext(ctx, q, profileID, id))
}

// Latest analyses per profile, newest first
func (r *AnalysisRepository) Latest(ctx context.Context, profileID string, limit int) ([]*domain.DrugAnalysis, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + analysisColumns + `
FROM drug_analyses
WHERE profile_id=? ORDER BY analyzed_at DESC, id DESC LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, profileID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnalyses(rows)
}

// Paginate with offset + limit (classic pagination)
func (r *AnalysisRepository) Paginate(ctx context.Context, profileID string, page, pageSize int) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	q := `SELECT ` + analysisColumns + `
FROM drug_analyses
WHERE profile_id=?
ORDER BY analyzed_at DESC, id DESC
LIMIT ? OFFSET ?;`
	rows, err := r.db.QueryContext(ctx, q, profileID, pageSize, offset)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	list, err := collectAnalyses(rows)
	if err != nil {
		return domain.PaginatedResult{}, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM drug_analyses WHERE profile_id = ?", profileID).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}

	return domain.PaginatedResult{
		Data:       list,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// Trim keeps only the newest keep entries for a profile
func (r *AnalysisRepository) Trim(ctx context.Context, profileID string, keep int) error {
	if keep <= 0 {
		keep = 20
	}
	const q = `
DELETE FROM drug_analyses
WHERE profile_id = ?
  AND id NOT IN (
    SELECT id FROM (
      SELECT id FROM drug_analyses
      WHERE profile_id = ?
      ORDER BY analyzed_at DESC, id DESC
      LIMIT ?
    ) newest
  );`
	_, err := r.db.ExecContext(ctx, q, profileID, profileID, keep)
	return err
}

// Summary counts verdicts since N days
func (r *AnalysisRepository) Summary(ctx context.Context, profileID string, sinceDays int) (domain.StatusCounts, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays).UnixMilli()

	const q = `
SELECT COUNT(*),
       COALESCE(SUM(CASE WHEN status='SAFE' THEN 1 ELSE 0 END),0),
       COALESCE(SUM(CASE WHEN status='CAUTION' THEN 1 ELSE 0 END),0),
       COALESCE(SUM(CASE WHEN status='DANGER' THEN 1 ELSE 0 END),0),
       COALESCE(SUM(CASE WHEN status='UNKNOWN' THEN 1 ELSE 0 END),0)
FROM drug_analyses
WHERE profile_id=? AND analyzed_at >= ?;`
	var c domain.StatusCounts
	if err := r.db.QueryRowContext(ctx, q, profileID, cut).Scan(&c.Total, &c.Safe, &c.Caution, &c.Danger, &c.Unknown); err != nil {
		return domain.StatusCounts{}, err
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*domain.DrugAnalysis, error) {
	var a domain.DrugAnalysis
	var sideEffects, alternatives, contraindications string
	if err := row.Scan(
		&a.ID, &a.ProfileID, &a.DrugName, &a.ActiveIngredient, &a.Strength, &a.Purpose, &a.Status,
		&a.Headline, &a.Reasoning, &a.SimpleExplanation, &a.InteractionScore,
		&sideEffects, &alternatives, &contraindications,
		&a.Timestamp, &a.FDASource, &a.ImageURL,
	); err != nil {
		return nil, err
	}
	a.SideEffects = decodeList(sideEffects)
	a.SafeAlternatives = decodeList(alternatives)
	a.ContraindicationsDetected = decodeList(contraindications)
	return &a, nil
}

func collectAnalyses(rows *sql.Rows) ([]*domain.DrugAnalysis, error) {
	var out []*domain.DrugAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
