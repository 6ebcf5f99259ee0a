package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	domain "github.com/safemeds/safemeds/internal/domain/analysis"
)

type AnalysisRepository struct{ db *sql.DB }

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository { return &AnalysisRepository{db: db} }

const analysisColumns = `id, profile_id, drug_name, active_ingredient, strength, purpose, status,
       headline, reasoning, simple_explanation, interaction_score,
       side_effects, safe_alternatives, contraindications,
       analyzed_at, fda_source, image_url`

func (r *AnalysisRepository) Save(ctx context.Context, a *domain.DrugAnalysis) error {
	const q = `
INSERT INTO drug_analyses
(id, profile_id, drug_name, active_ingredient, strength, purpose, status,
 headline, reasoning, simple_explanation, interaction_score,
 side_effects, safe_alternatives, contraindications,
 analyzed_at, fda_source, image_url)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 headline = EXCLUDED.headline,
 reasoning = EXCLUDED.reasoning,
 simple_explanation = EXCLUDED.simple_explanation,
 interaction_score = EXCLUDED.interaction_score,
 side_effects = EXCLUDED.side_effects,
 safe_alternatives = EXCLUDED.safe_alternatives,
 contraindications = EXCLUDED.contraindications,
 image_url = EXCLUDED.image_url;`

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

func (r *AnalysisRepository) Get(ctx context.Context, profileID string, id domain.AnalysisID) (*domain.DrugAnalysis, error) {
	q := `SELECT ` + analysisColumns + `
FROM drug_analyses
WHERE profile_id=$1 AND id=$2
LIMIT 1;`
	return scanAnalysis(r.db.QueryRowContext(ctx, q, profileID, id))
}

func (r *AnalysisRepository) Latest(ctx context.Context, profileID string, limit int) ([]*domain.DrugAnalysis, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + analysisColumns + `
FROM drug_analyses
WHERE profile_id=$1 ORDER BY analyzed_at DESC, id DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, profileID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnalyses(rows)
}

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
WHERE profile_id=$1
ORDER BY analyzed_at DESC, id DESC
LIMIT $2 OFFSET $3;`
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
		"SELECT COUNT(*) FROM drug_analyses WHERE profile_id = $1", profileID).Scan(&total); err != nil {
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

func (r *AnalysisRepository) Trim(ctx context.Context, profileID string, keep int) error {
	if keep <= 0 {
		keep = 20
	}
	const q = `
DELETE FROM drug_analyses
WHERE profile_id = $1
  AND id NOT IN (
    SELECT id FROM drug_analyses
    WHERE profile_id = $1
    ORDER BY analyzed_at DESC, id DESC
    LIMIT $2
  );`
	_, err := r.db.ExecContext(ctx, q, profileID, keep)
	return err
}

func (r *AnalysisRepository) Summary(ctx context.Context, profileID string, sinceDays int) (domain.StatusCounts, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays).UnixMilli()

	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status='SAFE'),
       COUNT(*) FILTER (WHERE status='CAUTION'),
       COUNT(*) FILTER (WHERE status='DANGER'),
       COUNT(*) FILTER (WHERE status='UNKNOWN')
FROM drug_analyses
WHERE profile_id=$1 AND analyzed_at >= $2;`
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
