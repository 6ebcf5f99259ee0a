package analysis

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	domai "github.com/safemeds/safemeds/internal/domain/ai"
	domain "github.com/safemeds/safemeds/internal/domain/analysis"
	"github.com/safemeds/safemeds/internal/domain/faults"
	"github.com/safemeds/safemeds/internal/domain/labels"
	"github.com/safemeds/safemeds/internal/domain/profiles"
)

// historyLimit caps the per-profile scan timeline
const historyLimit = 20

// Clock abstraction supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// Service implements the analysis pipeline: identification, label lookup,
// safety reasoning. The pipeline never returns an error to its caller; every
// failure mode degrades to an UNKNOWN verdict.
// Service is designed to be used concurrently and is thread-safe: each
// invocation works on its own values, nothing is shared between requests.
type Service struct {
	Repo   domain.Repository
	AI     domai.Client
	Labels labels.Source
	Images domain.ImageStore // optional
	Faults faults.Repository // optional
	Clock  Clock
}

//
// ==== USE CASES ====
//

type AnalyzeTextCommand struct {
	ProfileID string
	Query     string
	Profile   profiles.HealthProfile
}

type AnalyzeImageCommand struct {
	ProfileID string
	Image     string // base64 payload, data-URL prefix allowed
	MimeType  string
	Profile   profiles.HealthProfile
}

// AnalyzeText runs the pipeline for a typed or spoken drug name.
func (s *Service) AnalyzeText(ctx context.Context, cmd AnalyzeTextCommand) *domain.DrugAnalysis {
	cmd.Profile.Normalize()

	identity, err := s.AI.IdentifyText(ctx, cmd.Query)
	if err != nil {
		s.recordFault(ctx, cmd.ProfileID, faults.StageIdentify, cmd.Query, err)
		return s.failedVerdict(cmd.ProfileID, cmd.Query, "Analysis Failed", "Could not process the text input.")
	}
	// Ambiguous queries fall back to the raw text for both fields
	if identity.BrandName == "" {
		identity.BrandName = cmd.Query
	}
	if identity.ActiveIngredient == "" {
		identity.ActiveIngredient = cmd.Query
	}

	verdict, err := s.assess(ctx, cmd.ProfileID, identity, cmd.Profile)
	if err != nil {
		s.recordFault(ctx, cmd.ProfileID, faults.StageReason, cmd.Query, err)
		return s.failedVerdict(cmd.ProfileID, cmd.Query, "Analysis Failed", "Could not process the text input.")
	}
	return verdict
}

// AnalyzeImage runs the pipeline for a photographed package. An unreadable
// image, or the "Unknown" ingredient sentinel from the vision stage, aborts
// with the retry-oriented failure card.
func (s *Service) AnalyzeImage(ctx context.Context, cmd AnalyzeImageCommand) *domain.DrugAnalysis {
	cmd.Profile.Normalize()

	raw, mimeType, err := DecodeImage(cmd.Image, cmd.MimeType)
	if err != nil {
		s.recordFault(ctx, cmd.ProfileID, faults.StageIdentify, "image", err)
		return s.scanFailedVerdict(cmd.ProfileID)
	}

	identity, err := s.AI.IdentifyImage(ctx, raw, mimeType)
	if err != nil {
		s.recordFault(ctx, cmd.ProfileID, faults.StageIdentify, "image", err)
		return s.scanFailedVerdict(cmd.ProfileID)
	}
	if identity.BrandName == "" {
		identity.BrandName = "Unknown Drug"
	}
	if identity.Unresolved() {
		return s.scanFailedVerdict(cmd.ProfileID)
	}

	verdict, err := s.assess(ctx, cmd.ProfileID, identity, cmd.Profile)
	if err != nil {
		s.recordFault(ctx, cmd.ProfileID, faults.StageReason, identity.ActiveIngredient, err)
		return s.scanFailedVerdict(cmd.ProfileID)
	}

	// keep the photo alongside the record, best effort
	if s.Images != nil {
		key := fmt.Sprintf("%s/%s%s", cmd.ProfileID, verdict.ID, extensionFor(mimeType))
		if url, uerr := s.Images.UploadImage(ctx, raw, mimeType, key); uerr == nil {
			verdict.ImageURL = url
		} else {
			log.Printf("image upload failed for profile=%s: %v", cmd.ProfileID, uerr)
		}
	}
	return verdict
}

// assess runs the label lookup plus the safety reasoning call and applies
// the defaulting rules to the engine's answer.
func (s *Service) assess(ctx context.Context, profileID string, identity domain.DrugIdentity, profile profiles.HealthProfile) (*domain.DrugAnalysis, error) {
	// best-effort enrichment; an empty summary is a valid outcome
	summary := s.Labels.FetchSummary(ctx, identity.ActiveIngredient)

	res, err := s.AI.AssessSafety(ctx, domai.SafetyRequest{
		Identity:     identity,
		LabelSummary: summary.Text,
		HasLabelData: summary.Found,
		Profile:      profile,
	})
	if err != nil {
		return nil, err
	}
	if !res.Status.Conclusive() {
		return nil, fmt.Errorf("assessment returned status %q", res.Status)
	}

	score := res.InteractionScore
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	alternatives := orEmpty(res.SafeAlternatives)
	if res.Status == domain.StatusSafe {
		alternatives = []string{}
	}

	return &domain.DrugAnalysis{
		ID:                        domain.AnalysisID(uuid.New().String()),
		ProfileID:                 profileID,
		DrugName:                  identity.BrandName,
		ActiveIngredient:          identity.ActiveIngredient,
		Strength:                  identity.Strength,
		Purpose:                   res.Purpose,
		Status:                    res.Status,
		Headline:                  res.Headline,
		Reasoning:                 res.Reasoning,
		SimpleExplanation:         res.SimpleExplanation,
		InteractionScore:          score,
		SideEffects:               orEmpty(res.SideEffects),
		SafeAlternatives:          alternatives,
		ContraindicationsDetected: orEmpty(res.ContraindicationsDetected),
		Timestamp:                 s.Clock.Now().UnixMilli(),
		FDASource:                 summary.Found,
	}, nil
}

// Record persists a verdict to the profile's timeline and trims it to the
// newest entries.
func (s *Service) Record(ctx context.Context, a *domain.DrugAnalysis) error {
	if err := s.Repo.Save(ctx, a); err != nil {
		return err
	}
	return s.Repo.Trim(ctx, a.ProfileID, historyLimit)
}

// Latest ambil N analisis terakhir
func (s *Service) Latest(ctx context.Context, profileID string, limit int) ([]*domain.DrugAnalysis, error) {
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}
	return s.Repo.Latest(ctx, profileID, limit)
}

// Get ambil 1 analisis by id
func (s *Service) Get(ctx context.Context, profileID string, id domain.AnalysisID) (*domain.DrugAnalysis, error) {
	return s.Repo.Get(ctx, profileID, id)
}

func (s *Service) Paginate(ctx context.Context, profileID string, page, pageSize int) (domain.PaginatedResult, error) {
	return s.Repo.Paginate(ctx, profileID, page, pageSize)
}

// Summary rekap verdict N hari terakhir
func (s *Service) Summary(ctx context.Context, profileID string, sinceDays int) (domain.StatusCounts, error) {
	return s.Repo.Summary(ctx, profileID, sinceDays)
}

// RecentFaults lists the newest recorded stage failures for a profile. Empty
// when fault persistence is not configured.
func (s *Service) RecentFaults(ctx context.Context, profileID string, limit int) ([]*faults.Fault, error) {
	if s.Faults == nil {
		return []*faults.Fault{}, nil
	}
	return s.Faults.ListByProfile(ctx, profileID, limit)
}

//
// ==== helpers ====
//

func (s *Service) failedVerdict(profileID, drugName, headline, reasoning string) *domain.DrugAnalysis {
	return &domain.DrugAnalysis{
		ID:                        domain.AnalysisID(uuid.New().String()),
		ProfileID:                 profileID,
		DrugName:                  drugName,
		ActiveIngredient:          domain.UnknownIngredient,
		Purpose:                   "N/A",
		Status:                    domain.StatusUnknown,
		Headline:                  headline,
		Reasoning:                 reasoning,
		SideEffects:               []string{},
		SafeAlternatives:          []string{},
		ContraindicationsDetected: []string{},
		Timestamp:                 s.Clock.Now().UnixMilli(),
	}
}

func (s *Service) scanFailedVerdict(profileID string) *domain.DrugAnalysis {
	return s.failedVerdict(profileID, "Scan Failed", "Could Not Identify",
		"Please try scanning again with better lighting and a clear view of the text.")
}

func (s *Service) recordFault(ctx context.Context, profileID, stage, input string, err error) {
	if s.Faults == nil {
		return
	}
	f := &faults.Fault{
		ProfileID: profileID,
		Stage:     stage,
		Input:     input,
		Message:   err.Error(),
		CreatedAt: s.Clock.Now(),
	}
	if serr := s.Faults.Save(ctx, f); serr != nil {
		log.Printf("fault save failed for profile=%s stage=%s: %v", profileID, stage, serr)
	}
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// DecodeImage strips an optional data-URL prefix and decodes the base64
// payload to raw bytes. The prefix's media type wins over the hint.
func DecodeImage(payload, mimeHint string) ([]byte, string, error) {
	mimeType := mimeHint
	data := strings.TrimSpace(payload)
	if strings.HasPrefix(data, "data:") {
		comma := strings.Index(data, ",")
		if comma < 0 {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		meta := data[len("data:"):comma]
		if semi := strings.Index(meta, ";"); semi >= 0 {
			meta = meta[:semi]
		}
		if meta != "" {
			mimeType = meta
		}
		data = data[comma+1:]
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", fmt.Errorf("decode image payload: %w", err)
	}
	if len(raw) == 0 {
		return nil, "", fmt.Errorf("empty image payload")
	}
	return raw, mimeType, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
