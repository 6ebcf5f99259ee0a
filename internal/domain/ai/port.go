package ai

import (
	"context"

	"github.com/safemeds/safemeds/internal/domain/analysis"
	"github.com/safemeds/safemeds/internal/domain/profiles"
)

// SafetyRequest bundles everything the reasoning engine needs for one verdict.
type SafetyRequest struct {
	Identity     analysis.DrugIdentity
	LabelSummary string
	HasLabelData bool
	Profile      profiles.HealthProfile
}

// SafetyAssessment is the engine's raw answer. The application layer applies
// the defaulting rules before it becomes a DrugAnalysis.
type SafetyAssessment struct {
	Purpose                   string
	Status                    analysis.SafetyStatus
	Headline                  string
	Reasoning                 string
	SimpleExplanation         string
	InteractionScore          int
	SideEffects               []string
	SafeAlternatives          []string
	ContraindicationsDetected []string
}

type Client interface {
	IdentifyText(ctx context.Context, query string) (analysis.DrugIdentity, error)
	IdentifyImage(ctx context.Context, image []byte, mimeType string) (analysis.DrugIdentity, error)
	AssessSafety(ctx context.Context, req SafetyRequest) (SafetyAssessment, error)
}
