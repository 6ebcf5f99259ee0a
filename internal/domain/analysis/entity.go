package analysis

// ID tipe untuk DrugAnalysis
type AnalysisID string

// SafetyStatus enum
type SafetyStatus string

const (
	StatusSafe    SafetyStatus = "SAFE"
	StatusCaution SafetyStatus = "CAUTION"
	StatusDanger  SafetyStatus = "DANGER"
	StatusUnknown SafetyStatus = "UNKNOWN"
)

// Conclusive reports whether the status came out of a completed safety
// assessment. UNKNOWN is reserved for pipeline failure.
func (s SafetyStatus) Conclusive() bool {
	return s == StatusSafe || s == StatusCaution || s == StatusDanger
}

// UnknownIngredient is the sentinel the identification stage uses when the
// packaging is illegible. It short-circuits the rest of the pipeline.
const UnknownIngredient = "Unknown"

// DrugIdentity value object produced by the identification stage
type DrugIdentity struct {
	BrandName        string `json:"brandName"`
	ActiveIngredient string `json:"activeIngredient"`
	Strength         string `json:"strength,omitempty"`
}

// Unresolved reports whether identification failed to produce an ingredient.
func (d DrugIdentity) Unresolved() bool {
	return d.ActiveIngredient == "" || d.ActiveIngredient == UnknownIngredient
}

// Aggregate Root: DrugAnalysis, the immutable result of one pipeline run
type DrugAnalysis struct {
	ID                        AnalysisID   `json:"id"`
	ProfileID                 string       `json:"profile_id"`
	DrugName                  string       `json:"drugName"`
	ActiveIngredient          string       `json:"activeIngredient"`
	Strength                  string       `json:"strength,omitempty"`
	Purpose                   string       `json:"purpose"`
	Status                    SafetyStatus `json:"status"`
	Headline                  string       `json:"headline"`
	Reasoning                 string       `json:"reasoning"`
	SimpleExplanation         string       `json:"simpleExplanation,omitempty"`
	InteractionScore          int          `json:"interactionScore"`
	SideEffects               []string     `json:"sideEffects"`
	SafeAlternatives          []string     `json:"safeAlternatives"`
	ContraindicationsDetected []string     `json:"contraindicationsDetected"`
	Timestamp                 int64        `json:"timestamp"` // epoch millis
	FDASource                 bool         `json:"fdaSource"`
	ImageURL                  string       `json:"image_url,omitempty"`
}
