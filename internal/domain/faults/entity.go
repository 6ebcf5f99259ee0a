package faults

import "time"

// Stage names recorded on faults
const (
	StageIdentify = "identify"
	StageReason   = "reason"
)

// Fault represents a persisted pipeline stage failure. The caller still gets
// a degraded UNKNOWN verdict; this record exists for debugging.
type Fault struct {
	ID         int64     `json:"id"`
	ProfileID  string    `json:"profile_id"`
	AnalysisID string    `json:"analysis_id,omitempty"`
	Stage      string    `json:"stage"`
	Input      string    `json:"input,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
