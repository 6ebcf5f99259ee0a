package cabinet

import (
	"time"

	"github.com/safemeds/safemeds/internal/domain/analysis"
)

// ID tipe untuk cabinet entries
type EntryID string

// Entry represents a medication the user keeps in their cabinet, captured
// from a completed analysis
type Entry struct {
	ID               EntryID               `json:"id"`
	ProfileID        string                `json:"profile_id"`
	DrugName         string                `json:"drugName"`
	ActiveIngredient string                `json:"activeIngredient"`
	Status           analysis.SafetyStatus `json:"status"`
	Headline         string                `json:"headline,omitempty"`
	// ExpiryDate is user-set (YYYY-MM-DD); never derived
	ExpiryDate string    `json:"expiry_date,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}
