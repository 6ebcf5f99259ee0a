package profiles

import "time"

// ID tipe untuk HealthProfile
type ProfileID string

// Relation values
const (
	RelationMe      = "Me"
	RelationParent  = "Parent"
	RelationChild   = "Child"
	RelationPartner = "Partner"
	RelationOther   = "Other"
)

// Gender values
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Aggregate Root: HealthProfile, the personal context a verdict is scored
// against
type HealthProfile struct {
	ID          ProfileID `json:"id"`
	Name        string    `json:"name"`
	Relation    string    `json:"relation"`
	Avatar      string    `json:"avatar,omitempty"`
	ThemeColor  string    `json:"theme_color,omitempty"`
	Age         int       `json:"age"`
	Gender      string    `json:"gender"`
	Conditions  []string  `json:"conditions"`
	Allergies   []string  `json:"allergies"`
	CurrentMeds []string  `json:"currentMeds"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Normalize keeps the list fields non-nil. Callers and the reasoning prompt
// rely on empty slices, never null.
func (p *HealthProfile) Normalize() {
	if p.Conditions == nil {
		p.Conditions = []string{}
	}
	if p.Allergies == nil {
		p.Allergies = []string{}
	}
	if p.CurrentMeds == nil {
		p.CurrentMeds = []string{}
	}
}
