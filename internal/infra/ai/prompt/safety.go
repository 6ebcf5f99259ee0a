package prompt

import (
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	domai "github.com/safemeds/safemeds/internal/domain/ai"
)

// SafetySchema constrains the reasoning response.
func SafetySchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"purpose": {
				Type:        jsonschema.String,
				Description: "What this drug treats",
			},
			"status": {
				Type:        jsonschema.String,
				Enum:        []string{"SAFE", "CAUTION", "DANGER", "UNKNOWN"},
				Description: "Safety verdict based on profile",
			},
			"headline": {
				Type:        jsonschema.String,
				Description: "Short, punchy verdict (e.g., 'Do Not Take!', 'Safe')",
			},
			"reasoning": {
				Type:        jsonschema.String,
				Description: "Clinical explanation referencing specific profile matches",
			},
			"simpleExplanation": {
				Type:        jsonschema.String,
				Description: "A reassuring, jargon-free explanation (max 2 sentences) as if spoken by a friendly family doctor.",
			},
			"interactionScore": {
				Type:        jsonschema.Integer,
				Description: "Risk level 0-100, where 0 is safe and 100 is lethal.",
			},
			"sideEffects": {
				Type:        jsonschema.Array,
				Items:       &jsonschema.Definition{Type: jsonschema.String},
				Description: "Top 3 side effects",
			},
			"safeAlternatives": {
				Type:        jsonschema.Array,
				Items:       &jsonschema.Definition{Type: jsonschema.String},
				Description: "List 1-2 generic alternatives if verdict is DANGER/CAUTION. Empty if SAFE.",
			},
			"contraindicationsDetected": {
				Type:        jsonschema.Array,
				Items:       &jsonschema.Definition{Type: jsonschema.String},
				Description: "List of user conditions that conflict",
			},
		},
		Required: []string{"purpose", "status", "headline", "reasoning", "simpleExplanation", "sideEffects"},
	}
}

// SafetySystemPrompt provides strict directions for the safety verdict.
func SafetySystemPrompt() string {
	return "You are a specialized Medical Safety AI. Analyze medication safety for the specific user profile provided. Respond with one JSON object following the requested schema, nothing else. Never answer UNKNOWN; always commit to SAFE, CAUTION, or DANGER."
}

// SafetyUserPrompt assembles the reasoning request: identity, label data (or
// the fallback instruction), the health profile, and the ordered checklist.
func SafetyUserPrompt(req domai.SafetyRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "DRUG: %s (%s)\n", req.Identity.BrandName, req.Identity.ActiveIngredient)
	if req.Identity.Strength != "" {
		fmt.Fprintf(&b, "Strength: %s\n", req.Identity.Strength)
	}

	b.WriteString("\nOFFICIAL FDA LABEL DATA (Source of Truth for Risks):\n")
	if req.HasLabelData {
		b.WriteString(req.LabelSummary)
	} else {
		b.WriteString("No official FDA data found, rely on internal medical knowledge.")
	}

	b.WriteString("\n\nUSER PROFILE:\n")
	fmt.Fprintf(&b, "- Age: %d\n", req.Profile.Age)
	fmt.Fprintf(&b, "- Gender: %s\n", req.Profile.Gender)
	fmt.Fprintf(&b, "- Conditions: %s\n", strings.Join(req.Profile.Conditions, ", "))
	fmt.Fprintf(&b, "- Allergies: %s\n", strings.Join(req.Profile.Allergies, ", "))
	fmt.Fprintf(&b, "- Current Meds: %s\n", strings.Join(req.Profile.CurrentMeds, ", "))

	b.WriteString(`
INSTRUCTIONS:
1. Cross-reference User Conditions with FDA Contraindications.
2. Check for Drug-Drug interactions with Current Meds.
3. Check for Allergies.
4. Check for Age/Gender specific risks (e.g. pregnancy categories if applicable).
5. Verdict:
   - DANGER: Direct contraindication or allergy (e.g., NSAID + High BP/Kidney disease).
   - CAUTION: Potential interaction or age/gender warning.
   - SAFE: No known conflicts.
6. Interaction Score:
   - Calculate a risk score (0-100) that tracks the verdict severity. High BP + NSAID = ~75.
7. Alternatives Logic:
   - If Verdict is DANGER or CAUTION: Suggest 1-2 generic alternatives that are safer for this specific profile.
   - If Verdict is SAFE: Return an empty array.
8. Simple Explanation:
   - Write a "Explain Like a Doctor" version. Warm, personal, non-technical, distinct from the clinical reasoning.`)

	return b.String()
}
