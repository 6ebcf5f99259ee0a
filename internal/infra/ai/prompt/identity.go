package prompt

import (
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// IdentitySchema constrains the identification response to the drug identity
// shape. brandName and activeIngredient are required; strength only appears
// when visible on the packaging.
func IdentitySchema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"brandName": {
				Type:        jsonschema.String,
				Description: "Commercial name of the drug",
			},
			"activeIngredient": {
				Type:        jsonschema.String,
				Description: "Generic chemical name (e.g. Paracetamol, Ibuprofen)",
			},
			"strength": {
				Type:        jsonschema.String,
				Description: "Dosage strength if visible (e.g. 500mg)",
			},
		},
		Required: []string{"brandName", "activeIngredient"},
	}
}

// IdentifyTextPrompt builds the identification request for a typed query.
func IdentifyTextPrompt(query string) string {
	return fmt.Sprintf("Extract the brand name, active ingredient, and strength from this search query: %q. If it's just a generic name, use it for both.", query)
}

// IdentifyImagePrompt is the instruction paired with the package photo. The
// "Unknown" wording matters: it is the sentinel the pipeline short-circuits on.
func IdentifyImagePrompt() string {
	return "Identify the drug brand name and active ingredient strictly from the packaging. If illegible, mark as Unknown."
}
