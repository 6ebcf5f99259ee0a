package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	domai "github.com/safemeds/safemeds/internal/domain/ai"
	"github.com/safemeds/safemeds/internal/domain/analysis"
	"github.com/safemeds/safemeds/internal/infra/ai/prompt"
)

const (
	maxTokens = 2048
	// lowest-variance sampling keeps verdicts reproducible for the same
	// profile+drug pair
	safetyTemperature = 0.1
)

type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

func (c *Client) model() string {
	if c.Model == "" {
		return openai.GPT4oMini
	}
	return c.Model
}

// IdentifyText resolves a typed query to a drug identity.
func (c *Client) IdentifyText(ctx context.Context, query string) (analysis.DrugIdentity, error) {
	req := c.newRequest("drug_identity", prompt.IdentitySchema())
	req.Messages = []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt.IdentifyTextPrompt(query)},
	}

	var id identityPayload
	if err := c.complete(ctx, req, &id); err != nil {
		return analysis.DrugIdentity{}, fmt.Errorf("identify text: %w", err)
	}
	return id.toDomain(), nil
}

// IdentifyImage resolves a package photo to a drug identity. The image goes
// out as an inline data URL part next to the instruction text.
func (c *Client) IdentifyImage(ctx context.Context, image []byte, mimeType string) (analysis.DrugIdentity, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	req := c.newRequest("drug_identity", prompt.IdentitySchema())
	req.Messages = []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: dataURL, Detail: openai.ImageURLDetailAuto},
				},
				{
					Type: openai.ChatMessagePartTypeText,
					Text: prompt.IdentifyImagePrompt(),
				},
			},
		},
	}

	var id identityPayload
	if err := c.complete(ctx, req, &id); err != nil {
		return analysis.DrugIdentity{}, fmt.Errorf("identify image: %w", err)
	}
	return id.toDomain(), nil
}

// AssessSafety runs the reasoning call at minimum sampling variance.
func (c *Client) AssessSafety(ctx context.Context, sreq domai.SafetyRequest) (domai.SafetyAssessment, error) {
	req := c.newRequest("safety_verdict", prompt.SafetySchema())
	req.Temperature = safetyTemperature
	req.Messages = []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompt.SafetySystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: prompt.SafetyUserPrompt(sreq)},
	}

	var out safetyPayload
	if err := c.complete(ctx, req, &out); err != nil {
		return domai.SafetyAssessment{}, fmt.Errorf("assess safety: %w", err)
	}
	return out.toDomain(), nil
}

func (c *Client) newRequest(schemaName string, schema jsonschema.Definition) openai.ChatCompletionRequest {
	model := c.model()
	req := openai.ChatCompletionRequest{
		Model: model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: &schema,
			},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}
	return req
}

// complete executes the request and unmarshals the schema-constrained reply.
// The response is untrusted JSON; parse failures are hard failures for the
// stage that issued the call.
func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest, out any) error {
	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return domai.ErrQuotaExceeded
		}
		return fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("empty completion response")
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), out); err != nil {
		return fmt.Errorf("parse completion payload: %w", err)
	}
	return nil
}

// wire payloads

type identityPayload struct {
	BrandName        string `json:"brandName"`
	ActiveIngredient string `json:"activeIngredient"`
	Strength         string `json:"strength"`
}

func (p identityPayload) toDomain() analysis.DrugIdentity {
	return analysis.DrugIdentity{
		BrandName:        p.BrandName,
		ActiveIngredient: p.ActiveIngredient,
		Strength:         p.Strength,
	}
}

type safetyPayload struct {
	Purpose                   string   `json:"purpose"`
	Status                    string   `json:"status"`
	Headline                  string   `json:"headline"`
	Reasoning                 string   `json:"reasoning"`
	SimpleExplanation         string   `json:"simpleExplanation"`
	InteractionScore          int      `json:"interactionScore"`
	SideEffects               []string `json:"sideEffects"`
	SafeAlternatives          []string `json:"safeAlternatives"`
	ContraindicationsDetected []string `json:"contraindicationsDetected"`
}

func (p safetyPayload) toDomain() domai.SafetyAssessment {
	return domai.SafetyAssessment{
		Purpose:                   p.Purpose,
		Status:                    analysis.SafetyStatus(p.Status),
		Headline:                  p.Headline,
		Reasoning:                 p.Reasoning,
		SimpleExplanation:         p.SimpleExplanation,
		InteractionScore:          p.InteractionScore,
		SideEffects:               p.SideEffects,
		SafeAlternatives:          p.SafeAlternatives,
		ContraindicationsDetected: p.ContraindicationsDetected,
	}
}
