package openfda

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/safemeds/safemeds/internal/domain/analysis"
	"github.com/safemeds/safemeds/internal/domain/labels"
)

const (
	defaultBaseURL = "https://api.fda.gov"
	// combined label text is capped before it goes into the reasoning prompt
	maxSummaryChars = 5000
	requestTimeout  = 10 * time.Second
)

type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// FetchSummary looks up the label record for a generic name and condenses the
// boxed warning, contraindications, and warnings sections. Best effort only:
// every failure mode degrades to an empty Summary.
func (c *Client) FetchSummary(ctx context.Context, genericName string) labels.Summary {
	if genericName == "" || genericName == analysis.UnknownIngredient {
		return labels.Summary{}
	}

	q := url.Values{}
	q.Set("search", `openfda.generic_name:"`+genericName+`"`)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/drug/label.json?"+q.Encode(), nil)
	if err != nil {
		return labels.Summary{}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return labels.Summary{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return labels.Summary{}
	}

	var body struct {
		Results []struct {
			BoxedWarning      []string `json:"boxed_warning"`
			Contraindications []string `json:"contraindications"`
			Warnings          []string `json:"warnings"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return labels.Summary{}
	}
	if len(body.Results) == 0 {
		return labels.Summary{}
	}

	r := body.Results[0]
	text := buildSummary(r.BoxedWarning, r.Contraindications, r.Warnings)
	if text == "" {
		return labels.Summary{}
	}
	return labels.Summary{Text: text, Found: true}
}

// buildSummary joins the three key safety sections in fixed order. Missing
// sections are omitted entirely, not replaced by blanks.
func buildSummary(boxed, contraindications, warnings []string) string {
	var sections []string
	if len(boxed) > 0 {
		sections = append(sections, "BOXED WARNING: "+strings.Join(boxed, " "))
	}
	if len(contraindications) > 0 {
		sections = append(sections, "CONTRAINDICATIONS: "+strings.Join(contraindications, " "))
	}
	if len(warnings) > 0 {
		sections = append(sections, "WARNINGS: "+strings.Join(warnings, " "))
	}
	return truncate(strings.Join(sections, "\n\n"), maxSummaryChars)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
