package labels

import "context"

// Summary is the condensed label text for one drug. The zero value means no
// authoritative data was available.
type Summary struct {
	Text  string `json:"text"`
	Found bool   `json:"found"`
}

// Source port for the drug label database. FetchSummary is strictly
// best-effort: lookup failures of any kind degrade to an empty Summary and
// must never propagate as errors.
type Source interface {
	FetchSummary(ctx context.Context, genericName string) Summary
}
