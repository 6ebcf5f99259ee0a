package analysis

import "context"

// StatusCounts value object for history rollups
type StatusCounts struct {
	Safe    int `json:"safe"`
	Caution int `json:"caution"`
	Danger  int `json:"danger"`
	Unknown int `json:"unknown"`
	Total   int `json:"total"`
}

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, a *DrugAnalysis) error
	Get(ctx context.Context, profileID string, id AnalysisID) (*DrugAnalysis, error)
	Latest(ctx context.Context, profileID string, limit int) ([]*DrugAnalysis, error)
	Paginate(ctx context.Context, profileID string, page, pageSize int) (PaginatedResult, error)
	// Trim deletes everything beyond the newest keep entries for a profile
	Trim(ctx context.Context, profileID string, keep int) error
	Summary(ctx context.Context, profileID string, sinceDays int) (StatusCounts, error)
}

// ImageStore port (interface untuk penyimpanan foto scan)
type ImageStore interface {
	UploadImage(ctx context.Context, data []byte, mimeType, key string) (string, error)
}
