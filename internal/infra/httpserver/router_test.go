package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/safemeds/safemeds/internal/application/analysis"
	appcabinet "github.com/safemeds/safemeds/internal/application/cabinet"
	appprofiles "github.com/safemeds/safemeds/internal/application/profiles"
	domai "github.com/safemeds/safemeds/internal/domain/ai"
	domain "github.com/safemeds/safemeds/internal/domain/analysis"
	domcabinet "github.com/safemeds/safemeds/internal/domain/cabinet"
	domfaults "github.com/safemeds/safemeds/internal/domain/faults"
	"github.com/safemeds/safemeds/internal/domain/labels"
	domprofiles "github.com/safemeds/safemeds/internal/domain/profiles"
)

//
// ==== fakes ====
//

type stubAI struct {
	identity   domain.DrugIdentity
	assessment domai.SafetyAssessment
}

func (s *stubAI) IdentifyText(ctx context.Context, query string) (domain.DrugIdentity, error) {
	return s.identity, nil
}

func (s *stubAI) IdentifyImage(ctx context.Context, image []byte, mimeType string) (domain.DrugIdentity, error) {
	return s.identity, nil
}

func (s *stubAI) AssessSafety(ctx context.Context, req domai.SafetyRequest) (domai.SafetyAssessment, error) {
	return s.assessment, nil
}

type stubLabels struct{}

func (stubLabels) FetchSummary(ctx context.Context, genericName string) labels.Summary {
	return labels.Summary{}
}

type memAnalysisRepo struct {
	saved []*domain.DrugAnalysis
}

func (m *memAnalysisRepo) Save(ctx context.Context, a *domain.DrugAnalysis) error {
	m.saved = append(m.saved, a)
	return nil
}

func (m *memAnalysisRepo) Get(ctx context.Context, profileID string, id domain.AnalysisID) (*domain.DrugAnalysis, error) {
	for _, a := range m.saved {
		if a.ProfileID == profileID && a.ID == id {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAnalysisRepo) Latest(ctx context.Context, profileID string, limit int) ([]*domain.DrugAnalysis, error) {
	out := []*domain.DrugAnalysis{}
	for _, a := range m.saved {
		if a.ProfileID == profileID {
			out = append(out, a)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memAnalysisRepo) Paginate(ctx context.Context, profileID string, page, pageSize int) (domain.PaginatedResult, error) {
	return domain.PaginatedResult{Data: m.saved, Page: page, PageSize: pageSize, Total: int64(len(m.saved))}, nil
}

func (m *memAnalysisRepo) Trim(ctx context.Context, profileID string, keep int) error { return nil }

func (m *memAnalysisRepo) Summary(ctx context.Context, profileID string, sinceDays int) (domain.StatusCounts, error) {
	var c domain.StatusCounts
	for _, a := range m.saved {
		if a.ProfileID != profileID {
			continue
		}
		c.Total++
		if a.Status == domain.StatusCaution {
			c.Caution++
		}
	}
	return c, nil
}

type memProfileRepo struct {
	byID map[domprofiles.ProfileID]*domprofiles.HealthProfile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{byID: map[domprofiles.ProfileID]*domprofiles.HealthProfile{}}
}

func (m *memProfileRepo) Save(ctx context.Context, p *domprofiles.HealthProfile) error {
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memProfileRepo) Get(ctx context.Context, id domprofiles.ProfileID) (*domprofiles.HealthProfile, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *memProfileRepo) List(ctx context.Context) ([]*domprofiles.HealthProfile, error) {
	out := []*domprofiles.HealthProfile{}
	for _, p := range m.byID {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memProfileRepo) Delete(ctx context.Context, id domprofiles.ProfileID) error {
	if _, ok := m.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

type memCabinetRepo struct {
	entries []*domcabinet.Entry
}

func (m *memCabinetRepo) Save(ctx context.Context, e *domcabinet.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memCabinetRepo) List(ctx context.Context, profileID string) ([]*domcabinet.Entry, error) {
	out := []*domcabinet.Entry{}
	for _, e := range m.entries {
		if e.ProfileID == profileID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memCabinetRepo) Delete(ctx context.Context, profileID string, id domcabinet.EntryID) error {
	for i, e := range m.entries {
		if e.ProfileID == profileID && e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type stubClock struct{}

func (stubClock) Now() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

func newTestRouter(t *testing.T) (http.Handler, *memAnalysisRepo, *memProfileRepo) {
	t.Helper()

	ai := &stubAI{
		identity: domain.DrugIdentity{BrandName: "Aspirin", ActiveIngredient: "aspirin"},
		assessment: domai.SafetyAssessment{
			Purpose: "Pain relief", Status: domain.StatusCaution,
			Headline: "Use With Caution", Reasoning: "NSAID.", SimpleExplanation: "Careful with this one.",
			InteractionScore: 60,
		},
	}
	analysisRepo := &memAnalysisRepo{}
	analysisSvc := &appanalysis.Service{
		Repo:   analysisRepo,
		AI:     ai,
		Labels: stubLabels{},
		Clock:  stubClock{},
	}

	profileRepo := newMemProfileRepo()
	profileRepo.byID["p1"] = &domprofiles.HealthProfile{
		ID: "p1", Name: "Dewi", Relation: domprofiles.RelationMe, Age: 58, Gender: domprofiles.GenderFemale,
		Conditions: []string{"High Blood Pressure"},
	}
	profilesSvc := appprofiles.NewService(profileRepo, stubClock{})
	cabinetSvc := appcabinet.NewService(&memCabinetRepo{}, stubClock{})

	health := func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) }
	return NewRouter(analysisSvc, profilesSvc, cabinetSvc, health), analysisRepo, profileRepo
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

//
// ==== analyze ====
//

func TestAnalyzeTextEndpoint(t *testing.T) {
	h, repo, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/p1/analyze/text", map[string]string{"query": "aspirin"})

	require.Equal(t, http.StatusOK, rec.Code)
	var v domain.DrugAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, domain.StatusCaution, v.Status)
	assert.Equal(t, "Aspirin", v.DrugName)
	assert.Equal(t, "p1", v.ProfileID)

	// verdict landed in the timeline
	require.Len(t, repo.saved, 1)
	assert.Equal(t, v.ID, repo.saved[0].ID)
}

func TestAnalyzeTextUnknownProfile(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/nobody/analyze/text", map[string]string{"query": "aspirin"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzeTextValidation(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/p1/analyze/text", map[string]string{"query": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/bad**id/analyze/text", map[string]string{"query": "aspirin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeImageEndpoint(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/p1/analyze/image", map[string]string{
		"image":     "aGVsbG8=", // any decodable payload
		"mime_type": "image/png",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var v domain.DrugAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, "Aspirin", v.DrugName)
}

func TestAnalyzeImageEmptyPayload(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/p1/analyze/image", map[string]string{"image": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

//
// ==== history ====
//

func TestHistoryEndpoints(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/p1/analyze/text", map[string]string{"query": "aspirin"})
	require.Equal(t, http.StatusOK, rec.Code)
	var v domain.DrugAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	rec = doJSON(t, h, http.MethodGet, "/v1/p1/history/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []*domain.DrugAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = doJSON(t, h, http.MethodGet, "/v1/p1/history/"+string(v.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/v1/p1/history/missing-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/v1/p1/history?page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page domain.PaginatedResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Total)

	rec = doJSON(t, h, http.MethodGet, "/v1/p1/summary?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var counts domain.StatusCounts
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, 1, counts.Caution)
	assert.Equal(t, 1, counts.Total)
}

type failingAI struct{}

func (failingAI) IdentifyText(ctx context.Context, query string) (domain.DrugIdentity, error) {
	return domain.DrugIdentity{}, fmt.Errorf("model unavailable")
}

func (failingAI) IdentifyImage(ctx context.Context, image []byte, mimeType string) (domain.DrugIdentity, error) {
	return domain.DrugIdentity{}, fmt.Errorf("model unavailable")
}

func (failingAI) AssessSafety(ctx context.Context, req domai.SafetyRequest) (domai.SafetyAssessment, error) {
	return domai.SafetyAssessment{}, fmt.Errorf("model unavailable")
}

type memFaultRepo struct {
	saved []*domfaults.Fault
}

func (m *memFaultRepo) Save(ctx context.Context, f *domfaults.Fault) error {
	m.saved = append(m.saved, f)
	return nil
}

func (m *memFaultRepo) ListByProfile(ctx context.Context, profileID string, limit int) ([]*domfaults.Fault, error) {
	out := []*domfaults.Fault{}
	for _, f := range m.saved {
		if f.ProfileID == profileID {
			out = append(out, f)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestFaultsEndpoint(t *testing.T) {
	faultRepo := &memFaultRepo{}
	analysisSvc := &appanalysis.Service{
		Repo:   &memAnalysisRepo{},
		AI:     failingAI{},
		Labels: stubLabels{},
		Faults: faultRepo,
		Clock:  stubClock{},
	}

	profileRepo := newMemProfileRepo()
	profileRepo.byID["p1"] = &domprofiles.HealthProfile{
		ID: "p1", Name: "Dewi", Relation: domprofiles.RelationMe, Age: 58,
	}
	h := NewRouter(analysisSvc,
		appprofiles.NewService(profileRepo, stubClock{}),
		appcabinet.NewService(&memCabinetRepo{}, stubClock{}),
		func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })

	// a failing identification still answers 200 with a degraded verdict
	rec := doJSON(t, h, http.MethodPost, "/v1/p1/analyze/text", map[string]string{"query": "aspirin"})
	require.Equal(t, http.StatusOK, rec.Code)
	var v domain.DrugAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, domain.StatusUnknown, v.Status)

	// and leaves an audit record behind
	rec = doJSON(t, h, http.MethodGet, "/v1/p1/faults?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []*domfaults.Fault
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, domfaults.StageIdentify, list[0].Stage)
	assert.Equal(t, "aspirin", list[0].Input)
}

//
// ==== cabinet ====
//

func TestCabinetLifecycle(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/p1/cabinet", map[string]string{
		"drugName":         "Aspirin",
		"activeIngredient": "aspirin",
		"status":           "CAUTION",
		"expiry_date":      "2026-01-31",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var entry domcabinet.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "2026-01-31", entry.ExpiryDate)

	rec = doJSON(t, h, http.MethodGet, "/v1/p1/cabinet", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []*domcabinet.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)

	rec = doJSON(t, h, http.MethodDelete, "/v1/p1/cabinet/"+string(entry.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/v1/p1/cabinet", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Empty(t, entries)
}

func TestCabinetValidation(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/p1/cabinet", map[string]string{
		"drugName":    "Aspirin",
		"expiry_date": "31-01-2026",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/p1/cabinet", map[string]string{
		"activeIngredient": "aspirin",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

//
// ==== profiles ====
//

func TestProfileLifecycle(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/profiles", map[string]any{
		"name":     "Budi",
		"relation": "Parent",
		"age":      70,
		"gender":   "Male",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var p domprofiles.HealthProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.NotEmpty(t, p.ID)
	assert.NotNil(t, p.Conditions)

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/v1/profiles/%s", p.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPut, fmt.Sprintf("/v1/profiles/%s", p.ID), map[string]any{
		"name":       "Budi",
		"relation":   "Parent",
		"age":        71,
		"gender":     "Male",
		"conditions": []string{"Diabetes"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domprofiles.HealthProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 71, updated.Age)
	assert.Equal(t, []string{"Diabetes"}, updated.Conditions)

	rec = doJSON(t, h, http.MethodGet, "/v1/profiles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []*domprofiles.HealthProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2) // seeded p1 + Budi

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/v1/profiles/%s", p.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/v1/profiles/%s", p.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileValidation(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/profiles", map[string]any{
		"name": "X", "relation": "Cousin",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/profiles", map[string]any{
		"name": "X", "age": 200,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/profiles", map[string]any{
		"relation": "Me",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
