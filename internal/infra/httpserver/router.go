package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/safemeds/safemeds/internal/application/analysis"
	appcabinet "github.com/safemeds/safemeds/internal/application/cabinet"
	appprofiles "github.com/safemeds/safemeds/internal/application/profiles"
	domai "github.com/safemeds/safemeds/internal/domain/ai"
	domain "github.com/safemeds/safemeds/internal/domain/analysis"
	domcabinet "github.com/safemeds/safemeds/internal/domain/cabinet"
	domprofiles "github.com/safemeds/safemeds/internal/domain/profiles"
	"github.com/safemeds/safemeds/internal/middleware"
)

type Router struct {
	analysisSvc *appanalysis.Service
	profilesSvc *appprofiles.Service
	cabinetSvc  *appcabinet.Service
}

func NewRouter(analysisSvc *appanalysis.Service, profilesSvc *appprofiles.Service, cabinetSvc *appcabinet.Service, health http.HandlerFunc) http.Handler {
	r := &Router{analysisSvc: analysisSvc, profilesSvc: profilesSvc, cabinetSvc: cabinetSvc}
	mux := chi.NewRouter()

	mux.Get("/health", health)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/profiles", func(rt chi.Router) {
		rt.Post("/", r.wrap(r.handleProfileCreate))
		rt.Get("/", r.wrap(r.handleProfileList))
		rt.Get("/{id}", r.wrap(r.handleProfileGet))
		rt.Put("/{id}", r.wrap(r.handleProfileUpdate))
		rt.Delete("/{id}", r.wrap(r.handleProfileDelete))
	})

	mux.Route("/v1/{profile}", func(rt chi.Router) {
		rt.Post("/analyze/text", r.wrap(r.handleAnalyzeText))
		rt.Post("/analyze/image", r.wrap(r.handleAnalyzeImage))
		rt.Get("/history/latest", r.wrap(r.handleHistoryLatest))
		rt.Get("/history", r.wrap(r.handleHistoryPage))
		rt.Get("/history/{id}", r.wrap(r.handleHistoryGet))
		rt.Get("/summary", r.wrap(r.handleSummary))
		rt.Get("/faults", r.wrap(r.handleFaults))
		rt.Post("/cabinet", r.wrap(r.handleCabinetAdd))
		rt.Get("/cabinet", r.wrap(r.handleCabinetList))
		rt.Delete("/cabinet/{id}", r.wrap(r.handleCabinetDelete))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks an error as a client mistake
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var br badRequest
			if errors.As(err, &br) {
				http.Error(w, br.Error(), http.StatusBadRequest)
				return
			}
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, domai.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// loadProfile resolves the path's profile segment to a stored health profile.
func (r *Router) loadProfile(req *http.Request) (*domprofiles.HealthProfile, error) {
	id := chi.URLParam(req, "profile")
	if err := middleware.ValidateProfileID(id); err != nil {
		return nil, badRequest{err}
	}
	return r.profilesSvc.Get(req.Context(), domprofiles.ProfileID(id))
}

// POST /v1/{profile}/analyze/text
// Body: {"query": "aspirin 500mg"}
func (r *Router) handleAnalyzeText(w http.ResponseWriter, req *http.Request) error {
	profile, err := r.loadProfile(req)
	if err != nil {
		return err
	}

	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest{err}
	}
	if err := middleware.ValidateQuery(body.Query); err != nil {
		return badRequest{err}
	}

	verdict := r.analysisSvc.AnalyzeText(req.Context(), appanalysis.AnalyzeTextCommand{
		ProfileID: string(profile.ID),
		Query:     body.Query,
		Profile:   *profile,
	})
	r.record(req, verdict)
	return writeJSON(w, verdict)
}

// POST /v1/{profile}/analyze/image
// Body: {"image": "<base64 or data URL>", "mime_type": "image/jpeg"}
func (r *Router) handleAnalyzeImage(w http.ResponseWriter, req *http.Request) error {
	profile, err := r.loadProfile(req)
	if err != nil {
		return err
	}

	var body struct {
		Image    string `json:"image"`
		MimeType string `json:"mime_type"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest{err}
	}
	if err := middleware.ValidateImagePayload(body.Image); err != nil {
		return badRequest{err}
	}

	verdict := r.analysisSvc.AnalyzeImage(req.Context(), appanalysis.AnalyzeImageCommand{
		ProfileID: string(profile.ID),
		Image:     body.Image,
		MimeType:  body.MimeType,
		Profile:   *profile,
	})
	r.record(req, verdict)
	return writeJSON(w, verdict)
}

// record persists the verdict to the timeline. The verdict still goes back to
// the client when persistence fails; the user needs the answer either way.
func (r *Router) record(req *http.Request, verdict *domain.DrugAnalysis) {
	middleware.IncrementAnalyses()
	if verdict.Status == domain.StatusUnknown {
		middleware.IncrementAnalysesUnknown()
	}
	if err := r.analysisSvc.Record(req.Context(), verdict); err != nil {
		log.Printf("record verdict failed for profile=%s: %v", verdict.ProfileID, err)
	}
}

// GET /v1/{profile}/history/latest?limit=20
func (r *Router) handleHistoryLatest(w http.ResponseWriter, req *http.Request) error {
	profile := chi.URLParam(req, "profile")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.analysisSvc.Latest(req.Context(), profile, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// GET /v1/{profile}/history?page=&page_size=
func (r *Router) handleHistoryPage(w http.ResponseWriter, req *http.Request) error {
	profile := chi.URLParam(req, "profile")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	result, err := r.analysisSvc.Paginate(req.Context(), profile, page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, result)
}

// GET /v1/{profile}/history/{id}
func (r *Router) handleHistoryGet(w http.ResponseWriter, req *http.Request) error {
	profile := chi.URLParam(req, "profile")
	id := chi.URLParam(req, "id")

	verdict, err := r.analysisSvc.Get(req.Context(), profile, domain.AnalysisID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, verdict)
}

// GET /v1/{profile}/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	profile := chi.URLParam(req, "profile")
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))

	summary, err := r.analysisSvc.Summary(req.Context(), profile, days)
	if err != nil {
		return err
	}
	return writeJSON(w, summary)
}

// GET /v1/{profile}/faults?limit=20
// Debug view of recorded pipeline stage failures.
func (r *Router) handleFaults(w http.ResponseWriter, req *http.Request) error {
	profile := chi.URLParam(req, "profile")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.analysisSvc.RecentFaults(req.Context(), profile, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// POST /v1/{profile}/cabinet
func (r *Router) handleCabinetAdd(w http.ResponseWriter, req *http.Request) error {
	profile := chi.URLParam(req, "profile")

	var body struct {
		DrugName         string `json:"drugName"`
		ActiveIngredient string `json:"activeIngredient"`
		Status           string `json:"status"`
		Headline         string `json:"headline"`
		ExpiryDate       string `json:"expiry_date"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest{err}
	}
	if err := middleware.ValidateExpiryDate(body.ExpiryDate); err != nil {
		return badRequest{err}
	}

	entry, err := r.cabinetSvc.Add(req.Context(), &domcabinet.Entry{
		ProfileID:        profile,
		DrugName:         body.DrugName,
		ActiveIngredient: body.ActiveIngredient,
		Status:           domain.SafetyStatus(body.Status),
		Headline:         body.Headline,
		ExpiryDate:       body.ExpiryDate,
	})
	if err != nil {
		return badRequest{err}
	}
	return writeJSON(w, entry)
}

// GET /v1/{profile}/cabinet
func (r *Router) handleCabinetList(w http.ResponseWriter, req *http.Request) error {
	profile := chi.URLParam(req, "profile")

	list, err := r.cabinetSvc.List(req.Context(), profile)
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// DELETE /v1/{profile}/cabinet/{id}
func (r *Router) handleCabinetDelete(w http.ResponseWriter, req *http.Request) error {
	profile := chi.URLParam(req, "profile")
	id := chi.URLParam(req, "id")

	if err := r.cabinetSvc.Remove(req.Context(), profile, domcabinet.EntryID(id)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/profiles
func (r *Router) handleProfileCreate(w http.ResponseWriter, req *http.Request) error {
	p, err := decodeProfile(req)
	if err != nil {
		return err
	}
	created, err := r.profilesSvc.Create(req.Context(), p)
	if err != nil {
		return badRequest{err}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(created)
}

// GET /v1/profiles
func (r *Router) handleProfileList(w http.ResponseWriter, req *http.Request) error {
	list, err := r.profilesSvc.List(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// GET /v1/profiles/{id}
func (r *Router) handleProfileGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	p, err := r.profilesSvc.Get(req.Context(), domprofiles.ProfileID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, p)
}

// PUT /v1/profiles/{id}
func (r *Router) handleProfileUpdate(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	p, err := decodeProfile(req)
	if err != nil {
		return err
	}
	p.ID = domprofiles.ProfileID(id)
	updated, err := r.profilesSvc.Update(req.Context(), p)
	if err != nil {
		return err
	}
	return writeJSON(w, updated)
}

// DELETE /v1/profiles/{id}
func (r *Router) handleProfileDelete(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	if err := r.profilesSvc.Delete(req.Context(), domprofiles.ProfileID(id)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func decodeProfile(req *http.Request) (*domprofiles.HealthProfile, error) {
	var p domprofiles.HealthProfile
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		return nil, badRequest{err}
	}
	if p.Relation == "" {
		p.Relation = domprofiles.RelationMe
	}
	if err := middleware.ValidateRelation(p.Relation); err != nil {
		return nil, badRequest{err}
	}
	if p.Gender != "" {
		if err := middleware.ValidateGender(p.Gender); err != nil {
			return nil, badRequest{err}
		}
	}
	if err := middleware.ValidateAge(p.Age); err != nil {
		return nil, badRequest{err}
	}
	return &p, nil
}
