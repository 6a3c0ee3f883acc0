package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/claim-assessor/internal/config"
	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/core/ports"
	"github.com/kirillkom/claim-assessor/internal/observability/metrics"
)

const defaultMaxBodyBytes = 2 << 20

type Router struct {
	assessor  ports.ClaimAssessor
	reader    ports.AssessmentReader
	catalog   ports.CatalogManager
	submitter ports.FNOLSubmitter
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger

	adminToken       string
	maxBodyBytes     int64
	rateLimitRPS     float64
	rateLimitBurst   int
	backpressureMax  int
	backpressureWait time.Duration
}

func NewRouter(
	cfg config.Config,
	assessor ports.ClaimAssessor,
	reader ports.AssessmentReader,
	catalog ports.CatalogManager,
) *Router {
	maxBody := cfg.APIMaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &Router{
		assessor:         assessor,
		reader:           reader,
		catalog:          catalog,
		logger:           slog.Default(),
		adminToken:       cfg.APIAdminToken,
		maxBodyBytes:     maxBody,
		rateLimitRPS:     cfg.APIRateLimitRPS,
		rateLimitBurst:   cfg.APIRateLimitBurst,
		backpressureMax:  cfg.APIBackpressureMax,
		backpressureWait: time.Duration(cfg.APIBackpressureWaitMS) * time.Millisecond,
	}
}

// WithSubmitter enables asynchronous submission through the worker queue.
func (rt *Router) WithSubmitter(submitter ports.FNOLSubmitter) *Router {
	rt.submitter = submitter
	return rt
}

func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) WithLogger(logger *slog.Logger) *Router {
	if logger != nil {
		rt.logger = logger
	}
	return rt
}

// Handler panics if the embedded openapi.yaml does not load.
func (rt *Router) Handler() http.Handler {
	contract, err := apiContract()
	if err != nil {
		panic(fmt.Sprintf("load api contract: %v", err))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /openapi.yaml", serveContract)
	mux.HandleFunc("POST /v1/assessments", rt.assess)
	mux.HandleFunc("GET /v1/assessments/{reference}", rt.getAssessment)
	mux.HandleFunc("GET /v1/catalog", rt.describeCatalog)
	mux.HandleFunc("POST /v1/catalog/reload", rt.reloadCatalog)
	if rt.submitter != nil {
		mux.HandleFunc("POST /v1/fnol", rt.submitFNOL)
	}
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = contractMiddleware(handler, contract, rt.maxBodyBytes)
	handler = backpressureMiddleware(handler, rt.backpressureMax, rt.backpressureWait)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	handler = accessLogMiddleware(rt.logger, handler)
	handler = requestIDMiddleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("claims-api", handler)
	}
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":          "ok",
		"catalog_version": rt.catalog.Describe().Version,
	})
}

func (rt *Router) assess(w http.ResponseWriter, r *http.Request) {
	fnol, ok := rt.decodeFNOL(w, r)
	if !ok {
		return
	}

	result, err := rt.assessor.Assess(r.Context(), fnol)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) submitFNOL(w http.ResponseWriter, r *http.Request) {
	fnol, ok := rt.decodeFNOL(w, r)
	if !ok {
		return
	}
	if err := rt.submitter.PublishFNOLSubmitted(r.Context(), fnol); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":   "queued",
		"claim_id": fnol.ClaimID,
	})
}

func (rt *Router) getAssessment(w http.ResponseWriter, r *http.Request) {
	reference := strings.TrimSpace(r.PathValue("reference"))
	if reference == "" {
		writeJSON(w, http.StatusBadRequest, errorBody(r, "claim reference is required"))
		return
	}

	result, err := rt.reader.GetByReference(r.Context(), reference)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) describeCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rt.catalog.Describe())
}

func (rt *Router) reloadCatalog(w http.ResponseWriter, r *http.Request) {
	if rt.adminToken != "" && !isAuthorizedBearerHeader(r.Header.Get("Authorization"), rt.adminToken) {
		writeJSON(w, http.StatusUnauthorized, errorBody(r, "unauthorized"))
		return
	}

	var req struct {
		Version string `json:"version"`
	}
	body := http.MaxBytesReader(w, r.Body, rt.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody(r, "invalid json"))
		return
	}
	if strings.TrimSpace(req.Version) == "" {
		req.Version = "latest"
	}

	info, err := rt.catalog.Reload(req.Version)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// decodeFNOL ignores unknown fields; FNOL producers add fields over time.
func (rt *Router) decodeFNOL(w http.ResponseWriter, r *http.Request) (domain.FNOL, bool) {
	var fnol domain.FNOL
	body := http.MaxBytesReader(w, r.Body, rt.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&fnol); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody(r, "request body too large"))
			return domain.FNOL{}, false
		}
		writeJSON(w, http.StatusBadRequest, errorBody(r, "invalid fnol json"))
		return domain.FNOL{}, false
	}
	return fnol, true
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.ErrorContext(r.Context(), "request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, errorBody(r, err.Error()))
}

func errorBody(r *http.Request, message string) map[string]string {
	body := map[string]string{"error": message}
	if id := requestIDFromContext(r.Context()); id != "" {
		body["request_id"] = id
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func isAuthorizedBearerHeader(headerValue, expectedToken string) bool {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" || expectedToken == "" {
		return false
	}
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(headerValue, bearerPrefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(headerValue, bearerPrefix))
	return token == expectedToken
}
