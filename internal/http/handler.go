package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/qasrlabs/propsight/internal/analysis"
	"github.com/qasrlabs/propsight/internal/credentials"
	"github.com/qasrlabs/propsight/internal/domain"
	"github.com/qasrlabs/propsight/internal/observability"
	"github.com/qasrlabs/propsight/internal/telemetry"
)

// envelope is the response shape for every endpoint: {success, data?, error?}.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler handles HTTP requests.
type Handler struct {
	service  *analysis.Service
	creds    *credentials.Manager
	recorder *telemetry.Recorder
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(
	service *analysis.Service,
	creds *credentials.Manager,
	recorder *telemetry.Recorder,
) *Handler {
	return &Handler{
		service:  service,
		creds:    creds,
		recorder: recorder,
	}
}

// HandleMarket processes market analysis requests.
func (h *Handler) HandleMarket(w http.ResponseWriter, r *http.Request) {
	var q analysis.MarketQuery
	if !decodeBody(w, r, &q) {
		return
	}
	report, err := h.service.MarketAnalysis(r.Context(), q)
	h.respond(w, r, report, err)
}

// HandleInvestment processes investment advice requests.
func (h *Handler) HandleInvestment(w http.ResponseWriter, r *http.Request) {
	var q analysis.InvestmentQuery
	if !decodeBody(w, r, &q) {
		return
	}
	report, err := h.service.InvestmentAdvice(r.Context(), q)
	h.respond(w, r, report, err)
}

// HandleTrends processes trend report requests.
func (h *Handler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	var q analysis.TrendQuery
	if !decodeBody(w, r, &q) {
		return
	}
	report, err := h.service.TrendReport(r.Context(), q)
	h.respond(w, r, report, err)
}

// HandleTranslate processes translation relay requests.
func (h *Handler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	var q analysis.TranslateQuery
	if !decodeBody(w, r, &q) {
		return
	}
	report, err := h.service.Translate(r.Context(), q)
	h.respond(w, r, report, err)
}

// keyRequest is the body of POST /v1/keys. The key is stored server-side
// and never included in any response.
type keyRequest struct {
	APIKey string `json:"apiKey"`
	OrgID  string `json:"orgId,omitempty"`
}

// HandleKeys configures the provider API key (POST) or reports rotation
// status (GET).
func (h *Handler) HandleKeys(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req keyRequest
		if !decodeBody(w, r, &req) {
			return
		}
		rotation, err := h.creds.Configure(r.Context(), req.APIKey, req.OrgID)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]any{
			"configured": true,
			"expiresAt":  rotation.ExpiresAt,
		}})
	case http.MethodGet:
		status, err := h.creds.Status(r.Context())
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: status})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Error: "method not allowed"})
	}
}

// HandleTelemetry returns the recent call outcomes for diagnostics.
func (h *Handler) HandleTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Error: "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: h.recorder.Snapshot()})
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// respond writes the report or maps the error onto the envelope contract.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, report *analysis.Report, err error) {
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: report})
}

// respondError maps a taxonomy error to an HTTP status. The client only
// ever sees the normalized message, never provider internals.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.FromContext(r.Context())

	var de *domain.Error
	if errors.As(err, &de) {
		logger.Warn("request failed",
			observability.String("kind", string(de.Kind)),
			observability.Error(de))
		writeJSON(w, domain.HTTPStatus(de.Kind), envelope{Success: false, Error: de.Message})
		return
	}

	logger.Error("request failed", observability.Error(err))
	writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Error: "internal error"})
}

// decodeBody enforces POST with a JSON body; it writes the 400/405
// response itself and reports whether the handler should continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Error: "method not allowed"})
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
