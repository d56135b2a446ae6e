// Package httphandler is the HTTP driving adapter: it exposes analyses and
// credential management as a JSON API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/leadtime/internal/application"
	"github.com/ericfisherdev/leadtime/internal/domain/model"
	"github.com/ericfisherdev/leadtime/internal/domain/port/driven"
)

// maxBodyBytes bounds request bodies; analysis and credential payloads are tiny.
const maxBodyBytes = 1 << 20

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	analysisSvc  *application.AnalysisService
	provider     *application.GitHubClientProvider
	credStore    driven.CredentialStore
	defaultToken string
	logger       *slog.Logger
}

// NewHandler creates a Handler. defaultToken is the configured token the
// provider falls back to when the stored credential is deleted.
func NewHandler(
	analysisSvc *application.AnalysisService,
	provider *application.GitHubClientProvider,
	credStore driven.CredentialStore,
	defaultToken string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		analysisSvc:  analysisSvc,
		provider:     provider,
		credStore:    credStore,
		defaultToken: defaultToken,
		logger:       logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/analyses", h.Analyze)
	mux.HandleFunc("PUT /api/v1/credentials/github", h.PutGitHubCredential)
	mux.HandleFunc("DELETE /api/v1/credentials/github", h.DeleteGitHubCredential)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Analyze runs a lead-time analysis synchronously and returns the full result.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var body AnalysisRequestBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.analysisSvc.Run(r.Context(), body.toModel())
	if err != nil {
		h.writeAnalysisError(w, body, err)
		return
	}

	writeJSON(w, http.StatusOK, NewAnalysisResponse(result))
}

// writeAnalysisError maps a failed run to a status code: bad input is 400, a
// team that could not be resolved on GitHub is 502, anything else is 500.
func (h *Handler) writeAnalysisError(w http.ResponseWriter, body AnalysisRequestBody, err error) {
	var validationErr *model.ValidationError
	var resolutionErr *model.ResolutionError
	var remoteErr *model.RemoteError

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "invalid analysis request",
			Fields: validationErr.Fields(),
		})
	case errors.As(err, &resolutionErr), errors.As(err, &remoteErr):
		h.logger.Warn("analysis failed upstream", "org", body.Organization, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("analysis failed", "org", body.Organization, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// PutGitHubCredential stores the GitHub token encrypted and makes it the
// default for subsequent analyses.
func (h *Handler) PutGitHubCredential(w http.ResponseWriter, r *http.Request) {
	var body CredentialRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token := strings.TrimSpace(body.Token)
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.credStore.Set(r.Context(), driven.GitHubService, token); err != nil {
		if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.logger.Error("failed to store github credential", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.provider.Replace(token)
	h.logger.Info("github credential updated")

	w.WriteHeader(http.StatusNoContent)
}

// DeleteGitHubCredential removes the stored token and falls back to the
// configured one, if any.
func (h *Handler) DeleteGitHubCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.credStore.Delete(r.Context(), driven.GitHubService); err != nil {
		h.logger.Error("failed to delete github credential", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.provider.Replace(h.defaultToken)
	h.logger.Info("github credential deleted", "fallback_configured", h.defaultToken != "")

	w.WriteHeader(http.StatusNoContent)
}

// Health returns a simple health check response. credential_configured reports
// whether analyses can run without supplying their own token.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:               "ok",
		Time:                 time.Now().UTC().Format(time.RFC3339),
		CredentialConfigured: h.provider.HasToken(),
	})
}

// decodeBody decodes a size-limited JSON body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
