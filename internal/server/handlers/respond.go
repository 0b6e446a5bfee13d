// internal/server/handlers/respond.go

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"agentesocial/internal/domain/learning"
	"agentesocial/internal/domain/store"
	"agentesocial/internal/service/analysis"
	"agentesocial/internal/service/tools"
)

const maxBodyBytes = 4 << 20

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses. Server errors are logged with the request id.
func respondWithError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, code int, message string, err error) {
	if err != nil && code >= 500 {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"path":       r.URL.Path,
			"status":     code,
		}).Error(message)
	}

	respondWithJSON(w, code, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, learning.ErrMissingUser):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrUnsupportedPlatform), errors.Is(err, tools.ErrUnknownTool):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError reports err with the status its kind maps to. Client
// errors carry the error text, server errors only the message.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, message string, err error) {
	code := statusFor(err)
	if code < 500 {
		respondWithError(w, r, logger, code, err.Error(), nil)
		return
	}
	respondWithError(w, r, logger, code, message, err)
}

// decodeBody decodes a JSON request body into dst
func decodeBody(r *http.Request, dst interface{}) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// queryInt reads an optional integer query parameter
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", name, raw)
	}
	return n, nil
}
