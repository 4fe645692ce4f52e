// Package rest exposes the catalog operations as a JSON HTTP API.
package rest

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/civikit/catalog/internal/auth/token"
	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/service"
	apperrors "github.com/civikit/catalog/internal/errors"
	"github.com/civikit/catalog/internal/errors/i18n"
	"github.com/civikit/catalog/internal/platform/requestctx"
)

// maxBodyBytes bounds write payload sizes.
const maxBodyBytes = 1 << 20

// Handler serves the catalog HTTP API.
type Handler struct {
	catalog *service.Catalog
	tokens  token.Config
}

// New creates a catalog HTTP handler.
func New(catalog *service.Catalog, tokens token.Config) *Handler {
	return &Handler{catalog: catalog, tokens: tokens}
}

// collections maps URL collection segments to entity kinds.
var collections = map[string]domain.Kind{
	"life_situations": domain.KindLifeSituation,
	"services":        domain.KindService,
	"processes":       domain.KindProcess,
}

func kindFromRequest(r *http.Request) (domain.Kind, error) {
	segment := r.PathValue("collection")
	kind, ok := collections[segment]
	if !ok {
		return "", apperrors.WithMetadata(apperrors.CodeUnknownEntityKind,
			"unknown collection "+segment,
			map[string]string{"Kind": segment})
	}
	return kind, nil
}

// withCaller authenticates the request and stores the caller in context.
func (h *Handler) withCaller(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		bearer, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, r, apperrors.New(apperrors.CodeUnauthenticated,
				"authorization header is missing"))
			return
		}
		caller, err := token.Verify(bearer, h.tokens)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r.WithContext(requestctx.WithCaller(r.Context(), caller)))
	}
}

func decodeBody(r *http.Request) (map[string]any, error) {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, apperrors.Wrap(apperrors.CodePayloadInvalid,
			"request body is not a JSON object", err)
	}
	return payload, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("rest: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	locale := i18n.MatchLocale(r.Header.Get("Accept-Language"))
	status, body := apperrors.ToHTTP(err, locale)
	if status >= http.StatusInternalServerError {
		log.Printf("rest: %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, body)
}
