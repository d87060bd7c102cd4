// handlers/admin_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gewnthar/gaslines/config"
	"github.com/gewnthar/gaslines/database"
	"github.com/gewnthar/gaslines/services"
	"go.uber.org/zap"
)

func logger() *zap.Logger { return zap.L().Named("handlers") }

// Helper to respond with JSON
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger().Error("Failed to marshal JSON response", zap.Error(err))
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper to respond with an error
func respondWithError(w http.ResponseWriter, code int, message string) {
	logger().Warn("API error", zap.Int("status", code), zap.String("message", message))
	respondWithJSON(w, code, map[string]string{"error": message})
}

// HealthHandler reports whether the workspace is reachable.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := database.Ping(r.Context()); err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "workspace connection error")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "gas line importer is healthy"})
}

// TriggerImportHandler runs an import pass and returns its summary.
// Expects POST requests to /api/admin/import.
func TriggerImportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	summary, err := services.TryRunImport(r.Context())
	if errors.Is(err, services.ErrImportRunning) {
		respondWithError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   fmt.Sprintf("Import failed: %v", err),
			"summary": summary,
		})
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// FeatureClassStatusHandler describes the configured feature class.
// Expects GET requests to /api/feature-classes/{name}.
func FeatureClassStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// pathParts: ["api", "feature-classes", "{name}"]
	if len(pathParts) != 3 || pathParts[2] == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid path. Expected /api/feature-classes/{name}")
		return
	}
	name := pathParts[2]
	if name != config.AppConfig.FeatureClass.Name {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("Unknown feature class '%s'", name))
		return
	}

	status, err := services.FeatureClassStatus(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read feature class %s: %v", name, err))
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// NewRouter registers the API routes on a fresh mux.
func NewRouter() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", HealthHandler)
	mux.HandleFunc("/api/admin/import", TriggerImportHandler)
	mux.HandleFunc("/api/feature-classes/", FeatureClassStatusHandler) // Path ends with / to catch the name
	return mux
}
