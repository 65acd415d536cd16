package system

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"system-step/api/services/flowchart"
	"system-step/api/services/systemdb"
)

// Handler serves the step's schema, description and layout, and the system
// database it runs against.
type Handler struct {
	systems systemdb.Database
}

// NewHandler creates a Handler reading from the given system database.
func NewHandler(systems systemdb.Database) *Handler {
	return &Handler{systems: systems}
}

// ParametersRequest carries parameter values to describe or lay out.
type ParametersRequest struct {
	Parameters Values `json:"parameters"`
	Step       int    `json:"step,omitempty"`
}

// LoadRoutes registers the step and system HTTP handlers on the given router.
func (h *Handler) LoadRoutes(parentRouter *mux.Router) {
	steps := parentRouter.PathPrefix("/steps/" + NodeType).Subrouter()
	steps.Use(flowchart.JSONMiddleware)
	steps.HandleFunc("/parameters", h.HandleParameters).Methods("GET")
	steps.HandleFunc("/description", h.HandleDescription).Methods("POST")
	steps.HandleFunc("/layout", h.HandleLayout).Methods("POST")

	systems := parentRouter.PathPrefix("/systems").Subrouter()
	systems.Use(flowchart.JSONMiddleware)
	systems.HandleFunc("/summary", h.HandleSummary).Methods("GET")
	systems.HandleFunc("/{ref}", h.HandleGetSystem).Methods("GET")
}

// HandleParameters returns the parameter schema with default values.
func (h *Handler) HandleParameters(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(NewParameters())
}

// HandleDescription describes what the step would do with the posted values.
func (h *Handler) HandleDescription(w http.ResponseWriter, r *http.Request) {
	var req ParametersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		flowchart.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s := New()
	if err := s.Parameters.Update(req.Parameters); err != nil {
		flowchart.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	step := req.Step
	if step == 0 {
		step = 1
	}
	text, err := s.Description(step)
	if err != nil {
		flowchart.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"description": text})
}

// HandleLayout returns the dialog rows for the posted values.
func (h *Handler) HandleLayout(w http.ResponseWriter, r *http.Request) {
	var req ParametersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		flowchart.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(VisibleRows(req.Parameters))
}

// HandleSummary reports the number of systems and the current selections.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.systems.Summary(r.Context())
	if err != nil {
		slog.Error("Failed to summarize systems", "error", err)
		flowchart.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(summary)
}

// HandleGetSystem resolves a system reference.
func (h *Handler) HandleGetSystem(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]

	sys, err := h.systems.System(r.Context(), ref)
	if errors.Is(err, systemdb.ErrNotFound) || errors.Is(err, systemdb.ErrNoCurrentSystem) {
		flowchart.WriteError(w, http.StatusNotFound, "system not found")
		return
	}
	if err != nil {
		slog.Error("Failed to get system", "ref", ref, "error", err)
		flowchart.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(sys)
}
