package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/distrocompare/internal/server"
	pkgcatalog "github.com/HerbHall/distrocompare/pkg/catalog"
)

// maxBodyBytes bounds request bodies on the catalog API.
const maxBodyBytes = 1 << 20

// AttributesResponse is the response for GET /api/v1/catalog/attributes.
type AttributesResponse struct {
	Groups     []pkgcatalog.Category `json:"groups"`
	Attributes []AttributeInfo       `json:"attributes"`
	Priorities []PriorityInfo        `json:"priorities"`
}

// PriorityInfo describes one priority level for clients.
type PriorityInfo struct {
	Value Priority `json:"value"`
	Label string   `json:"label"`
}

// RecordsResponse is the response for GET /api/v1/catalog/records.
type RecordsResponse struct {
	Count   int                 `json:"count"`
	Records []pkgcatalog.Record `json:"records"`
}

// Handler serves the stateless catalog API.
type Handler struct {
	engine *Engine
	logger *zap.Logger
}

// NewHandler creates a new catalog API handler.
func NewHandler(engine *Engine, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// RegisterRoutes implements server.RouteRegistrar.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/catalog/attributes", h.handleAttributes)
	mux.HandleFunc("GET /api/v1/catalog/records", h.handleListRecords)
	mux.HandleFunc("GET /api/v1/catalog/records/{name}", h.handleGetRecord)
	mux.HandleFunc("POST /api/v1/catalog/evaluate", h.handleEvaluate)
}

// handleAttributes returns the filterable attributes grouped for display,
// with help text and enum options.
func (h *Handler) handleAttributes(w http.ResponseWriter, r *http.Request) {
	groups, err := pkgcatalog.Categories()
	if err != nil {
		h.logger.Error("failed to load categories", zap.Error(err))
		server.InternalError(w, "failed to load categories", r.URL.Path)
		return
	}

	prios := make([]PriorityInfo, 0, 5)
	for p := NotImportant; p <= NonNegotiable; p++ {
		prios = append(prios, PriorityInfo{Value: p, Label: p.String()})
	}

	WriteJSON(w, http.StatusOK, AttributesResponse{
		Groups:     groups,
		Attributes: h.engine.Attributes(),
		Priorities: prios,
	})
}

// handleListRecords returns every record in store order.
func (h *Handler) handleListRecords(w http.ResponseWriter, _ *http.Request) {
	records := h.engine.Records()
	if records == nil {
		records = []pkgcatalog.Record{}
	}
	WriteJSON(w, http.StatusOK, RecordsResponse{Count: len(records), Records: records})
}

// handleGetRecord returns one record by name.
func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.engine.Record(r.PathValue("name"))
	if err != nil {
		WriteEngineError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

// handleEvaluate runs one filter pass over a state supplied in the body.
func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	state := NewFilterState()
	if err := DecodeJSON(w, r, state); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	if err := h.engine.Validate(state); err != nil {
		WriteEngineError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.engine.Evaluate(state))
}

// -- helpers --

// WriteJSON writes data as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes a size-limited request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

// WriteEngineError maps engine errors to problem responses.
func WriteEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrRecordNotFound):
		server.NotFound(w, err.Error(), r.URL.Path)
	case errors.Is(err, ErrUnknownAttribute),
		errors.Is(err, ErrIncompatibleSelection),
		errors.Is(err, ErrUnknownSortKey):
		server.Unprocessable(w, err.Error(), r.URL.Path)
	default:
		server.BadRequest(w, err.Error(), r.URL.Path)
	}
}
