package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goran-ethernal/ProposalIndexor/internal/entity"
	"github.com/goran-ethernal/ProposalIndexor/internal/events"
	"github.com/goran-ethernal/ProposalIndexor/internal/logger"
	"github.com/goran-ethernal/ProposalIndexor/internal/store"
	"github.com/goran-ethernal/ProposalIndexor/pkg/downloader"
	"github.com/goran-ethernal/ProposalIndexor/pkg/indexer"
)

// IndexerRegistry lists the indexers reported by the health endpoint.
type IndexerRegistry interface {
	Indexers() []indexer.Indexer
}

// SyncStateReader reads the downloader checkpoint.
type SyncStateReader interface {
	GetState(ctx context.Context) (*downloader.SyncState, error)
}

// Handler handles HTTP requests for the API.
type Handler struct {
	store    store.Store
	registry IndexerRegistry
	sync     SyncStateReader
	log      *logger.Logger
}

// NewHandler creates a new API handler. registry and sync may be nil.
func NewHandler(st store.Store, registry IndexerRegistry, sync SyncStateReader, log *logger.Logger) *Handler {
	return &Handler{
		store:    st,
		registry: registry,
		sync:     sync,
		log:      log,
	}
}

// Health returns the health status of the API and the registered indexers.
// @Summary Health check
// @Description Report the downloader checkpoint and the registered indexers
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Health status"
// @Failure 503 {object} ErrorResponse "Checkpoint unavailable"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Indexers:  []IndexerStatus{},
	}

	if h.registry != nil {
		for _, idx := range h.registry.Indexers() {
			response.Indexers = append(response.Indexers, IndexerStatus{
				Name:       idx.GetName(),
				Type:       idx.GetType(),
				StartBlock: idx.StartBlock(),
			})
		}
	}

	if h.sync != nil {
		state, err := h.sync.GetState(r.Context())
		if err != nil {
			h.log.Errorf("failed to read sync state: %v", err)
			respondError(w, http.StatusServiceUnavailable, "sync state unavailable")
			return
		}
		response.LastIndexedBlock = &state.LastIndexedBlock
		response.Mode = state.Mode
	}

	respondJSON(w, http.StatusOK, response)
}

// ListKinds returns every entity kind with its fields and record count.
// @Summary List entity kinds
// @Description List every entity kind with its field names and stored record count
// @Tags Entities
// @Produce json
// @Success 200 {array} KindInfo "Entity kinds"
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /kinds [get]
func (h *Handler) ListKinds(w http.ResponseWriter, r *http.Request) {
	kinds := events.AllKinds()
	infos := make([]KindInfo, 0, len(kinds))

	for _, k := range kinds {
		n, err := h.store.Count(r.Context(), k)
		if err != nil {
			h.respondStoreError(w, err)
			return
		}
		infos = append(infos, KindInfo{
			Kind:     k.String(),
			Contract: string(k.Contract()),
			Event:    k.EventName(),
			Fields:   entity.FieldNames(k),
			Count:    n,
		})
	}

	respondJSON(w, http.StatusOK, infos)
}

// Count returns the number of stored records of a kind.
// @Summary Count records
// @Description Count the stored records of one entity kind
// @Tags Entities
// @Produce json
// @Param kind path string true "Entity kind"
// @Success 200 {object} CountResponse "Record count"
// @Failure 404 {object} ErrorResponse "Unknown kind"
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /entities/{kind}/count [get]
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}

	n, err := h.store.Count(r.Context(), kind)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CountResponse{Kind: kind.String(), Count: n})
}

// GetEntity returns a stored record with every field rendered as a string.
// @Summary Get a record
// @Description Load the record of a kind stored under an identity
// @Tags Entities
// @Produce json
// @Param kind path string true "Entity kind"
// @Param id path string true "Identity, 0x<transaction hash>-<log index>"
// @Success 200 {object} EntityResponse "Record"
// @Failure 400 {object} ErrorResponse "Malformed identity"
// @Failure 404 {object} ErrorResponse "Unknown kind or record not found"
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /entities/{kind}/{id} [get]
func (h *Handler) GetEntity(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	e, err := h.store.Get(r.Context(), kind, id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	fields := make(map[string]string)
	for _, f := range e.Fields() {
		fields[f.Name] = f.Value
	}

	respondJSON(w, http.StatusOK, EntityResponse{Kind: kind.String(), ID: id.String(), Fields: fields})
}

// GetField returns a single rendered field of a stored record.
// @Summary Get a record field
// @Description Read one field of the record of a kind stored under an identity
// @Tags Entities
// @Produce json
// @Param kind path string true "Entity kind"
// @Param id path string true "Identity, 0x<transaction hash>-<log index>"
// @Param field path string true "Field name"
// @Success 200 {object} FieldResponse "Field value"
// @Failure 400 {object} ErrorResponse "Malformed identity or unknown field"
// @Failure 404 {object} ErrorResponse "Unknown kind or record not found"
// @Failure 503 {object} ErrorResponse "Store unavailable"
// @Router /entities/{kind}/{id}/{field} [get]
func (h *Handler) GetField(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	field := r.PathValue("field")

	value, err := h.store.FieldEquals(r.Context(), kind, id, field)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, FieldResponse{Kind: kind.String(), ID: id.String(), Field: field, Value: value})
}

func parseKind(w http.ResponseWriter, r *http.Request) (events.Kind, bool) {
	kind, err := events.ParseKind(r.PathValue("kind"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return kind, true
}

func parseID(w http.ResponseWriter, r *http.Request) (entity.Identity, bool) {
	id, err := entity.ParseIdentity(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return entity.Identity{}, false
	}
	return id, true
}

// respondStoreError maps store errors onto HTTP statuses.
func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrUnknownKind):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrUnknownField):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrStoreUnavailable):
		h.log.Warnf("store unavailable: %v", err)
		respondError(w, http.StatusServiceUnavailable, "store unavailable")
	default:
		h.log.Errorf("store query failed: %v", err)
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// encode first so a failure can still change the status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(encoded)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
