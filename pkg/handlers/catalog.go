package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/apperrors"
	"github.com/pulse-labs/pulse-assistant/pkg/catalog"
)

// TableListResponse for GET /api/catalog/tables
type TableListResponse struct {
	Dataset string   `json:"dataset"`
	Tables  []string `json:"tables"`
	Total   int      `json:"total"`
}

// TableDetailResponse for GET /api/catalog/tables/{table}
type TableDetailResponse struct {
	Name        string   `json:"name"`
	Entity      string   `json:"entity"`
	Description string   `json:"description"`
	Fields      []string `json:"fields"`
}

// CatalogHandler serves the schema roadmap over HTTP. These endpoints
// describe fixed dashboard tables, not tenant data, so they need no
// session.
type CatalogHandler struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(cat *catalog.Catalog, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: cat,
		logger:  logger,
	}
}

// RegisterRoutes registers the catalog handler's routes on the given mux.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/catalog/tables", h.ListTables)
	mux.HandleFunc("GET /api/catalog/tables/{table}", h.GetTable)
}

// ListTables handles GET /api/catalog/tables with the qualified table
// names in roadmap order.
func (h *CatalogHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables := h.catalog.ListTables()

	data := TableListResponse{
		Dataset: h.catalog.Dataset(),
		Tables:  tables,
		Total:   len(tables),
	}

	response := ApiResponse{Success: true, Data: data}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetTable handles GET /api/catalog/tables/{table}. The table may be
// given bare or dataset-qualified.
func (h *CatalogHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")

	contract, err := h.catalog.Contract(table)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "table_not_found", "Table "+table+" not found in the schema map."); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to look up table", zap.String("table", table), zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to look up table"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	data := TableDetailResponse{
		Name:        h.catalog.Dataset() + "." + contract.Name,
		Entity:      catalog.EntityName(contract.Name),
		Description: contract.Description,
		Fields:      contract.FieldNames(),
	}

	response := ApiResponse{Success: true, Data: data}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
