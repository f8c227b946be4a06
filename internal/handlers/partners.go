package handlers

import (
	"fmt"
	"net/http"

	"tariff-dashboard/internal/database"
)

// PartnerHandler handles HTTP requests for forwarders and carriers
type PartnerHandler struct {
	db *database.DB
}

// NewPartnerHandler creates a new partner handler
func NewPartnerHandler(db *database.DB) *PartnerHandler {
	return &PartnerHandler{db: db}
}

// GetPartners handles GET /api/partners. ?kind=forwarder|naviera narrows the list.
func (h *PartnerHandler) GetPartners(w http.ResponseWriter, r *http.Request) {
	kind := database.PartnerKind(r.URL.Query().Get("kind"))
	if kind != "" && kind != database.PartnerForwarder && kind != database.PartnerNaviera {
		http.Error(w, fmt.Sprintf("Invalid partner kind: %s", kind), http.StatusBadRequest)
		return
	}

	partners, err := h.db.Partners.GetAll(r.Context(), kind)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to get partners: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, partners)
}
