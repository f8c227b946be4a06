package handlers

import (
	"net/http"

	"tariff-dashboard/internal/tariff"
)

// EquipmentOption is one selectable equipment code
type EquipmentOption struct {
	Code  tariff.Equipment `json:"code"`
	Label string           `json:"label"`
}

// GetEquipment handles GET /api/equipment
func GetEquipment(w http.ResponseWriter, r *http.Request) {
	options := make([]EquipmentOption, 0, len(tariff.AllEquipment))
	for _, e := range tariff.AllEquipment {
		options = append(options, EquipmentOption{Code: e, Label: e.Label()})
	}
	writeJSON(w, http.StatusOK, options)
}
