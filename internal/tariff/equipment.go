package tariff

// Equipment is a container/equipment type code
type Equipment string

const (
	Equipment20ST  Equipment = "20"
	Equipment40ST  Equipment = "40"
	Equipment40HC  Equipment = "40hc"
	Equipment45HC  Equipment = "45hc"
	Equipment20RF  Equipment = "20rf"
	Equipment40RF  Equipment = "40rf"
	Equipment40NOR Equipment = "40nor"
	Equipment20OT  Equipment = "20ot"
	Equipment40OT  Equipment = "40ot"
	Equipment20FR  Equipment = "20fr"
	Equipment40FR  Equipment = "40fr"
	Equipment20TK  Equipment = "20tk"
	EquipmentLCL   Equipment = "lcl"
	EquipmentBulk  Equipment = "bb"
)

// DefaultEquipment is used when a tariff is created without an equipment code
const DefaultEquipment = Equipment20ST

var equipmentLabels = map[Equipment]string{
	Equipment20ST:  "20' ST",
	Equipment40ST:  "40' ST",
	Equipment40HC:  "40' HC",
	Equipment45HC:  "45' HC",
	Equipment20RF:  "20' Reefer",
	Equipment40RF:  "40' Reefer",
	Equipment40NOR: "40' NOR",
	Equipment20OT:  "20' Open Top",
	Equipment40OT:  "40' Open Top",
	Equipment20FR:  "20' Flat Rack",
	Equipment40FR:  "40' Flat Rack",
	Equipment20TK:  "20' Tank",
	EquipmentLCL:   "LCL",
	EquipmentBulk:  "Break Bulk",
}

// AllEquipment lists the known equipment codes in catalog order
var AllEquipment = []Equipment{
	Equipment20ST, Equipment40ST, Equipment40HC, Equipment45HC,
	Equipment20RF, Equipment40RF, Equipment40NOR,
	Equipment20OT, Equipment40OT, Equipment20FR, Equipment40FR,
	Equipment20TK, EquipmentLCL, EquipmentBulk,
}

// IsValid reports whether e is a known equipment code
func (e Equipment) IsValid() bool {
	_, ok := equipmentLabels[e]
	return ok
}

// Label returns the display label, or the raw code for unknown equipment
func (e Equipment) Label() string {
	if label, ok := equipmentLabels[e]; ok {
		return label
	}
	return string(e)
}
