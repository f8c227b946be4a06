package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/civil"
	"gopkg.in/yaml.v3"

	"tariff-dashboard/internal/tariff"
)

// Row is one tariff as written in an import file. Amounts stay strings so a
// malformed value becomes null instead of failing the file.
type Row struct {
	Line int `yaml:"-"`

	ForwarderID  int64  `yaml:"forwarder_id"`
	Forwarder    string `yaml:"forwarder"`
	NavieraID    int64  `yaml:"naviera_id"`
	Naviera      string `yaml:"naviera"`
	POL          string `yaml:"pol"`
	POD          string `yaml:"pod"`
	Country      string `yaml:"country"`
	Equipo       string `yaml:"equipo"`
	OceanFreight string `yaml:"ocean_freight"`
	AmsImo       string `yaml:"ams_imo"`
	LibSeguro    string `yaml:"lib_seguro"`
	AllIn        string `yaml:"all_in"`
	TransitTime  string `yaml:"transit_time"`
	Demoras      string `yaml:"demoras"`
	FechaTarifa  string `yaml:"fecha_tarifa"`
	VigenciaFin  string `yaml:"vigencia_fin"`
	Anio         int    `yaml:"anio"`
	Mes          int    `yaml:"mes"`
}

// Parse reads tariffs from YAML or JSON. The document is either a list of
// tariffs or a mapping with a "tariffs" list.
func Parse(r io.Reader) ([]Row, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}

	list, err := tariffList(&doc)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(list.Content))
	for _, item := range list.Content {
		var row Row
		if err := item.Decode(&row); err != nil {
			return nil, fmt.Errorf("line %d: %w", item.Line, err)
		}
		row.Line = item.Line
		rows = append(rows, row)
	}

	return rows, nil
}

// tariffList finds the sequence node holding the tariffs
func tariffList(doc *yaml.Node) (*yaml.Node, error) {
	node := doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}

	switch node.Kind {
	case yaml.SequenceNode:
		return node, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "tariffs" && node.Content[i+1].Kind == yaml.SequenceNode {
				return node.Content[i+1], nil
			}
		}
		return nil, fmt.Errorf("line %d: expected a \"tariffs\" list", node.Line)
	}

	return nil, fmt.Errorf("line %d: expected a list of tariffs", node.Line)
}

// Record converts the row into a tariff ready to be created
func (row Row) Record() (*tariff.Record, error) {
	record := &tariff.Record{
		ForwarderID:   row.ForwarderID,
		ForwarderName: strings.TrimSpace(row.Forwarder),
		NavieraID:     row.NavieraID,
		NavieraName:   strings.TrimSpace(row.Naviera),
		POL:           strings.ToUpper(strings.TrimSpace(row.POL)),
		POD:           strings.ToUpper(strings.TrimSpace(row.POD)),
		CountryID:     strings.ToUpper(strings.TrimSpace(row.Country)),
		Equipo:        tariff.Equipment(strings.ToLower(strings.TrimSpace(row.Equipo))),
		OceanFreight:  tariff.ParseAmount(row.OceanFreight),
		AmsImo:        tariff.ParseAmount(row.AmsImo),
		LibSeguro:     tariff.ParseAmount(row.LibSeguro),
		AllIn:         tariff.ParseAmount(row.AllIn),
		TransitTime:   tariff.ParseAmount(row.TransitTime),
		Demoras:       tariff.ParseAmount(row.Demoras),
		Anio:          row.Anio,
		Mes:           row.Mes,
	}

	if record.ForwarderID == 0 && record.ForwarderName == "" {
		return nil, fmt.Errorf("forwarder or forwarder_id is required")
	}
	if record.POL == "" || record.POD == "" {
		return nil, fmt.Errorf("pol and pod are required")
	}
	if record.Equipo != "" && !record.Equipo.IsValid() {
		return nil, fmt.Errorf("unknown equipment code: %s", row.Equipo)
	}

	var err error
	if record.FechaTarifa, err = parseDate("fecha_tarifa", row.FechaTarifa); err != nil {
		return nil, err
	}
	if record.VigenciaFin, err = parseDate("vigencia_fin", row.VigenciaFin); err != nil {
		return nil, err
	}

	return record, nil
}

func parseDate(field, value string) (*civil.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	// YAML timestamps may carry a time part
	if len(value) > 10 && value[10] == 'T' {
		value = value[:10]
	}
	d, err := civil.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", field, value)
	}
	return &d, nil
}
