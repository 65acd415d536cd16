package system

import "system-step/api/services/systemdb"

// Property describes one result the step reports.
type Property struct {
	Calculation    []string `json:"calculation"`
	Description    string   `json:"description"`
	Dimensionality string   `json:"dimensionality"`
	Methods        []string `json:"methods"`
	Type           string   `json:"type"`
	Units          string   `json:"units"`
}

// Properties are the results reported after the step runs.
var Properties = map[string]Property{
	"n_systems":             scalarInt("The number of systems"),
	"current_system":        scalarInt("The current system"),
	"n_configurations":      scalarInt("The number of configurations"),
	"current_configuration": scalarInt("The current configuration"),
}

func scalarInt(description string) Property {
	return Property{
		Calculation:    []string{"all"},
		Description:    description,
		Dimensionality: "scalar",
		Methods:        []string{},
		Type:           "int",
	}
}

func propertyValues(s systemdb.Summary) map[string]any {
	return map[string]any{
		"n_systems":             s.NSystems,
		"current_system":        s.CurrentSystem,
		"n_configurations":      s.NConfigurations,
		"current_configuration": s.CurrentConfiguration,
	}
}
