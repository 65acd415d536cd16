package system

import (
	"maps"
	"slices"
	"strings"
)

// HelpText explains how systems and configurations are referenced.
const HelpText = "When choosing a system or configuration, you may use a numerical\n" +
	"value, starting with 1, or a negative number to count back from\n" +
	"the end, starting with -1.\n" +
	"\n" +
	"You can also use the name -- but if the name is not unique you\n" +
	"won't know which one you get.\n" +
	"\n" +
	"Finally, 'current' refers to the currently selected one and\n" +
	"'new' to the one just created."

// Frame titles and the label shown in place of the configuration rows.
const (
	SystemFrameTitle        = "Simulation System"
	ConfigurationFrameTitle = "Configuration/Conformer"
	KeyUseNewConfiguration  = "use new configuration"
	useNewConfigurationText = "The new configuration will be used."
)

// Row is one line of the dialog. Label rows have no allowed values.
type Row struct {
	Key        string   `json:"key"`
	Label      string   `json:"label"`
	Column     int      `json:"column"`
	ColumnSpan int      `json:"columnSpan"`
	Allowed    []string `json:"allowed,omitempty"`
	Value      string   `json:"value,omitempty"`
}

// Frame is a titled group of rows.
type Frame struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// Layout is the dialog for a set of values. Values holds the input with any
// selector that is no longer allowed reset to current.
type Layout struct {
	Frames   []Frame `json:"frames"`
	Values   Values  `json:"values"`
	HelpText string  `json:"helpText"`
}

// schema supplies labels and enumerations; it is never modified.
var schema = NewParameters()

// VisibleRows lays out the dialog for the given values. Missing values are
// taken as the defaults.
func VisibleRows(in Values) Layout {
	v := schema.Values()
	maps.Copy(v, in)

	system := frameRows(v, KeySystemOperation, KeySystemToCopy, KeySystemName, KeySystem)

	var configuration []Row
	if v[KeySystem] == NewRef {
		configuration = []Row{{
			Key: KeyUseNewConfiguration, Label: useNewConfigurationText, Column: 0, ColumnSpan: 2,
		}}
	} else {
		configuration = frameRows(v, KeyConfigurationOperation, KeyConfigurationToCopy, KeyConfigurationName, KeyConfiguration)
	}

	return Layout{
		Frames: []Frame{
			{Title: SystemFrameTitle, Rows: system},
			{Title: ConfigurationFrameTitle, Rows: configuration},
		},
		Values:   v,
		HelpText: HelpText,
	}
}

// frameRows builds the rows for one entity and clamps its selector in v.
func frameRows(v Values, opKey, copyKey, nameKey, selectorKey string) []Row {
	op := v[opKey]
	copying := strings.Contains(op, "copy")
	creating := strings.Contains(op, "create") || copying

	rows := []Row{paramRow(opKey, v, 0, 2, nil)}
	if copying {
		rows = append(rows, paramRow(copyKey, v, 1, 1, nil))
	}
	if creating {
		rows = append(rows, paramRow(nameKey, v, 1, 1, nil))
	}

	allowed := []string{Current}
	if creating {
		allowed = []string{Current, NewRef}
	} else if v[selectorKey] == NewRef {
		v[selectorKey] = Current
	}
	return append(rows, paramRow(selectorKey, v, 0, 2, allowed))
}

func paramRow(key string, v Values, column, span int, allowed []string) Row {
	p, _ := schema.Get(key)
	if allowed == nil {
		allowed = slices.Clone(p.Enumeration)
	}
	return Row{
		Key:        key,
		Label:      p.Description,
		Column:     column,
		ColumnSpan: span,
		Allowed:    allowed,
		Value:      v[key],
	}
}
