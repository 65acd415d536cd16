package system

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"system-step/api/services/flowchart"
)

// Parameter names.
const (
	KeySystemOperation        = "system operation"
	KeySystemToCopy           = "system to copy"
	KeySystemName             = "system name"
	KeySystem                 = "system"
	KeyConfigurationOperation = "configuration operation"
	KeyConfigurationToCopy    = "configuration to copy"
	KeyConfigurationName      = "configuration name"
	KeyConfiguration          = "configuration"
)

// Operation values.
const (
	OpCreateSystem = "create a new, empty system"
	OpCopySystem   = "copy an existing system"
	OpUseSystem    = "use an existing system"

	OpCopyConfiguration   = "copy an existing configuration"
	OpCreateConfiguration = "create a new configuration"
	OpUseConfiguration    = "use an existing configuration"
)

// Selector and name sentinels.
const (
	Current     = "current"
	NewRef      = "new"
	DefaultName = "default"
)

// Parameter kinds.
const (
	KindEnum    = "enum"
	KindInteger = "integer"
	KindString  = "string"
)

var (
	ErrUnknownParameter  = errors.New("unknown parameter")
	ErrInvalidValue      = errors.New("invalid parameter value")
	ErrUndefinedVariable = errors.New("undefined variable")
)

// Values maps parameter names to their values.
type Values map[string]string

// Parameter is one control parameter: its schema and its current value.
type Parameter struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	Value        string   `json:"value"`
	Units        string   `json:"units,omitempty"`
	Default      string   `json:"default"`
	DefaultUnits string   `json:"defaultUnits,omitempty"`
	Enumeration  []string `json:"enumeration"`
	FormatString string   `json:"formatString"`
	Description  string   `json:"description"`
	HelpText     string   `json:"helpText"`
}

// Validate reports whether value is acceptable for p. Enumerated parameters
// take a member of the enumeration; integer and string parameters also take
// any non-empty identifier. A variable reference is always accepted.
func (p *Parameter) Validate(value string) error {
	if IsExpr(value) {
		return nil
	}
	if p.Kind == KindEnum {
		if !slices.Contains(p.Enumeration, value) {
			return fmt.Errorf("%s: %w %q", p.Name, ErrInvalidValue, value)
		}
		return nil
	}
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: %w: empty", p.Name, ErrInvalidValue)
	}
	return nil
}

// Set validates and stores value.
func (p *Parameter) Set(value string) error {
	if err := p.Validate(value); err != nil {
		return err
	}
	p.Value = value
	return nil
}

// Reset restores the default value and units.
func (p *Parameter) Reset() {
	p.Value = p.Default
	p.Units = p.DefaultUnits
}

// Parameters are the control parameters of the System step.
type Parameters struct {
	SystemOperation        Parameter `json:"systemOperation"`
	SystemToCopy           Parameter `json:"systemToCopy"`
	SystemName             Parameter `json:"systemName"`
	System                 Parameter `json:"system"`
	ConfigurationOperation Parameter `json:"configurationOperation"`
	ConfigurationToCopy    Parameter `json:"configurationToCopy"`
	ConfigurationName      Parameter `json:"configurationName"`
	Configuration          Parameter `json:"configuration"`
}

// NewParameters returns the parameters set to their defaults. It panics if
// a default lies outside its enumeration, which can only happen if the table
// below is edited incorrectly.
func NewParameters() *Parameters {
	p := &Parameters{
		SystemOperation: Parameter{
			Name:         KeySystemOperation,
			Kind:         KindEnum,
			Default:      OpUseSystem,
			Enumeration:  []string{OpCreateSystem, OpCopySystem, OpUseSystem},
			FormatString: "s",
			Description:  "What you want to do:",
			HelpText:     "The operation for the simulation system.",
		},
		SystemToCopy: Parameter{
			Name:         KeySystemToCopy,
			Kind:         KindInteger,
			Default:      Current,
			Enumeration:  []string{Current, NewRef},
			FormatString: "d",
			Description:  "System to copy:",
			HelpText:     "The simulation system to copy.",
		},
		SystemName: Parameter{
			Name:         KeySystemName,
			Kind:         KindString,
			Default:      DefaultName,
			Enumeration:  []string{DefaultName},
			FormatString: "s",
			Description:  "Name for the new system:",
			HelpText:     "The name for the simulation system.",
		},
		System: Parameter{
			Name:         KeySystem,
			Kind:         KindInteger,
			Default:      Current,
			Enumeration:  []string{Current, NewRef},
			FormatString: "d",
			Description:  "Which system to use:",
			HelpText:     "The simulation system to use.",
		},
		ConfigurationOperation: Parameter{
			Name:         KeyConfigurationOperation,
			Kind:         KindEnum,
			Default:      OpUseConfiguration,
			Enumeration:  []string{OpCopyConfiguration, OpCreateConfiguration, OpUseConfiguration},
			FormatString: "s",
			Description:  "What you want to do:",
			HelpText:     "The operation for the configuration.",
		},
		ConfigurationToCopy: Parameter{
			Name:         KeyConfigurationToCopy,
			Kind:         KindInteger,
			Default:      Current,
			Enumeration:  []string{Current, NewRef},
			FormatString: "d",
			Description:  "Configuration to copy:",
			HelpText:     "The simulation configuration to copy.",
		},
		ConfigurationName: Parameter{
			Name:         KeyConfigurationName,
			Kind:         KindString,
			Default:      DefaultName,
			Enumeration:  []string{DefaultName},
			FormatString: "s",
			Description:  "Name for the new configuration:",
			HelpText:     "The name for the configuration.",
		},
		Configuration: Parameter{
			Name:         KeyConfiguration,
			Kind:         KindInteger,
			Default:      Current,
			Enumeration:  []string{Current, NewRef},
			FormatString: "d",
			Description:  "Which configuration to use:",
			HelpText:     "The configuration to use.",
		},
	}
	for _, f := range p.Fields() {
		if !slices.Contains(f.Enumeration, f.Default) {
			panic(fmt.Sprintf("system parameters: default %q of %q not in enumeration", f.Default, f.Name))
		}
		f.Reset()
	}
	return p
}

// Fields returns the parameters in display order.
func (p *Parameters) Fields() []*Parameter {
	return []*Parameter{
		&p.SystemOperation,
		&p.SystemToCopy,
		&p.SystemName,
		&p.System,
		&p.ConfigurationOperation,
		&p.ConfigurationToCopy,
		&p.ConfigurationName,
		&p.Configuration,
	}
}

// Get returns the parameter with the given name.
func (p *Parameters) Get(name string) (*Parameter, bool) {
	for _, f := range p.Fields() {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Set validates and stores a single value.
func (p *Parameters) Set(name, value string) error {
	f, ok := p.Get(name)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownParameter, name)
	}
	return f.Set(value)
}

// Update applies every value or none of them.
func (p *Parameters) Update(values Values) error {
	for name, value := range values {
		f, ok := p.Get(name)
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownParameter, name)
		}
		if err := f.Validate(value); err != nil {
			return err
		}
	}
	for name, value := range values {
		f, _ := p.Get(name)
		f.Value = value
	}
	return nil
}

// Reset restores every parameter to its default.
func (p *Parameters) Reset() {
	for _, f := range p.Fields() {
		f.Reset()
	}
}

// Values returns the raw values, variable references included.
func (p *Parameters) Values() Values {
	v := make(Values, 8)
	for _, f := range p.Fields() {
		v[f.Name] = f.Value
	}
	return v
}

// CurrentValues returns the values with every variable reference replaced
// by the variable's value from vars.
func (p *Parameters) CurrentValues(vars map[string]any) (Values, error) {
	v := p.Values()
	for name, value := range v {
		if !IsExpr(value) {
			continue
		}
		ref := variableName(value)
		resolved, ok := vars[ref]
		if !ok {
			return nil, fmt.Errorf("%s: %w %q", name, ErrUndefinedVariable, ref)
		}
		v[name] = fmt.Sprint(resolved)
	}
	return v, nil
}

// ToData converts the values to the form stored on a flowchart node.
func (p *Parameters) ToData() map[string]flowchart.ParameterValue {
	data := make(map[string]flowchart.ParameterValue, 8)
	for _, f := range p.Fields() {
		data[f.Name] = flowchart.ParameterValue{Value: f.Value, Units: f.Units}
	}
	return data
}

// FromData loads values stored on a flowchart node. Names not present keep
// their current values.
func (p *Parameters) FromData(data map[string]flowchart.ParameterValue) error {
	values := make(Values, len(data))
	for name, pv := range data {
		values[name] = pv.Value
	}
	if err := p.Update(values); err != nil {
		return err
	}
	for name, pv := range data {
		f, _ := p.Get(name)
		f.Units = pv.Units
	}
	return nil
}

// IsExpr reports whether value refers to a flowchart variable.
func IsExpr(value string) bool {
	return strings.HasPrefix(value, "$")
}

func variableName(expr string) string {
	name := strings.TrimPrefix(expr, "$")
	if strings.HasPrefix(name, "{") && strings.HasSuffix(name, "}") {
		name = name[1 : len(name)-1]
	}
	return name
}
