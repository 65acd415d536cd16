// Package system implements the System/Configuration flowchart step, which
// creates, copies or selects the simulation system and configuration that
// later steps work on.
package system

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"system-step/api/services/flowchart"
	"system-step/api/services/systemdb"
)

// NodeType is the flowchart node type of the step.
const NodeType = "system"

var (
	ErrNotImplemented = errors.New("not implemented")
	ErrNoSystemDB     = errors.New("no system database available")
	ErrNothingCreated = errors.New("nothing was created in this step")
)

const analysisPlaceholder = "This is a placeholder for the results from the System step"

// System is the non-graphical System step.
type System struct {
	Title      string
	Parameters *Parameters
	logger     *slog.Logger
}

// Option configures a System.
type Option func(*System)

// WithTitle sets the title shown for the step.
func WithTitle(title string) Option {
	return func(s *System) { s.Title = title }
}

// WithLogger sets the logger the step reports to.
func WithLogger(l *slog.Logger) Option {
	return func(s *System) { s.logger = l }
}

// New creates a System step with default parameters.
func New(opts ...Option) *System {
	s := &System{
		Title:      "System",
		Parameters: NewParameters(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Type returns the node type.
func (s *System) Type() string { return NodeType }

// Header is the first line of the step's description.
func (s *System) Header(step int) string {
	return fmt.Sprintf("Step %d: %s", step, s.Title)
}

// Description returns the header followed by the formatted description of
// the current parameter values.
func (s *System) Description(step int) (string, error) {
	text, err := DescriptionText(s.Parameters.Values())
	if err != nil {
		return "", err
	}
	return s.Header(step) + "\n" + formatText(text), nil
}

// Execute runs the step against the system database in the execution state.
func (s *System) Execute(ctx context.Context, node flowchart.Node, state *flowchart.ExecutionState) (*flowchart.StepResult, error) {
	v, err := s.Parameters.CurrentValues(state.Variables)
	if err != nil {
		return nil, err
	}

	text, err := DescriptionText(v)
	if err != nil {
		return nil, err
	}
	s.logger.Info(s.Header(state.StepIndex), "node", node.ID, "description", text)

	db := state.SystemDB
	if db == nil {
		return nil, ErrNoSystemDB
	}

	// Reject configuration operations that cannot run before the system
	// operation changes anything.
	creating, err := configurationCreates(v[KeyConfigurationOperation])
	if err != nil {
		return nil, err
	}

	newSystem, err := s.runSystemOperation(ctx, db, v)
	if err != nil {
		return nil, err
	}

	if v[KeySystem] == NewRef {
		if newSystem == nil {
			return nil, fmt.Errorf("system %q: %w", NewRef, ErrNothingCreated)
		}
		if err := db.SetCurrentSystem(ctx, newSystem.ID); err != nil {
			return nil, fmt.Errorf("select new system: %w", err)
		}
	} else if err := s.runConfiguration(ctx, db, v, creating); err != nil {
		return nil, err
	}

	summary, err := db.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize systems: %w", err)
	}
	analysis := s.analyze(summary)

	return &flowchart.StepResult{
		NodeID: node.ID, NodeType: node.Type, Label: node.Data.Label,
		Status: "completed",
		Output: map[string]any{
			"message":     analysis,
			"description": text,
			"properties":  propertyValues(summary),
		},
	}, nil
}

func (s *System) runSystemOperation(ctx context.Context, db systemdb.Database, v Values) (*systemdb.System, error) {
	op := v[KeySystemOperation]
	switch {
	case strings.Contains(op, "create"):
		name := v[KeySystemName]
		if name == DefaultName {
			name = ""
		}
		sys, err := db.CreateSystem(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("create system: %w", err)
		}
		s.logger.Debug("Created system", "id", sys.ID, "name", sys.Name)
		return sys, nil
	case strings.Contains(op, "copy"):
		return nil, fmt.Errorf("cannot copy systems yet: %w", ErrNotImplemented)
	case strings.Contains(op, "use"):
		return nil, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnrecognizedSystemOperation, op)
	}
}

// runConfiguration selects the system, then applies the configuration
// operation and selector to it. The database is only consulted when
// something other than the current system and configuration is asked for.
func (s *System) runConfiguration(ctx context.Context, db systemdb.Database, v Values, creating bool) error {
	selector := v[KeyConfiguration]
	if v[KeySystem] == Current && !creating && selector == Current {
		return nil
	}

	target, err := db.System(ctx, v[KeySystem])
	if err != nil {
		return fmt.Errorf("select system: %w", err)
	}
	if v[KeySystem] != Current {
		if err := db.SetCurrentSystem(ctx, target.ID); err != nil {
			return fmt.Errorf("select system: %w", err)
		}
	}

	var created *systemdb.Configuration
	if creating {
		name := v[KeyConfigurationName]
		if name == DefaultName {
			name = ""
		}
		created, err = db.CreateConfiguration(ctx, target.ID, name)
		if err != nil {
			return fmt.Errorf("create configuration: %w", err)
		}
		s.logger.Debug("Created configuration", "system", target.ID, "id", created.ID, "name", created.Name)
	}

	var conf *systemdb.Configuration
	switch selector {
	case Current:
		return nil
	case NewRef:
		if created == nil {
			return fmt.Errorf("configuration %q: %w", NewRef, ErrNothingCreated)
		}
		conf = created
	default:
		conf, err = db.Configuration(ctx, target.ID, selector)
		if err != nil {
			return fmt.Errorf("select configuration: %w", err)
		}
	}
	if err := db.SetCurrentConfiguration(ctx, target.ID, conf.ID); err != nil {
		return fmt.Errorf("select configuration: %w", err)
	}
	return nil
}

// configurationCreates reports whether op creates a configuration. Copying
// is not supported yet.
func configurationCreates(op string) (bool, error) {
	switch {
	case strings.Contains(op, "create"):
		return true, nil
	case strings.Contains(op, "copy"):
		return false, fmt.Errorf("cannot copy configurations yet: %w", ErrNotImplemented)
	case strings.Contains(op, "use"):
		return false, nil
	default:
		return false, fmt.Errorf("%w %q", ErrUnrecognizedConfigurationOperation, op)
	}
}

// analyze reports the results of the step.
func (s *System) analyze(summary systemdb.Summary) string {
	s.logger.Info(analysisPlaceholder,
		"n_systems", summary.NSystems,
		"current_system", summary.CurrentSystem,
		"n_configurations", summary.NConfigurations,
		"current_configuration", summary.CurrentConfiguration,
	)
	return analysisPlaceholder
}
