// Package systemdb holds the simulation systems and their configurations that
// flowchart steps operate on. Steps only see the Database interface; the
// memory and PostgreSQL implementations are interchangeable.
package systemdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reserved references.
const (
	RefCurrent = "current"
	RefNew     = "new"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrNoCurrentSystem = errors.New("no current system")
)

// Configuration is a named conformer of a system.
type Configuration struct {
	ID        int64     `json:"id"`
	SystemID  int64     `json:"systemId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// System is a molecular or crystal structure. Configuration is the system's
// current configuration.
type System struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	CreatedAt     time.Time      `json:"createdAt"`
	Configuration *Configuration `json:"configuration,omitempty"`
}

// Summary reports the counts and current selections. Ordinals are 1-based
// and zero when nothing is selected.
type Summary struct {
	NSystems             int `json:"n_systems"`
	CurrentSystem        int `json:"current_system"`
	NConfigurations      int `json:"n_configurations"`
	CurrentConfiguration int `json:"current_configuration"`
}

// Database is the store of systems and configurations.
//
// An empty name passed to CreateSystem or CreateConfiguration asks for the
// default name. References are RefCurrent, a 1-based ordinal, a negative
// ordinal counting back from the end, or a name.
type Database interface {
	CreateSystem(ctx context.Context, name string) (*System, error)
	CreateConfiguration(ctx context.Context, systemID int64, name string) (*Configuration, error)
	System(ctx context.Context, ref string) (*System, error)
	Configuration(ctx context.Context, systemID int64, ref string) (*Configuration, error)
	SetCurrentSystem(ctx context.Context, systemID int64) error
	SetCurrentConfiguration(ctx context.Context, systemID, configurationID int64) error
	Summary(ctx context.Context) (Summary, error)
}

func defaultSystemName(n int) string        { return fmt.Sprintf("system_%d", n) }
func defaultConfigurationName(n int) string { return fmt.Sprintf("configuration_%d", n) }

// ordinal parses ref as a 1-based or negative ordinal and maps it to a 0-based
// index into a list of length n. ok is false when ref is not a number.
func ordinal(ref string, n int) (index int, ok bool, err error) {
	i, convErr := strconv.Atoi(strings.TrimSpace(ref))
	if convErr != nil {
		return 0, false, nil
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, true, nil
	case i < 0 && -i <= n:
		return n + i, true, nil
	default:
		return 0, true, fmt.Errorf("ordinal %d out of range 1..%d: %w", i, n, ErrNotFound)
	}
}
