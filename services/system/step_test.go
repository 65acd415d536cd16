package system

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"system-step/api/services/flowchart"
	"system-step/api/services/systemdb"
)

func runStep(t *testing.T, db systemdb.Database, v Values, vars map[string]any) (*flowchart.StepResult, error) {
	t.Helper()
	s := New()
	require.NoError(t, s.Parameters.Update(v))
	node := flowchart.Node{ID: "system", Type: NodeType, Data: flowchart.NodeData{Label: "System"}}
	return s.Execute(context.Background(), node, &flowchart.ExecutionState{Variables: vars, SystemDB: db, StepIndex: 1})
}

func TestNew_Construction(t *testing.T) {
	s := New()

	assert.IsType(t, &System{}, s)
	assert.Equal(t, NodeType, s.Type())
	assert.Equal(t, "System", s.Title)
	assert.Equal(t, NewParameters().Values(), s.Parameters.Values())

	var _ flowchart.NodeExecutor = s
}

func TestExecute_UseCurrentIsPassThrough(t *testing.T) {
	db := systemdb.NewMemory()

	result, err := runStep(t, db, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, analysisPlaceholder, result.Output["message"])

	summary, err := db.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, systemdb.Summary{}, summary)
}

func TestExecute_CreateSystem(t *testing.T) {
	db := systemdb.NewMemory()
	ctx := context.Background()

	_, err := runStep(t, db, Values{KeySystemOperation: OpCreateSystem}, nil)
	require.NoError(t, err)

	result, err := runStep(t, db, Values{KeySystemOperation: OpCreateSystem, KeySystemName: "water"}, nil)
	require.NoError(t, err)

	first, err := db.System(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "system_1", first.Name)
	second, err := db.System(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "water", second.Name)

	// Selector "current" keeps the first system current.
	cur, err := db.System(ctx, systemdb.RefCurrent)
	require.NoError(t, err)
	assert.Equal(t, first.ID, cur.ID)

	props := result.Output["properties"].(map[string]any)
	assert.Equal(t, 2, props["n_systems"])
	assert.Equal(t, 1, props["current_system"])
	for name := range Properties {
		assert.Contains(t, props, name)
	}
}

func TestExecute_CreateSystemAndSelectNew(t *testing.T) {
	db := systemdb.NewMemory()
	ctx := context.Background()
	_, err := db.CreateSystem(ctx, "existing")
	require.NoError(t, err)

	result, err := runStep(t, db, Values{
		KeySystemOperation: OpCreateSystem,
		KeySystemName:      "water",
		KeySystem:          NewRef,
		// Ignored: a new system comes with its own configuration.
		KeyConfigurationOperation: OpCreateConfiguration,
	}, nil)
	require.NoError(t, err)

	cur, err := db.System(ctx, systemdb.RefCurrent)
	require.NoError(t, err)
	assert.Equal(t, "water", cur.Name)
	assert.Equal(t, "configuration_1", cur.Configuration.Name)
	assert.Equal(t, 2, result.Output["properties"].(map[string]any)["current_system"])
}

func TestExecute_NewWithoutCreateFails(t *testing.T) {
	db := systemdb.NewMemory()

	_, err := runStep(t, db, Values{KeySystem: NewRef}, nil)
	assert.ErrorIs(t, err, ErrNothingCreated)

	_, err = db.CreateSystem(context.Background(), "water")
	require.NoError(t, err)
	_, err = runStep(t, db, Values{KeyConfiguration: NewRef}, nil)
	assert.ErrorIs(t, err, ErrNothingCreated)
}

func TestExecute_CopyNotImplemented(t *testing.T) {
	tests := []struct {
		name string
		v    Values
	}{
		{"system", Values{KeySystemOperation: OpCopySystem}},
		{"configuration", Values{KeyConfigurationOperation: OpCopyConfiguration}},
		{"named system copy", Values{KeySystemOperation: OpCopySystem, KeySystemName: "ice", KeySystem: NewRef}},
		{"configuration copy with new system", Values{
			KeySystemOperation:        OpCreateSystem,
			KeySystem:                 NewRef,
			KeyConfigurationOperation: OpCopyConfiguration,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := systemdb.NewMemory()
			_, err := db.CreateSystem(context.Background(), "water")
			require.NoError(t, err)

			_, err = runStep(t, db, tt.v, nil)
			assert.ErrorIs(t, err, ErrNotImplemented)

			summary, err := db.Summary(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, summary.NSystems)
			assert.Equal(t, 1, summary.NConfigurations)
		})
	}
}

func TestExecute_UnrecognizedOperationFromVariable(t *testing.T) {
	db := systemdb.NewMemory()

	_, err := runStep(t, db, Values{KeySystemOperation: "$op"}, map[string]any{"op": "melt the system"})
	assert.ErrorIs(t, err, ErrUnrecognizedSystemOperation)

	_, err = runStep(t, db, Values{KeyConfigurationOperation: "$op"}, map[string]any{"op": "anneal"})
	assert.ErrorIs(t, err, ErrUnrecognizedConfigurationOperation)
}

func TestExecute_UndefinedVariable(t *testing.T) {
	_, err := runStep(t, systemdb.NewMemory(), Values{KeySystemName: "$name"}, nil)
	assert.ErrorIs(t, err, ErrUndefinedVariable)
}

func TestExecute_NoSystemDB(t *testing.T) {
	_, err := runStep(t, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoSystemDB)
}

func TestExecute_CreateConfigurationAndSelect(t *testing.T) {
	db := systemdb.NewMemory()
	ctx := context.Background()
	sys, err := db.CreateSystem(ctx, "water")
	require.NoError(t, err)

	_, err = runStep(t, db, Values{
		KeyConfigurationOperation: OpCreateConfiguration,
		KeyConfigurationName:      "optimized",
		KeyConfiguration:          NewRef,
	}, nil)
	require.NoError(t, err)

	cur, err := db.System(ctx, systemdb.RefCurrent)
	require.NoError(t, err)
	assert.Equal(t, sys.ID, cur.ID)
	assert.Equal(t, "optimized", cur.Configuration.Name)

	// Default name, keep the current configuration.
	_, err = runStep(t, db, Values{KeyConfigurationOperation: OpCreateConfiguration}, nil)
	require.NoError(t, err)

	cur, err = db.System(ctx, systemdb.RefCurrent)
	require.NoError(t, err)
	assert.Equal(t, "optimized", cur.Configuration.Name)
	third, err := db.Configuration(ctx, sys.ID, "3")
	require.NoError(t, err)
	assert.Equal(t, "configuration_3", third.Name)
}

func TestExecute_SelectByReference(t *testing.T) {
	db := systemdb.NewMemory()
	ctx := context.Background()
	for _, name := range []string{"water", "ethanol"} {
		_, err := db.CreateSystem(ctx, name)
		require.NoError(t, err)
	}

	_, err := runStep(t, db, Values{KeySystem: "-1"}, nil)
	require.NoError(t, err)
	cur, err := db.System(ctx, systemdb.RefCurrent)
	require.NoError(t, err)
	assert.Equal(t, "ethanol", cur.Name)

	_, err = runStep(t, db, Values{KeySystem: "$which"}, map[string]any{"which": "water"})
	require.NoError(t, err)
	cur, err = db.System(ctx, systemdb.RefCurrent)
	require.NoError(t, err)
	assert.Equal(t, "water", cur.Name)

	_, err = runStep(t, db, Values{KeySystem: "benzene"}, nil)
	assert.ErrorIs(t, err, systemdb.ErrNotFound)
}

func TestExecute_InFlowchart(t *testing.T) {
	registry := flowchart.NewRegistry()
	Register(registry)
	engine := flowchart.NewEngine(registry)
	db := systemdb.NewMemory()

	state := &flowchart.ExecutionState{
		Variables: map[string]any{"system_name": "water"},
		SystemDB:  db,
	}
	results, err := engine.Execute(context.Background(), flowchart.SampleFlowchart(), state)
	require.NoError(t, err)
	assert.Equal(t, "completed", results.Status)
	require.Len(t, results.Steps, 3)
	assert.Equal(t, NodeType, results.Steps[1].NodeType)
	assert.Contains(t, results.Steps[1].Output["description"], "'water'")

	cur, err := db.System(context.Background(), systemdb.RefCurrent)
	require.NoError(t, err)
	assert.Equal(t, "water", cur.Name)

	// Running again creates another system: the step is not idempotent.
	results, err = engine.Execute(context.Background(), flowchart.SampleFlowchart(), state)
	require.NoError(t, err)
	assert.Equal(t, "completed", results.Status)
	summary, err := db.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.NSystems)
	assert.Equal(t, 2, summary.CurrentSystem)
}

func TestExecute_InFlowchartCopyFails(t *testing.T) {
	registry := flowchart.NewRegistry()
	Register(registry)
	engine := flowchart.NewEngine(registry)

	fc := flowchart.SampleFlowchart()
	fc.Nodes[1].Data.Parameters = map[string]flowchart.ParameterValue{
		KeySystemOperation: {Value: OpCopySystem},
	}

	results, err := engine.Execute(context.Background(), fc, &flowchart.ExecutionState{SystemDB: systemdb.NewMemory()})
	require.NoError(t, err)
	assert.Equal(t, "failed", results.Status)
	require.Len(t, results.Steps, 2)
	assert.Contains(t, results.Steps[1].Error, "cannot copy systems yet")
}
