package systemdb

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMemory_CreateSystem_DefaultName(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()

	sys, err := db.CreateSystem(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "system_1", sys.Name)
	require.NotNil(t, sys.Configuration)
	assert.Equal(t, "configuration_1", sys.Configuration.Name)
	assert.Equal(t, sys.ID, sys.Configuration.SystemID)

	sys2, err := db.CreateSystem(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "system_2", sys2.Name)
}

func TestMemory_FirstSystemBecomesCurrent(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()

	_, err := db.System(ctx, RefCurrent)
	assert.ErrorIs(t, err, ErrNoCurrentSystem)

	first, err := db.CreateSystem(ctx, "water")
	require.NoError(t, err)
	_, err = db.CreateSystem(ctx, "ethanol")
	require.NoError(t, err)

	cur, err := db.System(ctx, RefCurrent)
	require.NoError(t, err)
	assert.Equal(t, first.ID, cur.ID)
}

func TestMemory_SystemReferences(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()
	for _, name := range []string{"water", "ethanol", "benzene"} {
		_, err := db.CreateSystem(ctx, name)
		require.NoError(t, err)
	}

	tests := []struct {
		ref  string
		want string
	}{
		{"1", "water"},
		{"3", "benzene"},
		{"-1", "benzene"},
		{"-3", "water"},
		{"ethanol", "ethanol"},
		{RefCurrent, "water"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			sys, err := db.System(ctx, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sys.Name)
		})
	}

	_, err := db.System(ctx, "4")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.System(ctx, "-4")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.System(ctx, "toluene")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Configurations(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()

	sys, err := db.CreateSystem(ctx, "water")
	require.NoError(t, err)

	conf, err := db.CreateConfiguration(ctx, sys.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "configuration_2", conf.Name)

	named, err := db.CreateConfiguration(ctx, sys.ID, "optimized")
	require.NoError(t, err)

	// Creating does not move the current configuration.
	cur, err := db.Configuration(ctx, sys.ID, RefCurrent)
	require.NoError(t, err)
	assert.Equal(t, "configuration_1", cur.Name)

	require.NoError(t, db.SetCurrentConfiguration(ctx, sys.ID, named.ID))
	got, err := db.System(ctx, RefCurrent)
	require.NoError(t, err)
	assert.Equal(t, "optimized", got.Configuration.Name)

	byName, err := db.Configuration(ctx, sys.ID, "configuration_2")
	require.NoError(t, err)
	assert.Equal(t, conf.ID, byName.ID)

	last, err := db.Configuration(ctx, sys.ID, "-1")
	require.NoError(t, err)
	assert.Equal(t, named.ID, last.ID)

	_, err = db.CreateConfiguration(ctx, 999, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.SetCurrentConfiguration(ctx, sys.ID, 999), ErrNotFound)
}

func TestMemory_Summary(t *testing.T) {
	db := NewMemory()
	ctx := context.Background()

	s, err := db.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, s)

	_, err = db.CreateSystem(ctx, "water")
	require.NoError(t, err)
	second, err := db.CreateSystem(ctx, "ethanol")
	require.NoError(t, err)
	_, err = db.CreateConfiguration(ctx, second.ID, "")
	require.NoError(t, err)
	require.NoError(t, db.SetCurrentSystem(ctx, second.ID))

	s, err = db.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{NSystems: 2, CurrentSystem: 2, NConfigurations: 2, CurrentConfiguration: 1}, s)

	assert.ErrorIs(t, db.SetCurrentSystem(ctx, 999), ErrNotFound)
}

func TestMemory_ConcurrentCreate(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sys, err := m.CreateSystem(ctx, "")
			assert.NoError(t, err)
			_, err = m.CreateConfiguration(ctx, sys.ID, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	summary, err := m.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, summary.NSystems)
	assert.Equal(t, 1, summary.CurrentSystem)
	assert.Equal(t, 2, summary.NConfigurations)

	// Default names stay unique under contention.
	names := make(map[string]bool)
	for i := 1; i <= 20; i++ {
		sys, err := m.System(ctx, fmt.Sprint(i))
		require.NoError(t, err)
		names[sys.Name] = true
	}
	assert.Len(t, names, 20)
}
