package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlagStore(t *testing.T) *FlagStore {
	t.Helper()
	return NewFlagStore(filepath.Join(t.TempDir(), "config", "feature_flags.json"))
}

func TestFlagStoreDefaultsWhenFileMissing(t *testing.T) {
	store := newTestFlagStore(t)
	flags := store.Current()
	assert.False(t, flags.EnableAnomalyDetection)
	assert.False(t, flags.EnableAnomalyCorrection)
	assert.False(t, flags.EnableAnomalyVisualization)
}

func TestFlagStoreSaveLoad(t *testing.T) {
	store := newTestFlagStore(t)
	require.NoError(t, store.Save(FeatureFlags{
		EnableAnomalyDetection:  true,
		EnableAnomalyCorrection: true,
	}))

	flags := store.Current()
	assert.True(t, flags.EnableAnomalyDetection)
	assert.True(t, flags.EnableAnomalyCorrection)
	assert.False(t, flags.EnableAnomalyVisualization)
}

func TestFlagStoreEnableDisable(t *testing.T) {
	store := newTestFlagStore(t)

	require.NoError(t, store.EnableFeature(FlagAnomalyDetection))
	assert.True(t, store.Current().EnableAnomalyDetection)

	require.NoError(t, store.DisableFeature(FlagAnomalyDetection))
	assert.False(t, store.Current().EnableAnomalyDetection)

	assert.Error(t, store.EnableFeature("no_such_flag"))
}

func TestFlagStoreCorruptFileYieldsDefaults(t *testing.T) {
	store := newTestFlagStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path), 0o755))
	require.NoError(t, os.WriteFile(store.Path, []byte("{not json"), 0o644))

	assert.Equal(t, FeatureFlags{}, store.Current())
}

func TestIsFeatureEnabledByName(t *testing.T) {
	flags := FeatureFlags{EnableAnomalyVisualization: true}
	assert.True(t, flags.IsFeatureEnabled(FlagAnomalyVisualization))
	assert.False(t, flags.IsFeatureEnabled(FlagAnomalyDetection))
	assert.False(t, flags.IsFeatureEnabled("unknown"))
}
