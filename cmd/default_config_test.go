package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitstop-ai/pitsim/internal/testutil"
	"github.com/pitstop-ai/pitsim/sim"
)

// withGlobals points the shared command flags at test inputs for the duration of t.
func withGlobals(t *testing.T, laps, simConfig string) {
	t.Helper()
	oldLaps, oldRace, oldSimConfig, oldSeed := lapsPath, race, simConfigPath, seed
	t.Cleanup(func() {
		lapsPath, race, simConfigPath, seed = oldLaps, oldRace, oldSimConfig, oldSeed
	})
	lapsPath, race, simConfigPath, seed = laps, "default", simConfig, sim.DefaultSeed
}

func TestLoadRequestFile_YAML(t *testing.T) {
	req, err := loadRequestFile(testutil.RepoPath(t, "data", "example_request.yaml"))
	require.NoError(t, err)

	require.NotNil(t, req.BaseLap)
	assert.Equal(t, 10, *req.BaseLap)
	assert.Equal(t, sim.CompoundSoft, req.CurrentCompound)
	require.Len(t, req.Candidates, 2)
	assert.Equal(t, sim.CompoundHard, req.Candidates[1].Compound)
	require.NotNil(t, req.SCWindow)
	assert.Equal(t, 13, req.SCWindow.StartLap)
}

func TestLoadRequestFile_JSON(t *testing.T) {
	path := testutil.WriteFile(t, "req.json", `{"base_lap": 3, "base_target_gap_s": 0.5,
		"current_compound": "MEDIUM", "current_tire_age": 4,
		"candidates": [{"pit_lap": 5, "compound": "hard"}]}`)

	req, err := loadRequestFile(path)
	require.NoError(t, err)
	assert.Equal(t, sim.CompoundMedium, req.CurrentCompound)
	assert.Equal(t, 0.5, *req.BaseTargetGapS)
}

func TestLoadRequestFile_UnknownFieldsRejected(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{"yaml", "req.yaml", "base_lap: 3\npit_lap: 5\n"},
		{"json", "req.json", `{"base_lap": 3, "pit_lap": 5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadRequestFile(testutil.WriteFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "parsing request")
		})
	}
}

func TestResolveSimulationConfig(t *testing.T) {
	cfg, err := resolveSimulationConfig("")
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultSimulationConfig(), cfg)

	path := testutil.WriteFile(t, "sim.yaml", "mc_samples: 50\n")
	cfg, err = resolveSimulationConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.MCSamples)
}

func TestBuildSimRequest_ConfigSamplesAreRequestDefault(t *testing.T) {
	// GIVEN a model config with 50 samples and a request that does not set mc_samples
	lapsFile := testutil.WriteFile(t, "laps.csv", testutil.FlatLapsCSV(1, 20, 90))
	withGlobals(t, lapsFile, testutil.WriteFile(t, "sim.yaml", "mc_samples: 50\n"))
	reqFile := testutil.WriteFile(t, "req.yaml", `
base_lap: 1
base_target_gap_s: 0
current_compound: soft
current_tire_age: 2
candidates:
  - pit_lap: 5
    compound: medium
`)

	// WHEN the request is built
	req, err := buildSimRequest(context.Background(), reqFile)
	require.NoError(t, err)

	// THEN the config sample count applies
	assert.Equal(t, 50, req.Config.MCSamples)
	assert.Equal(t, 20, req.Laps.Len())
	assert.Equal(t, sim.DefaultSeed, req.Seed)
}

func TestBuildSimRequest_InvalidRequest(t *testing.T) {
	withGlobals(t, testutil.WriteFile(t, "laps.csv", testutil.FlatLapsCSV(1, 20, 90)), "")
	reqFile := testutil.WriteFile(t, "req.yaml", "base_lap: 1\n")

	_, err := buildSimRequest(context.Background(), reqFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_target_gap_s is required")
}

func TestWriteOutput_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, writeOutput(path, map[string]int{"laps": 3}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]int
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]int{"laps": 3}, got)
}
