package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/pitstop-ai/pitsim/api"
	"github.com/pitstop-ai/pitsim/sim"
	"github.com/pitstop-ai/pitsim/sim/lapdata"
)

// resolveSimulationConfig returns the model from --sim-config, or the stock
// defaults when no file is given.
func resolveSimulationConfig(path string) (sim.SimulationConfig, error) {
	if path == "" {
		return sim.DefaultSimulationConfig(), nil
	}
	cfg, err := sim.LoadSimulationConfig(path)
	if err != nil {
		return cfg, err
	}
	logrus.Debugf("Loaded simulation config from %s", path)
	return cfg, nil
}

// loadRequestFile parses a run_sim request from a YAML (.yaml, .yml) or JSON file.
// YAML is parsed with strict field checking so typos surface as errors.
func loadRequestFile(path string) (*api.RunSimRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}
	var req api.RunSimRequest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&req); err != nil {
			return nil, fmt.Errorf("parsing request YAML: %w", err)
		}
	default:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			return nil, fmt.Errorf("parsing request JSON: %w", err)
		}
	}
	return &req, nil
}

// loadLaps reads the lap table selected by --laps and --race.
func loadLaps(ctx context.Context, path, race string) (*sim.LapTable, error) {
	table, err := lapdata.Open(path, race).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading laps from %s: %w", path, err)
	}
	logrus.Debugf("Loaded %d laps from %s", table.Len(), path)
	return table, nil
}

// buildSimRequest loads and validates every input of a simulation command.
func buildSimRequest(ctx context.Context, requestPath string) (sim.Request, error) {
	cfg, err := resolveSimulationConfig(simConfigPath)
	if err != nil {
		return sim.Request{}, err
	}
	laps, err := loadLaps(ctx, lapsPath, race)
	if err != nil {
		return sim.Request{}, err
	}
	raw, err := loadRequestFile(requestPath)
	if err != nil {
		return sim.Request{}, err
	}
	norm, err := raw.Normalize(cfg.MCSamples)
	if err != nil {
		return sim.Request{}, err
	}
	return norm.SimRequest(laps, cfg, seed), nil
}

// writeOutput encodes v as indented JSON to path, or to stdout when path is empty.
func writeOutput(path string, v any) error {
	out := os.Stdout
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
