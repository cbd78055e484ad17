package application

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/floodcast/segconf/internal/document"
	"github.com/floodcast/segconf/internal/resolver"
	"github.com/floodcast/segconf/internal/schema"
	"github.com/floodcast/segconf/internal/snapshot"
)

// Options controls one load of the configuration pipeline.
// Precedence, lowest to highest: built-in defaults, ConfigFile,
// OverrideFiles in order, SetOverrides in order.
type Options struct {
	ConfigFile    string
	OverrideFiles []string
	SetOverrides  []string // dotted key=value pairs, values parsed as YAML
	JobName       string
	WorkDir       string // defaults to the current working directory
	RunDir        string // defaults to <general.work_dir>/runs
	WriteSnapshot bool
	SnapshotMode  snapshot.Mode
}

// RunConfig is the immutable result of a load: the resolved tree, its typed
// view, the runtime facts it was resolved against, and where the snapshot
// was written (empty when snapshotting was disabled).
type RunConfig struct {
	Tree        document.Map
	Config      *schema.Config
	Runtime     resolver.RuntimeContext
	SnapshotDir string
}

// Load runs the full pipeline. Any schema, reference, or validation failure
// aborts before a snapshot is written.
func Load(opts Options, logger *zap.Logger) (*RunConfig, error) {
	merged, err := mergeLayers(opts, logger)
	if err != nil {
		return nil, err
	}

	rctx, err := runtimeContext(opts)
	if err != nil {
		return nil, err
	}

	resolved, err := resolver.Resolve(merged, rctx)
	if err != nil {
		return nil, fmt.Errorf("resolve references: %w", err)
	}

	cfg, err := schema.Decode(resolved)
	if err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	if err := schema.Validate(cfg); err != nil {
		return nil, err
	}

	run := &RunConfig{Tree: resolved, Config: cfg, Runtime: rctx}

	if opts.WriteSnapshot {
		dir, err := writeSnapshot(opts, run)
		if err != nil {
			return nil, err
		}
		run.SnapshotDir = dir
		logger.Info("configuration snapshot written",
			zap.String("dir", dir),
			zap.String("project", cfg.General.ProjectName),
		)
	}

	return run, nil
}

func mergeLayers(opts Options, logger *zap.Logger) (document.Map, error) {
	merged, err := schema.Defaults()
	if err != nil {
		return nil, err
	}

	if opts.ConfigFile != "" {
		merged, err = mergeFile(merged, opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		logger.Debug("merged base configuration", zap.String("file", opts.ConfigFile))
	}

	for _, path := range opts.OverrideFiles {
		merged, err = mergeFile(merged, path)
		if err != nil {
			return nil, err
		}
		logger.Debug("merged override file", zap.String("file", path))
	}

	for _, assignment := range opts.SetOverrides {
		key, value, err := splitAssignment(assignment)
		if err != nil {
			return nil, err
		}
		if err := merged.Set(key, document.ParseValue(value)); err != nil {
			return nil, fmt.Errorf("apply override %q: %w", assignment, err)
		}
		logger.Debug("applied key override", zap.String("key", key))
	}

	return merged, nil
}

func mergeFile(base document.Map, path string) (document.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration file: %w", err)
	}
	doc, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return document.Merge(base, doc), nil
}

func splitAssignment(assignment string) (key, value string, err error) {
	key, value, ok := strings.Cut(assignment, "=")
	if !ok || key == "" {
		return "", "", fmt.Errorf("override %q must have the form key.path=value", assignment)
	}
	return key, value, nil
}

func runtimeContext(opts Options) (resolver.RuntimeContext, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return resolver.RuntimeContext{}, fmt.Errorf("determine working directory: %w", err)
		}
		workDir = cwd
	}
	return resolver.RuntimeContext{
		WorkDir:   workDir,
		JobName:   opts.JobName,
		StartedAt: time.Now(),
	}, nil
}

func writeSnapshot(opts Options, run *RunConfig) (string, error) {
	runDir := opts.RunDir
	if runDir == "" {
		runDir = filepath.Join(run.Config.General.WorkDir, "runs")
	}
	mode := opts.SnapshotMode
	if mode == "" {
		mode = snapshot.ModeRaiseExists
	}
	dir, err := snapshot.Write(runDir, run.Runtime, run.Tree, mode)
	if err != nil {
		return "", fmt.Errorf("persist snapshot: %w", err)
	}
	return dir, nil
}
