// Package snapshot persists the fully-resolved configuration of a run under
// a timestamped directory, one snapshot per run, so every experiment can be
// reproduced from its own artifacts.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/floodcast/segconf/internal/document"
	"github.com/floodcast/segconf/internal/resolver"
)

// FileName is the snapshot file written inside each run directory.
const FileName = "config.yaml"

// Mode decides what happens when the run directory already exists.
type Mode string

const (
	// ModeRaiseExists refuses to touch an existing run directory.
	ModeRaiseExists Mode = "raise_exists"
	// ModeOverwrite replaces an existing run directory.
	ModeOverwrite Mode = "overwrite"
	// ModeAppend picks the next free numbered suffix next to an existing
	// run directory.
	ModeAppend Mode = "append"
)

// ErrRunDirExists is returned in ModeRaiseExists when the run directory is
// already present.
var ErrRunDirExists = errors.New("run directory already exists")

// ParseMode validates a write-mode string from the configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRaiseExists, ModeOverwrite, ModeAppend:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown write mode %q", s)
	}
}

// Write marshals the resolved tree into <runDir>/<job>_<timestamp>/config.yaml
// and returns the run directory it created.
func Write(runDir string, rctx resolver.RuntimeContext, tree document.Map, mode Mode) (string, error) {
	dir, err := prepareDir(runDir, runDirName(rctx), mode)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(map[string]any(tree))
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return dir, nil
}

func runDirName(rctx resolver.RuntimeContext) string {
	if rctx.JobName == "" {
		return rctx.Timestamp()
	}
	return rctx.JobName + "_" + rctx.Timestamp()
}

func prepareDir(runDir, name string, mode Mode) (string, error) {
	dir := filepath.Join(runDir, name)

	if _, err := os.Stat(dir); err == nil {
		switch mode {
		case ModeRaiseExists:
			return "", fmt.Errorf("%w: %s", ErrRunDirExists, dir)
		case ModeOverwrite:
			if err := os.RemoveAll(dir); err != nil {
				return "", fmt.Errorf("remove existing run directory: %w", err)
			}
		case ModeAppend:
			next, err := nextFreeDir(runDir, name)
			if err != nil {
				return "", err
			}
			dir = next
		default:
			return "", fmt.Errorf("unknown write mode %q", mode)
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat run directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}
	return dir, nil
}

func nextFreeDir(runDir, name string) (string, error) {
	for i := 1; ; i++ {
		candidate := filepath.Join(runDir, fmt.Sprintf("%s_%d", name, i))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("stat run directory: %w", err)
		}
	}
}
