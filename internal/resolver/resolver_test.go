package resolver

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/floodcast/segconf/internal/document"
)

func testContext() RuntimeContext {
	return RuntimeContext{
		WorkDir:   "/srv/experiments",
		JobName:   "flood-a",
		StartedAt: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestResolveFullValueReference(t *testing.T) {
	t.Parallel()

	tree := document.Map{
		"training":  document.Map{"learning_rate": 0.0001},
		"optimizer": document.Map{"params": document.Map{"lr": "${training.learning_rate}"}},
	}

	resolved, err := Resolve(tree, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := resolved.Get("optimizer.params.lr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0.0001 {
		t.Fatalf("expected referent value with its original type, got %#v", got)
	}
}

func TestResolveEmbeddedReference(t *testing.T) {
	t.Parallel()

	tree := document.Map{
		"general": document.Map{
			"project_name": "flood-segmentation",
			"run_label":    "${general.project_name}_run_${training.batch_size}",
		},
		"training": document.Map{"batch_size": 8},
	}

	resolved, err := Resolve(tree, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := resolved.Get("general.run_label")
	if got != "flood-segmentation_run_8" {
		t.Fatalf("unexpected interpolation: %v", got)
	}
}

func TestResolveMappingReferent(t *testing.T) {
	t.Parallel()

	t.Run("FullValueSubstitutesWholeMapping", func(t *testing.T) {
		tree := document.Map{
			"loss":      document.Map{"loss_name": "CrossEntropy", "params": document.Map{"ignore_index": -1}},
			"scheduler": document.Map{"monitor": "${loss}"},
		}

		resolved, err := Resolve(tree, testContext())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, _ := resolved.Get("scheduler.monitor")
		want := document.Map{"loss_name": "CrossEntropy", "params": document.Map{"ignore_index": -1}}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected whole mapping substitution, got %#v", got)
		}
	})

	t.Run("EmbeddedRejectsMapping", func(t *testing.T) {
		tree := document.Map{
			"loss":      document.Map{"loss_name": "CrossEntropy"},
			"scheduler": document.Map{"monitor": "watching ${loss} closely"},
		}

		_, err := Resolve(tree, testContext())
		var unresolved *UnresolvedReferenceError
		if !errors.As(err, &unresolved) {
			t.Fatalf("expected UnresolvedReferenceError, got %v", err)
		}
	})
}

func TestResolveDanglingReference(t *testing.T) {
	t.Parallel()

	tree := document.Map{"a": "${nowhere.at.all}"}

	_, err := Resolve(tree, testContext())
	var unresolved *UnresolvedReferenceError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedReferenceError, got %v", err)
	}
	var notFound *document.KeyNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected wrapped KeyNotFoundError, got %v", err)
	}
}

func TestResolveCycles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tree document.Map
	}{
		{
			name: "SelfReference",
			tree: document.Map{"a": "${a}"},
		},
		{
			name: "LengthTwo",
			tree: document.Map{"a": "${b}", "b": "${a}"},
		},
		{
			name: "LengthThree",
			tree: document.Map{"a": "${b}", "b": "${c}", "c": "${a}"},
		},
		{
			name: "CycleThroughNestedMapping",
			tree: document.Map{
				"loss":      document.Map{"monitor": "${scheduler}"},
				"scheduler": document.Map{"target": "${loss}"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan error, 1)
			go func() {
				_, err := Resolve(tt.tree, testContext())
				done <- err
			}()

			select {
			case err := <-done:
				var unresolved *UnresolvedReferenceError
				if !errors.As(err, &unresolved) {
					t.Fatalf("expected UnresolvedReferenceError, got %v", err)
				}
				if len(unresolved.Cycle) < 2 {
					t.Fatalf("expected cycle trace, got %#v", unresolved.Cycle)
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("resolution did not terminate")
			}
		})
	}
}

func TestResolveRuntimeNamespace(t *testing.T) {
	t.Parallel()

	tree := document.Map{
		"general": document.Map{
			"work_dir":         "${runtime.work_dir}",
			"workspace":        "${runtime.job_name}",
			"save_weights_dir": "${runtime.work_dir}/runs/${runtime.timestamp}",
		},
	}

	resolved, err := Resolve(tree, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, _ := resolved.Get("general.work_dir"); got != "/srv/experiments" {
		t.Fatalf("unexpected work_dir: %v", got)
	}
	if got, _ := resolved.Get("general.workspace"); got != "flood-a" {
		t.Fatalf("unexpected workspace: %v", got)
	}
	if got, _ := resolved.Get("general.save_weights_dir"); got != "/srv/experiments/runs/2026-03-14_09-26-53" {
		t.Fatalf("unexpected save_weights_dir: %v", got)
	}
}

func TestResolveUnknownRuntimeFact(t *testing.T) {
	t.Parallel()

	tree := document.Map{"a": "${runtime.hostname}"}

	_, err := Resolve(tree, testContext())
	var unresolved *UnresolvedReferenceError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedReferenceError, got %v", err)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	t.Parallel()

	tree := document.Map{
		"training":  document.Map{"learning_rate": 0.0001, "batch_size": 8},
		"optimizer": document.Map{"params": document.Map{"lr": "${training.learning_rate}"}},
		"general":   document.Map{"label": "bs_${training.batch_size}"},
	}

	once, err := Resolve(tree, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := Resolve(once, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("resolution is not idempotent:\nonce:  %#v\ntwice: %#v", once, twice)
	}
}

func TestResolveChainedReferences(t *testing.T) {
	t.Parallel()

	tree := document.Map{
		"a": "${b}",
		"b": "${c}",
		"c": 42,
	}

	resolved, err := Resolve(tree, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := resolved.Get("a"); got != 42 {
		t.Fatalf("expected chained resolution to 42, got %v", got)
	}
}

func TestResolveLeavesPlainStringsUntouched(t *testing.T) {
	t.Parallel()

	tree := document.Map{"model": document.Map{"model_name": "deeplabv3_resnet101"}}

	resolved, err := Resolve(tree, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(resolved, tree) {
		t.Fatalf("tree without references should be unchanged: %#v", resolved)
	}
}
