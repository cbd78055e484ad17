// Package resolver substitutes ${dotted.path} references in a configuration
// tree. Resolution is a separate pass over an already-merged document:
// every leaf is visited once, referenced values are evaluated depth-first,
// and a visited set makes reference cycles a hard error instead of a hang.
package resolver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/floodcast/segconf/internal/document"
)

// runtimeNamespace is the reserved reference prefix backed by the
// RuntimeContext rather than the document itself.
const runtimeNamespace = "runtime."

var refPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_][A-Za-z0-9_.-]*)\}`)

// RuntimeContext carries the runtime facts a configuration is allowed to
// reference under the runtime.* namespace. It replaces implicit lookups of
// the working directory or job name inside the resolver.
type RuntimeContext struct {
	WorkDir   string
	JobName   string
	StartedAt time.Time
}

// Timestamp returns the run timestamp in the form used for run directories.
func (c RuntimeContext) Timestamp() string {
	return c.StartedAt.Format("2006-01-02_15-04-05")
}

func (c RuntimeContext) lookup(path string) (any, bool) {
	switch strings.TrimPrefix(path, runtimeNamespace) {
	case "work_dir":
		return c.WorkDir, true
	case "job_name":
		return c.JobName, true
	case "timestamp":
		return c.Timestamp(), true
	default:
		return nil, false
	}
}

// UnresolvedReferenceError reports a dangling or cyclic reference.
type UnresolvedReferenceError struct {
	Ref   string   // the referenced dotted path
	Cycle []string // non-empty when the failure is a reference cycle
	Err   error
}

func (e *UnresolvedReferenceError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("reference cycle detected: %s", strings.Join(e.Cycle, " -> "))
	}
	if e.Err != nil {
		return fmt.Sprintf("unresolved reference ${%s}: %v", e.Ref, e.Err)
	}
	return fmt.Sprintf("unresolved reference ${%s}", e.Ref)
}

func (e *UnresolvedReferenceError) Unwrap() error {
	return e.Err
}

// Resolve returns a copy of tree with every ${path} reference substituted.
// A leaf that is exactly one reference takes the referent's value of any
// shape, mappings included; references embedded in a longer string require a
// scalar referent and splice in its text form. Resolving an already-resolved
// tree returns an equal tree.
func Resolve(tree document.Map, rctx RuntimeContext) (document.Map, error) {
	r := &resolution{tree: tree, rctx: rctx, active: map[string]bool{}}
	out, err := r.value(tree)
	if err != nil {
		return nil, err
	}
	return out.(document.Map), nil
}

type resolution struct {
	tree   document.Map
	rctx   RuntimeContext
	active map[string]bool // reference paths on the current evaluation stack
	stack  []string
}

func (r *resolution) value(v any) (any, error) {
	switch t := v.(type) {
	case document.Map:
		out := make(document.Map, len(t))
		for k, val := range t {
			resolved, err := r.value(val)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			resolved, err := r.value(val)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case string:
		return r.leaf(t)
	default:
		return v, nil
	}
}

func (r *resolution) leaf(s string) (any, error) {
	matches := refPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	// Full-value reference: substitute the referent whatever its shape.
	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		return r.reference(s[matches[0][2]:matches[0][3]])
	}

	// Embedded references splice scalar referents into the surrounding text.
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		path := s[m[2]:m[3]]
		resolved, err := r.reference(path)
		if err != nil {
			return nil, err
		}
		text, err := scalarText(resolved)
		if err != nil {
			return nil, &UnresolvedReferenceError{Ref: path, Err: err}
		}
		b.WriteString(text)
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

func (r *resolution) reference(path string) (any, error) {
	if r.active[path] {
		cycle := append(append([]string{}, r.stack...), path)
		return nil, &UnresolvedReferenceError{Ref: path, Cycle: cycle}
	}

	var raw any
	if strings.HasPrefix(path, runtimeNamespace) {
		v, ok := r.rctx.lookup(path)
		if !ok {
			return nil, &UnresolvedReferenceError{
				Ref: path,
				Err: fmt.Errorf("unknown runtime fact %q", strings.TrimPrefix(path, runtimeNamespace)),
			}
		}
		raw = v
	} else {
		v, err := r.tree.Get(path)
		if err != nil {
			return nil, &UnresolvedReferenceError{Ref: path, Err: err}
		}
		raw = v
	}

	r.active[path] = true
	r.stack = append(r.stack, path)
	resolved, err := r.value(raw)
	r.stack = r.stack[:len(r.stack)-1]
	delete(r.active, path)
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func scalarText(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case nil:
		return "", fmt.Errorf("referent is null, cannot embed in a string")
	default:
		return "", fmt.Errorf("referent is a %T, only scalars can be embedded in a string", v)
	}
}
