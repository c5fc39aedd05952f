// Package engine executes sweeps: array-parametrized computations fanned
// out over zipped array inputs, with every result persisted under a run
// folder so progress can be reconstructed from disk alone.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sweeplab/sweeprun/internal/runs"
)

// OutputSpec declares one sweep output.
type OutputSpec struct {
	Name string
	Kind runs.OutputKind
}

// Sweep describes what a run computes.
type Sweep struct {
	Name    string
	Outputs []OutputSpec
}

// ArrayOutputs returns the names of array-kind outputs, in declaration order.
func (s Sweep) ArrayOutputs() []string {
	var names []string
	for _, o := range s.Outputs {
		if o.Kind == runs.KindArray {
			names = append(names, o.Name)
		}
	}
	return names
}

// FileOutputs returns the names of file-kind outputs, in declaration order.
func (s Sweep) FileOutputs() []string {
	var names []string
	for _, o := range s.Outputs {
		if o.Kind == runs.KindFile {
			names = append(names, o.Name)
		}
	}
	return names
}

// Step computes sweep points. Implementations must respect context
// cancellation; the engine checks the context between points but an
// in-flight point is only interrupted through its own context handling.
type Step interface {
	// ComputePoint evaluates one sweep point and returns a value for
	// every array output.
	ComputePoint(ctx context.Context, point map[string]any) (map[string]any, error)

	// Reduce turns the collected array results into the file outputs.
	// Called once, after every point has completed.
	Reduce(ctx context.Context, results map[string][]any) (map[string]any, error)
}

// Engine runs sweeps with a bounded worker pool.
type Engine struct {
	step    Step
	workers int
	logger  *slog.Logger
}

// New creates an Engine. workers <= 0 falls back to a single worker.
func New(step Step, workers int, logger *slog.Logger) *Engine {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{step: step, workers: workers, logger: logger}
}

// Run executes a sweep and blocks until it finishes. The returned map
// holds a []any per array output and a single value per file output.
func (e *Engine) Run(ctx context.Context, sweep Sweep, inputs map[string]any, runFolder string) (map[string]any, error) {
	prepared, err := e.prepare(sweep, inputs, runFolder)
	if err != nil {
		return nil, err
	}
	return e.execute(ctx, prepared, newTracker(sweep, prepared.n))
}

// RunAsync schedules a sweep and returns a live handle as soon as the
// background work has been started. It never waits for completion.
func (e *Engine) RunAsync(ctx context.Context, sweep Sweep, inputs map[string]any, runFolder string) (*Handle, error) {
	prepared, err := e.prepare(sweep, inputs, runFolder)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h := &Handle{
		cancel:  cancel,
		tracker: newTracker(sweep, prepared.n),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		result, err := e.execute(runCtx, prepared, h.tracker)
		h.mu.Lock()
		h.result = result
		h.err = err
		h.mu.Unlock()
	}()

	return h, nil
}

// preparedSweep is a validated sweep with its run folder initialized.
type preparedSweep struct {
	sweep     Sweep
	runFolder string
	scalars   map[string]any
	arrays    map[string][]any
	n         int
}

// prepare validates inputs, splits array axes from constants and writes
// the run descriptor. Everything here happens synchronously at dispatch
// time, before RunAsync returns.
func (e *Engine) prepare(sweep Sweep, inputs map[string]any, runFolder string) (*preparedSweep, error) {
	if runFolder == "" {
		return nil, fmt.Errorf("run folder is required")
	}

	scalars, arrays, n, err := splitInputs(inputs)
	if err != nil {
		return nil, err
	}

	meta := &runs.Metadata{
		FormatVersion: runs.FormatVersion,
		SweepName:     sweep.Name,
		CreatedAt:     time.Now().UTC(),
		Outputs:       make(map[string]runs.OutputDescriptor, len(sweep.Outputs)),
	}
	for _, out := range sweep.Outputs {
		switch out.Kind {
		case runs.KindArray:
			meta.Outputs[out.Name] = runs.OutputDescriptor{
				Kind:          runs.KindArray,
				Shape:         []int{n},
				ShapeResolved: true,
				Location:      filepath.Join("outputs", out.Name),
			}
		case runs.KindFile:
			meta.Outputs[out.Name] = runs.OutputDescriptor{
				Kind:     runs.KindFile,
				Location: filepath.Join("outputs", out.Name+".json"),
			}
		default:
			return nil, fmt.Errorf("output %s has unknown kind %q", out.Name, out.Kind)
		}
	}
	if err := runs.WriteMetadata(runFolder, meta); err != nil {
		return nil, err
	}

	return &preparedSweep{
		sweep:     sweep,
		runFolder: runFolder,
		scalars:   scalars,
		arrays:    arrays,
		n:         n,
	}, nil
}

// execute runs every sweep point through the worker pool, persists
// element files as points finish, then reduces the file outputs.
func (e *Engine) execute(ctx context.Context, p *preparedSweep, tracker *Tracker) (map[string]any, error) {
	arrayNames := p.sweep.ArrayOutputs()
	for _, name := range arrayNames {
		dir := filepath.Join(p.runFolder, "outputs", name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir %s: %w", name, err)
		}
	}

	collected := make(map[string][]any, len(arrayNames))
	for _, name := range arrayNames {
		collected[name] = make([]any, p.n)
	}
	var collectMu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := 0; i < p.n; i++ {
		// Cooperative cancellation checkpoint between points.
		if err := gCtx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			values, err := e.step.ComputePoint(gCtx, p.point(i))
			if err != nil {
				tracker.pointFailed(arrayNames)
				return fmt.Errorf("sweep point %d: %w", i, err)
			}

			for j, name := range arrayNames {
				// A mid-point failure counts only against the outputs not
				// already recorded done for this point.
				v, ok := values[name]
				if !ok {
					tracker.pointFailed(arrayNames[j:])
					return fmt.Errorf("sweep point %d: step returned no value for output %s", i, name)
				}
				if err := writeElement(p.runFolder, name, i, v); err != nil {
					tracker.pointFailed(arrayNames[j:])
					return err
				}
				collectMu.Lock()
				collected[name][i] = v
				collectMu.Unlock()
				tracker.elementDone(name)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.logger.Error("sweep aborted", "run_folder", p.runFolder, "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make(map[string]any, len(p.sweep.Outputs))
	for _, name := range arrayNames {
		result[name] = collected[name]
	}

	fileNames := p.sweep.FileOutputs()
	if len(fileNames) > 0 {
		reduced, err := e.step.Reduce(ctx, collected)
		if err != nil {
			return nil, fmt.Errorf("reduce: %w", err)
		}
		for _, name := range fileNames {
			v, ok := reduced[name]
			if !ok {
				return nil, fmt.Errorf("reduce returned no value for output %s", name)
			}
			if err := writeFileOutput(p.runFolder, name, v); err != nil {
				return nil, err
			}
			tracker.fileDone(name)
			result[name] = v
		}
	}

	e.logger.Info("sweep finished",
		"run_folder", p.runFolder,
		"points", p.n,
		"outputs", len(p.sweep.Outputs))

	return result, nil
}

// point assembles the inputs for one sweep position: every constant plus
// the i-th element of each array input.
func (p *preparedSweep) point(i int) map[string]any {
	point := make(map[string]any, len(p.scalars)+len(p.arrays))
	for k, v := range p.scalars {
		point[k] = v
	}
	for k, vs := range p.arrays {
		point[k] = vs[i]
	}
	return point
}

// splitInputs partitions inputs into constants and array axes. All array
// inputs are zipped, so their lengths must agree; with no array input the
// sweep collapses to a single point.
func splitInputs(inputs map[string]any) (scalars map[string]any, arrays map[string][]any, n int, err error) {
	scalars = make(map[string]any)
	arrays = make(map[string][]any)
	n = -1

	for name, value := range inputs {
		rv := reflect.ValueOf(value)
		if value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			scalars[name] = value
			continue
		}

		elems := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elems[i] = rv.Index(i).Interface()
		}
		if n >= 0 && n != len(elems) {
			return nil, nil, 0, fmt.Errorf("array input %s has length %d, other axes have length %d", name, len(elems), n)
		}
		n = len(elems)
		arrays[name] = elems
	}

	if n < 0 {
		n = 1
	}
	return scalars, arrays, n, nil
}

func writeElement(runFolder, output string, index int, value any) error {
	b, err := json.Marshal(map[string]any{"value": value})
	if err != nil {
		return fmt.Errorf("marshal element %d of %s: %w", index, output, err)
	}
	path := filepath.Join(runFolder, "outputs", output, runs.ElementFile(index))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write element %d of %s: %w", index, output, err)
	}
	return nil
}

func writeFileOutput(runFolder, output string, value any) error {
	b, err := json.MarshalIndent(map[string]any{"value": value}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output %s: %w", output, err)
	}
	path := filepath.Join(runFolder, "outputs", output+".json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	return nil
}
