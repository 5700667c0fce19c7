package pipeline

import (
	"fmt"
	"log"
	"time"
)

// Stage is one named unit of orchestration work.
type Stage interface {
	// Name returns the stage's selector name.
	Name() string

	// Run executes the stage's apply logic.
	Run(ctx *Context) error
}

// Verifier is implemented by stages that carry their own post-condition
// checks, run right after a successful Run.
type Verifier interface {
	Verify(ctx *Context) error
}

// StageError wraps a stage failure with the failing stage's name.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Run executes stages in their declared order. With selected empty, every
// stage runs; otherwise only the named stages run, still in declared
// order. An unknown selector is an error before any stage executes. The
// first stage failure halts the run; later stages are never attempted and
// earlier convergence is left in place.
//
// The contract store is persisted after every successful stage, so
// credentials generated by one stage survive a failure in the next.
func Run(ctx *Context, stages []Stage, selected []string) error {
	want, err := selectionSet(stages, selected)
	if err != nil {
		return err
	}

	start := time.Now()
	for i, stage := range stages {
		if want != nil && !want[stage.Name()] {
			continue
		}
		label := fmt.Sprintf("%s (%d/%d)", stage.Name(), i+1, len(stages))
		stageStart := time.Now()
		log.Printf("[pipeline] %s starting", label)

		if err := stage.Run(ctx); err != nil {
			log.Printf("[pipeline] %s failed: %v", label, err)
			return &StageError{Stage: stage.Name(), Err: err}
		}
		if v, ok := stage.(Verifier); ok {
			if err := v.Verify(ctx); err != nil {
				log.Printf("[pipeline] %s post-check failed: %v", label, err)
				return &StageError{Stage: stage.Name(), Err: fmt.Errorf("post-condition: %w", err)}
			}
		}
		if err := ctx.Contract.Persist(); err != nil {
			return &StageError{Stage: stage.Name(), Err: fmt.Errorf("persist contract: %w", err)}
		}

		log.Printf("[pipeline] %s completed in %v", label, time.Since(stageStart).Round(time.Millisecond))
	}

	log.Printf("[pipeline] run completed in %v", time.Since(start).Round(time.Millisecond))
	return nil
}

// selectionSet validates the stage selectors. nil means "run everything".
func selectionSet(stages []Stage, selected []string) (map[string]bool, error) {
	if len(selected) == 0 {
		return nil, nil
	}
	known := make(map[string]bool, len(stages))
	for _, s := range stages {
		known[s.Name()] = true
	}
	want := make(map[string]bool, len(selected))
	for _, name := range selected {
		if !known[name] {
			return nil, fmt.Errorf("unknown stage %q", name)
		}
		want[name] = true
	}
	return want, nil
}
