// Package validate runs external validation procedures (type-check, tests,
// lint) after a patch pass and reports per-procedure outcomes.
package validate

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/sprite-ai/codemend/internal/model"
)

const defaultProcedureTimeout = 5 * time.Minute

// Procedure is one external check. An empty Command marks the procedure as
// not configured for this project; it is skipped, never failed.
type Procedure struct {
	Name    string
	Command []string // argv; Command[0] is the binary
	Dir     string
	Timeout time.Duration
}

// Validator runs procedures concurrently, each under its own timeout.
// It only reports; rolling back is the caller's decision.
type Validator struct {
	procedures []Procedure
	logger     hclog.Logger
}

// New builds a Validator over the given procedures.
func New(procedures []Procedure, logger hclog.Logger) *Validator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Validator{procedures: procedures, logger: logger}
}

// Validate runs every configured procedure and returns one outcome each, in
// procedure order. One procedure's failure does not cancel the others.
func (v *Validator) Validate(ctx context.Context, results []model.PatchResult) []model.ValidationOutcome {
	applied := 0
	for _, r := range results {
		if r.Success {
			applied++
		}
	}
	if applied == 0 {
		v.logger.Debug("no successful patches, skipping validation")
		return nil
	}

	outcomes := make([]model.ValidationOutcome, len(v.procedures))

	// Independent procedures; a plain group, no shared state beyond the
	// read-only filesystem left by the patcher.
	var g errgroup.Group
	for i, proc := range v.procedures {
		g.Go(func() error {
			outcomes[i] = v.runOne(ctx, proc)
			return nil
		})
	}
	g.Wait()

	return outcomes
}

func (v *Validator) runOne(ctx context.Context, proc Procedure) model.ValidationOutcome {
	outcome := model.ValidationOutcome{Procedure: proc.Name}

	if len(proc.Command) == 0 {
		outcome.Skipped = true
		return outcome
	}

	timeout := proc.Timeout
	if timeout <= 0 {
		timeout = defaultProcedureTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	cmd := exec.CommandContext(ctx, proc.Command[0], proc.Command[1:]...)
	cmd.Dir = proc.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	outcome.Duration = time.Since(start).Milliseconds()
	outcome.Output = stdout.String()

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		outcome.Error = "timed out after " + timeout.String()
	case err != nil:
		// Non-zero exit or spawn failure; either way the procedure failed.
		outcome.Error = err.Error()
		if stderr.Len() > 0 {
			outcome.Error += ": " + stderr.String()
		}
	default:
		outcome.Passed = true
	}

	v.logger.Debug("validation procedure finished",
		"procedure", proc.Name, "passed", outcome.Passed, "duration_ms", outcome.Duration)
	return outcome
}
