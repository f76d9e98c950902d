package publish

import (
	"context"
	"io"
	"os"
	"path"

	"github.com/spf13/afero"

	"github.com/muhamedRadwan/subscriptions/pkg/constants"
	"github.com/muhamedRadwan/subscriptions/pkg/errors"
	"github.com/muhamedRadwan/subscriptions/pkg/logging"
)

// Options control plan execution.
type Options struct {
	// Force overwrites destinations that already exist.
	Force bool
	// DryRun reports what would be copied without writing.
	DryRun bool
}

// Status is the outcome of one plan entry.
type Status string

const (
	// StatusCopied means the source was written to its destination.
	StatusCopied Status = "copied"
	// StatusSkipped means the destination existed and Force was not set.
	StatusSkipped Status = "skipped"
	// StatusFailed means the copy failed; see Outcome.Err.
	StatusFailed Status = "failed"
	// StatusPlanned means the entry would be copied in a dry run.
	StatusPlanned Status = "planned"
)

// Outcome records what happened to one plan entry.
type Outcome struct {
	Entry
	Status Status `json:"status" yaml:"status"`
	Err    error  `json:"-" yaml:"-"`
}

// Result is the outcome of one publish run.
type Result struct {
	Tag        string    `json:"tag,omitempty" yaml:"tag,omitempty"`
	Suppressed bool      `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
	DryRun     bool      `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Outcomes   []Outcome `json:"outcomes" yaml:"outcomes"`
}

// Count returns the number of outcomes with the given status.
func (r *Result) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Failures returns the failed outcomes.
func (r *Result) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// Err joins the per-file failures into a *errors.PublishError, or returns nil.
func (r *Result) Err() error {
	failures := r.Failures()
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, f.Err)
	}
	return errors.NewPublishError(r.Tag, errs)
}

// Executor copies planned files from a source filesystem to a destination filesystem.
type Executor struct {
	source afero.Fs
	dest   afero.Fs
}

// NewExecutor creates an Executor.
func NewExecutor(source, dest afero.Fs) *Executor {
	return &Executor{source: source, dest: dest}
}

// Execute copies every entry of plan. A failed copy is recorded and the
// remaining entries are still attempted. Only cancellation of ctx stops the
// run early; the partial result is returned along with the context error.
func (e *Executor) Execute(ctx context.Context, plan *Plan, opts Options) (*Result, error) {
	result := &Result{Tag: plan.Tag, DryRun: opts.DryRun}

	for _, entry := range plan.Entries {
		if err := ctx.Err(); err != nil {
			return result, errors.Join(errors.ErrCanceled, err)
		}

		entryLogger := logging.FromContext(logging.WithFields(ctx, map[string]any{
			"source":      entry.Source,
			"destination": entry.Destination,
			"action":      string(entry.Action),
		}))

		exists, err := afero.Exists(e.dest, entry.Destination)
		if err != nil {
			result.Outcomes = append(result.Outcomes, Outcome{
				Entry:  entry,
				Status: StatusFailed,
				Err:    errors.WrapIO("stat", entry.Destination, err),
			})
			continue
		}

		switch {
		case exists && !opts.Force:
			result.Outcomes = append(result.Outcomes, Outcome{Entry: entry, Status: StatusSkipped})
			entryLogger.Debug().Msg("Destination exists, skipping")
		case opts.DryRun:
			result.Outcomes = append(result.Outcomes, Outcome{Entry: entry, Status: StatusPlanned})
		default:
			if err := e.copyFile(entry.Source, entry.Destination); err != nil {
				entryLogger.Warn().Err(err).Msg("Failed to publish file")
				result.Outcomes = append(result.Outcomes, Outcome{Entry: entry, Status: StatusFailed, Err: err})
				continue
			}
			entryLogger.Info().Msg("Published file")
			result.Outcomes = append(result.Outcomes, Outcome{Entry: entry, Status: StatusCopied})
		}
	}

	return result, nil
}

func (e *Executor) copyFile(src, dst string) error {
	in, err := e.source.Open(src)
	if err != nil {
		return errors.WrapIO("open", src, err)
	}
	defer func() { _ = in.Close() }()

	if err := e.dest.MkdirAll(path.Dir(dst), constants.DirPermissions); err != nil {
		return errors.WrapIO("mkdir", path.Dir(dst), err)
	}

	out, err := e.dest.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.WrapIO("copy", dst, err)
	}
	if err := out.Close(); err != nil {
		return errors.WrapIO("close", dst, err)
	}
	return nil
}
