package publish

import (
	"context"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/utc"
	"github.com/spf13/afero"

	"github.com/muhamedRadwan/subscriptions/pkg/constants"
	"github.com/muhamedRadwan/subscriptions/pkg/errors"
	"github.com/muhamedRadwan/subscriptions/pkg/logging"
	"github.com/muhamedRadwan/subscriptions/pkg/resources"
)

// Clock returns the current time used to synthesize sequences.
type Clock func() utc.Time

// Planner computes publish plans.
type Planner struct {
	clock Clock
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithClock overrides the time source.
func WithClock(clock Clock) PlannerOption {
	return func(p *Planner) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// NewPlanner creates a Planner using the system clock.
func NewPlanner(opts ...PlannerOption) *Planner {
	p := &Planner{clock: utc.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlanMigrations maps every file of src onto a destination in dst.
//
// Sources are visited in scan order. The first destination, in scan order,
// whose basename contains the source descriptor is reused. Otherwise the
// destination basename is a new sequence followed by the source descriptor,
// where the new sequence is the current time advanced by the source offset.
// The .up.sql and .down.sql halves of a migration keep one sequence: a half
// without a destination takes the prefix its sibling was given when that name
// is free. A synthesized name already present in dst or earlier in the plan is
// moved forward one second at a time until it is free.
func (p *Planner) PlanMigrations(ctx context.Context, src, dst *resources.Index) *Plan {
	logger := logging.FromContext(ctx)
	now := p.clock()

	plan := &Plan{}
	existing := dst.Files()
	taken := make(map[string]bool)
	prefixes := make(map[string]string)

	files := src.Files()
	names := make([]resources.SequencedName, len(files))
	plan.Entries = make([]Entry, len(files))

	for i, s := range files {
		name := src.SequencedName(s)
		names[i] = name
		if src.Kind() == resources.KindMigration && name.Malformed() {
			logger.Warn().
				Str("source", s.Path).
				Msg("Resource basename shorter than its sequence, using whole name as descriptor")
		}

		if d, ok := firstContaining(existing, name.Descriptor); ok {
			plan.Entries[i] = Entry{Source: s.Path, Destination: d.Path, Action: ActionReuse}
			taken[d.Basename] = true
			if stem, paired := pairStem(name.Descriptor); paired && strings.HasSuffix(d.Basename, name.Descriptor) {
				if _, seen := prefixes[stem]; !seen {
					prefixes[stem] = strings.TrimSuffix(d.Basename, name.Descriptor)
				}
			}
		}
	}

	for i, s := range files {
		if plan.Entries[i].Action == ActionReuse {
			continue
		}
		name := names[i]
		stem, paired := pairStem(name.Descriptor)

		basename := ""
		if prefix, ok := prefixes[stem]; paired && ok {
			if candidate := prefix + name.Descriptor; !taken[candidate] && !dst.Has(candidate) {
				basename = candidate
			}
		}

		if basename == "" {
			offset := sequenceOffset(name.Sequence)
			if name.Sequence != "" && offset == 0 && !isDigits(tail(name.Sequence, constants.OffsetDigits)) {
				logger.Warn().
					Str("source", s.Path).
					Str("sequence", name.Sequence).
					Msg("Sequence offset is not numeric, using zero")
			}

			at := now.Time.Add(time.Duration(offset) * time.Second)
			basename = synthesize(at, name.Descriptor)
			for taken[basename] || dst.Has(basename) {
				at = at.Add(time.Second)
				basename = synthesize(at, name.Descriptor)
			}
		}
		taken[basename] = true
		if paired {
			if _, seen := prefixes[stem]; !seen {
				prefixes[stem] = strings.TrimSuffix(basename, name.Descriptor)
			}
		}

		plan.Entries[i] = Entry{
			Source:      s.Path,
			Destination: path.Join(dst.Dir(), basename),
			Action:      ActionCreate,
		}
	}

	logger.Debug().
		Int("reuse", plan.Count(ActionReuse)).
		Int("create", plan.Count(ActionCreate)).
		Msg("Planned resources")

	return plan
}

// PlanConfig maps the configuration file at srcFile onto
// <configDir>/<dotted namespace>.yaml. A missing source, or a directory in
// its place, yields an empty plan.
func (p *Planner) PlanConfig(ctx context.Context, srcFs afero.Fs, srcFile, configDir, namespace string) (*Plan, error) {
	exists, err := afero.Exists(srcFs, srcFile)
	if err != nil {
		return nil, errors.WrapIO("stat", srcFile, err)
	}

	plan := &Plan{}
	if !exists {
		logging.FromContext(ctx).Debug().Str("source", srcFile).Msg("No configuration to publish")
		return plan, nil
	}
	isDir, err := afero.IsDir(srcFs, srcFile)
	if err != nil {
		return nil, errors.WrapIO("stat", srcFile, err)
	}
	if isDir {
		logging.FromContext(ctx).Warn().Str("source", srcFile).Msg("Configuration source is a directory, nothing to publish")
		return plan, nil
	}

	plan.Entries = append(plan.Entries, Entry{
		Source:      srcFile,
		Destination: path.Join(configDir, ConfigBasename(namespace)),
		Action:      ActionConfig,
	})
	return plan, nil
}

// DottedNamespace converts a "vendor/name" namespace to "vendor.name".
func DottedNamespace(namespace string) string {
	return strings.ReplaceAll(namespace, "/", ".")
}

// ConfigBasename is the published basename of a namespace's configuration file.
func ConfigBasename(namespace string) string {
	return DottedNamespace(namespace) + constants.ConfigExtension
}

func firstContaining(files []resources.File, descriptor string) (resources.File, bool) {
	if descriptor == "" {
		return resources.File{}, false
	}
	for _, f := range files {
		if strings.Contains(f.Basename, descriptor) {
			return f, true
		}
	}
	return resources.File{}, false
}

// pairStem strips the up or down suffix from a descriptor. It reports false
// for a descriptor that is not half of a migration pair.
func pairStem(descriptor string) (string, bool) {
	for _, suffix := range []string{constants.UpSuffix, constants.DownSuffix} {
		if stem, ok := strings.CutSuffix(descriptor, suffix); ok && stem != "" {
			return stem, true
		}
	}
	return "", false
}

func synthesize(at time.Time, descriptor string) string {
	t := utc.Time{Time: at.UTC()}
	return t.Format(constants.SequenceLayout) + descriptor
}

// sequenceOffset reads the trailing digits of a sequence as seconds.
func sequenceOffset(sequence string) int {
	digits := tail(sequence, constants.OffsetDigits)
	if !isDigits(digits) {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
