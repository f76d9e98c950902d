package publish

import (
	"context"

	"github.com/spf13/afero"

	"github.com/muhamedRadwan/subscriptions/pkg/constants"
	"github.com/muhamedRadwan/subscriptions/pkg/resources"
)

// Group is a tagged unit of publishing. Its plan is recomputed from the
// filesystems on every run.
type Group struct {
	Tag string

	// Kind selects migration matching or the fixed configuration mapping.
	Kind resources.Kind

	// SourceFs and SourcePath locate the package resources. For KindConfig,
	// SourcePath is the configuration file; otherwise it is a directory.
	SourceFs   afero.Fs
	SourcePath string

	// DestFs and DestDir locate the host directory receiving the files.
	DestFs  afero.Fs
	DestDir string

	// Namespace names the published configuration file.
	Namespace string
}

// NewConfigGroup publishes the configuration file at srcFile to
// <configDir>/<dotted namespace>.yaml.
func NewConfigGroup(tag string, srcFs afero.Fs, srcFile string, destFs afero.Fs, configDir, namespace string) *Group {
	return &Group{
		Tag:        tag,
		Kind:       resources.KindConfig,
		SourceFs:   srcFs,
		SourcePath: srcFile,
		DestFs:     destFs,
		DestDir:    configDir,
		Namespace:  namespace,
	}
}

// NewMigrationGroup publishes every migration of srcDir into destDir.
func NewMigrationGroup(tag string, srcFs afero.Fs, srcDir string, destFs afero.Fs, destDir string) *Group {
	return &Group{
		Tag:        tag,
		Kind:       resources.KindMigration,
		SourceFs:   srcFs,
		SourcePath: srcDir,
		DestFs:     destFs,
		DestDir:    destDir,
	}
}

// Plan computes the group's plan. Missing source or destination
// directories are treated as empty.
func (g *Group) Plan(ctx context.Context, planner *Planner) (*Plan, error) {
	var (
		plan *Plan
		err  error
	)

	if g.Kind == resources.KindConfig {
		plan, err = planner.PlanConfig(ctx, g.SourceFs, g.SourcePath, g.DestDir, g.Namespace)
	} else {
		var src, dst *resources.Index
		src, err = resources.ScanOrEmpty(g.SourceFs, g.SourcePath, constants.MigrationPattern, resources.KindMigration)
		if err != nil {
			return nil, err
		}
		dst, err = resources.ScanOrEmpty(g.DestFs, g.DestDir, constants.MigrationPattern, resources.KindMigration)
		if err != nil {
			return nil, err
		}
		plan = planner.PlanMigrations(ctx, src, dst)
	}
	if err != nil {
		return nil, err
	}

	plan.Tag = g.Tag
	return plan, nil
}
