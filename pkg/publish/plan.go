// Package publish reconciles a package's resource files with the copies
// already published into a host tree and copies them across.
//
// Publishing is split into two steps. A Planner computes a Plan, mapping each
// source file to a destination path: an existing destination is reused when
// its basename contains the source descriptor, otherwise a new name is
// synthesized from the current time plus the source sequence offset. An
// Executor then copies the planned files, collecting per-file failures.
//
// Example:
//
//	planner := publish.NewPlanner()
//	plan, err := planner.PlanMigrations(ctx, src, dst)
//	...
//	result, err := publish.NewExecutor(srcFs, hostFs).Execute(ctx, plan, publish.Options{})
package publish

import "sort"

// Action describes how a destination path was chosen.
type Action string

const (
	// ActionReuse maps a source onto an existing destination file.
	ActionReuse Action = "reuse"
	// ActionCreate maps a source onto a synthesized destination name.
	ActionCreate Action = "create"
	// ActionConfig maps the configuration file onto its fixed host path.
	ActionConfig Action = "config"
)

// Entry maps one source file to its destination.
type Entry struct {
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination" yaml:"destination"`
	Action      Action `json:"action" yaml:"action"`
}

// Plan is the ordered set of entries of one publish run. Sources are unique.
type Plan struct {
	Tag     string  `json:"tag,omitempty" yaml:"tag,omitempty"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.Entries)
}

// Map returns the source to destination mapping.
func (p *Plan) Map() map[string]string {
	m := make(map[string]string, len(p.Entries))
	for _, e := range p.Entries {
		m[e.Source] = e.Destination
	}
	return m
}

// Destinations returns the planned destination paths in sorted order.
func (p *Plan) Destinations() []string {
	out := make([]string, 0, len(p.Entries))
	for _, e := range p.Entries {
		out = append(out, e.Destination)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of entries with the given action.
func (p *Plan) Count(action Action) int {
	n := 0
	for _, e := range p.Entries {
		if e.Action == action {
			n++
		}
	}
	return n
}
