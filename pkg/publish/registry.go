package publish

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/muhamedRadwan/subscriptions/pkg/errors"
)

// Registry holds publish groups by tag.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]*Group
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*Group)}
}

// Register adds a group. Tags are unique.
func (r *Registry) Register(g *Group) error {
	if g == nil || g.Tag == "" {
		return errors.NewValidationError("tag", "", "publish group requires a tag")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.groups[g.Tag]; ok {
		return errors.NewAlreadyExistsError("publish group", g.Tag)
	}
	r.groups[g.Tag] = g
	return nil
}

// Get returns the group registered under tag.
func (r *Registry) Get(tag string) (*Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[tag]
	return g, ok
}

// Tags returns every registered tag in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.groups))
	for tag := range r.groups {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Select resolves tags to groups. An empty selection means every group. A
// selector without "::" matches every tag of that namespace.
func (r *Registry) Select(selectors ...string) ([]*Group, error) {
	all := r.Tags()
	if len(selectors) == 0 {
		return r.groupsFor(all), nil
	}

	seen := make(map[string]bool)
	var tags []string
	for _, sel := range selectors {
		matched := false
		for _, tag := range all {
			if tag == sel || (!strings.Contains(sel, "::") && strings.HasPrefix(tag, sel+"::")) {
				matched = true
				if !seen[tag] {
					seen[tag] = true
					tags = append(tags, tag)
				}
			}
		}
		if !matched {
			return nil, errors.NewNotFoundError("publish group", sel)
		}
	}
	return r.groupsFor(tags), nil
}

// Publish runs the selected groups in tag order and returns every result.
// Runs continue after a group fails to plan; those errors are joined.
func (r *Registry) Publish(ctx context.Context, p *Publisher, env Environment, opts Options, selectors ...string) ([]*Result, error) {
	groups, err := r.Select(selectors...)
	if err != nil {
		return nil, err
	}

	var (
		results []*Result
		errs    []error
	)
	for _, g := range groups {
		result, err := p.Publish(ctx, g, env, opts)
		if result != nil {
			results = append(results, result)
		}
		if err != nil {
			if errors.IsCanceled(err) {
				return results, err
			}
			errs = append(errs, errors.WrapResource("publish", "publish group", g.Tag, err))
		}
	}
	return results, errors.Join(errs...)
}

func (r *Registry) groupsFor(tags []string) []*Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Group, 0, len(tags))
	for _, tag := range tags {
		out = append(out, r.groups[tag])
	}
	return out
}
