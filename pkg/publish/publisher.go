package publish

import (
	"context"

	"github.com/muhamedRadwan/subscriptions/pkg/logging"
)

// Observer receives the result of every publish run.
type Observer interface {
	ObservePublish(result *Result)
}

// Publisher plans and executes groups behind the environment gate.
type Publisher struct {
	planner  *Planner
	observer Observer
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithPlanner sets the planner used for every run.
func WithPlanner(planner *Planner) PublisherOption {
	return func(p *Publisher) {
		if planner != nil {
			p.planner = planner
		}
	}
}

// WithObserver reports results to observer.
func WithObserver(observer Observer) PublisherOption {
	return func(p *Publisher) {
		p.observer = observer
	}
}

// NewPublisher creates a Publisher.
func NewPublisher(opts ...PublisherOption) *Publisher {
	p := &Publisher{planner: NewPlanner()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Planner returns the publisher's planner.
func (p *Publisher) Planner() *Planner {
	return p.planner
}

// Publish runs one group. When env does not permit publishing, nothing is
// planned or copied and the result is marked suppressed. The returned error
// covers planning and cancellation; copy failures are in the result.
func (p *Publisher) Publish(ctx context.Context, g *Group, env Environment, opts Options) (*Result, error) {
	ctx = logging.WithTag(ctx, g.Tag)
	logger := logging.FromContext(ctx)

	if !env.Permits() {
		logger.Debug().Msg("Publishing not permitted in this environment")
		result := &Result{Tag: g.Tag, Suppressed: true}
		p.observe(result)
		return result, nil
	}

	plan, err := g.Plan(ctx, p.planner)
	if err != nil {
		return nil, err
	}

	result, err := NewExecutor(g.SourceFs, g.DestFs).Execute(ctx, plan, opts)
	p.observe(result)
	if err != nil {
		return result, err
	}

	logger.Info().
		Int("copied", result.Count(StatusCopied)).
		Int("skipped", result.Count(StatusSkipped)).
		Int("failed", result.Count(StatusFailed)).
		Msg("Publish finished")
	return result, nil
}

func (p *Publisher) observe(result *Result) {
	if p.observer != nil && result != nil {
		p.observer.ObservePublish(result)
	}
}
