package replay

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"grstrategy/pkg/model"
	"grstrategy/pkg/pubsub"
)

// Factory builds a fresh engine for a new session id.
type Factory func(sessionID string) (*Engine, model.SessionStarted, error)

// Registry owns the single shared replay session. Start is idempotent: a
// second start while a session is live joins it instead of spawning
// another scheduler, so any number of dashboards share one tick loop.
type Registry struct {
	factory Factory

	mu      sync.Mutex
	engine  *Engine
	cancel  context.CancelFunc
	started model.SessionStarted
	latest  model.SessionInsights
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{factory: factory}
}

// Start brings the shared session up, or returns the live one.
func (r *Registry) Start(ctx context.Context) (model.SessionStarted, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine != nil {
		return r.started, nil
	}

	id := uuid.NewString()
	engine, started, err := r.factory(id)
	if err != nil {
		return model.SessionStarted{}, err
	}
	started.SessionID = id

	runCtx, cancel := context.WithCancel(ctx)
	r.engine = engine
	r.cancel = cancel
	r.started = started
	r.latest = engine.Session().Snapshot()

	go engine.Run(runCtx)
	go r.watchInsights(runCtx, engine)

	logrus.WithFields(logrus.Fields{
		"session": started.SessionID,
		"source":  started.Source,
		"laps":    started.TotalLaps,
	}).Info("session registered")
	return started, nil
}

// Stop tears the shared session down. Reports whether one was live.
func (r *Registry) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine == nil {
		return false
	}
	r.cancel()
	r.engine = nil
	r.cancel = nil
	logrus.WithField("session", r.started.SessionID).Info("session stopped")
	return true
}

// Running reports whether a session is live.
func (r *Registry) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine != nil
}

// Engine returns the live engine, nil when no session is running.
func (r *Registry) Engine() *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine
}

// Started describes the live session.
func (r *Registry) Started() model.SessionStarted {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Insights is the most recent session-summary snapshot.
func (r *Registry) Insights() model.SessionInsights {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// watchInsights mirrors the insights topic into the registry so summary
// reads never touch scheduler-owned state.
func (r *Registry) watchInsights(ctx context.Context, engine *Engine) {
	ch := engine.Insights.Subscribe(pubsub.TopicInsights)
	defer engine.Insights.Unsubscribe(pubsub.TopicInsights, ch)

	for {
		select {
		case <-ctx.Done():
			return
		case si, ok := <-ch:
			if !ok {
				return
			}
			r.mu.Lock()
			r.latest = si
			r.mu.Unlock()
		}
	}
}
