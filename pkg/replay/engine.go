package replay

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"grstrategy/pkg/model"
	"grstrategy/pkg/pubsub"
)

// DefaultTick is the scheduler period when none is configured.
const DefaultTick = 100 * time.Millisecond

// Hooks are optional callbacks invoked from the scheduler goroutine.
// They must return quickly.
type Hooks struct {
	OnLap      func(LapEvent)
	OnInsights func(model.SessionInsights)
}

// Engine runs one session's scheduler loop and fans its output out over
// the topic buses.
type Engine struct {
	tick    time.Duration
	feed    Feed
	session *Session
	hooks   Hooks

	Telemetry *pubsub.PubSub[model.Packet]
	Insights  *pubsub.PubSub[model.SessionInsights]
	Laps      *pubsub.PubSub[model.LapHistoryEntry]
}

func NewEngine(session *Session, feed Feed, tick time.Duration, hooks Hooks) *Engine {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Engine{
		tick:      tick,
		feed:      feed,
		session:   session,
		hooks:     hooks,
		Telemetry: pubsub.NewPubSub[model.Packet](),
		Insights:  pubsub.NewPubSub[model.SessionInsights](),
		Laps:      pubsub.NewPubSub[model.LapHistoryEntry](),
	}
}

// Session exposes the engine's session for snapshot reads. Callers other
// than the scheduler goroutine must go through the registry.
func (e *Engine) Session() *Session {
	return e.session
}

// Run drives the scheduler loop until the context is cancelled. One tick
// per period, every tick produces exactly one telemetry packet.
func (e *Engine) Run(ctx context.Context) {
	logrus.WithFields(logrus.Fields{
		"session": e.session.ID(),
		"source":  e.feed.Source(),
		"tick":    e.tick,
	}).Info("replay scheduler started")

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.WithField("session", e.session.ID()).Info("replay scheduler stopped")
			return
		case <-ticker.C:
			e.step()
		}
	}
}

func (e *Engine) step() {
	raw, wrapped := e.feed.Next()
	if wrapped {
		logrus.WithField("session", e.session.ID()).Debug("recording wrapped, restarting replay")
	}

	pkt, snap, lapEvent := e.session.Tick(raw, wrapped)
	e.Telemetry.Publish(pubsub.TopicTelemetry, pkt)

	if lapEvent != nil {
		logrus.WithFields(logrus.Fields{
			"session":  e.session.ID(),
			"lap":      lapEvent.Entry.Lap,
			"duration": lapEvent.Entry.Duration,
			"source":   lapEvent.Source,
		}).Info("lap completed")
		e.Laps.Publish(pubsub.TopicLaps, lapEvent.Entry)
		if e.hooks.OnLap != nil {
			e.hooks.OnLap(*lapEvent)
		}
	}
	if snap != nil {
		e.Insights.Publish(pubsub.TopicInsights, *snap)
		if e.hooks.OnInsights != nil {
			e.hooks.OnInsights(*snap)
		}
	}
}
