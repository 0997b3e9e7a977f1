// Package notification pushes session milestones to Telegram. Without a
// token the manager is a no-op, the engine runs identically either way.
package notification

import (
	"context"
	"fmt"

	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/telegram"
	"github.com/sirupsen/logrus"

	"grstrategy/pkg/helper"
	"grstrategy/pkg/model"
)

type Manager struct {
	ctx context.Context
	n   *notify.Notify
}

// NewManager builds the notifier. An empty token or receiver list
// disables it.
func NewManager(ctx context.Context, token string, chatIDs []int64) (*Manager, error) {
	m := &Manager{ctx: ctx}
	if token == "" || len(chatIDs) == 0 {
		return m, nil
	}

	tg, err := telegram.New(token)
	if err != nil {
		return nil, err
	}
	tg.AddReceivers(chatIDs...)
	m.n = notify.NewWithServices(tg)
	return m, nil
}

// Enabled reports whether notifications will actually be sent.
func (m *Manager) Enabled() bool {
	return m.n != nil
}

// SessionStarted announces a replay session going live.
func (m *Manager) SessionStarted(ss model.SessionStarted) {
	m.send("New session started:", ss.String())
}

// BestLap announces a new session-best lap.
func (m *Manager) BestLap(lap int, duration float64) {
	m.send("New session best:", fmt.Sprintf("Lap %d in %s", lap, helper.SecondsToMinutes(duration)))
}

// send dispatches asynchronously so scheduler hooks never block on the
// Telegram API.
func (m *Manager) send(subject, message string) {
	if m.n == nil {
		return
	}
	go func() {
		if err := m.n.Send(m.ctx, subject, message); err != nil {
			logrus.WithError(err).Error("sending notification")
		}
	}()
}
