// Package liveboard serves the live dashboard endpoints: a websocket
// stream of typed messages (track geometry on connect, one telemetry
// packet per tick, session insights on change) plus a plain-text summary
// page. Every connection joins the single shared replay session.
package liveboard

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"grstrategy/pkg/caster"
	"grstrategy/pkg/insights"
	"grstrategy/pkg/model"
	"grstrategy/pkg/pubsub"
	"grstrategy/pkg/replay"
)

// Websocket message types.
const (
	MsgTrackInit      = "track_init"
	MsgSessionStarted = "session_started"
	MsgTelemetry      = "telemetry_update"
	MsgInsights       = "session_insights"
	MsgLapCompleted   = "lap_completed"
)

var upgrader = websocket.Upgrader{} // use default options

// Message is the envelope every websocket frame carries.
type Message struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

func envelope[T any](msgType string, body T) ([]byte, error) {
	raw, err := caster.JSONCodec[T]{}.Encode(body)
	if err != nil {
		return nil, err
	}
	return caster.JSONCodec[Message]{}.Encode(Message{Type: msgType, Body: raw})
}

// LiveBoard wires the dashboard routes onto a router.
type LiveBoard struct {
	appCtx    context.Context
	registry  *replay.Registry
	trackInit model.TrackInit
}

// New registers the dashboard handlers. appCtx bounds the shared session's
// lifetime, not any single connection's.
func New(appCtx context.Context, r *mux.Router, registry *replay.Registry, trackInit model.TrackInit) *LiveBoard {
	lb := &LiveBoard{
		appCtx:    appCtx,
		registry:  registry,
		trackInit: trackInit,
	}
	r.HandleFunc("/telemetry", lb.websocketHandler)
	r.HandleFunc("/live", lb.boardHandler)
	r.HandleFunc("/summary", lb.summaryHandler)
	return lb
}

func (lb *LiveBoard) websocketHandler(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Error("websocket upgrade failed")
		return
	}
	defer c.Close()

	started, err := lb.registry.Start(lb.appCtx)
	if err != nil {
		logrus.WithError(err).Error("starting session")
		return
	}
	engine := lb.registry.Engine()
	if engine == nil {
		return
	}

	telemetryCh := engine.Telemetry.Subscribe(pubsub.TopicTelemetry)
	defer engine.Telemetry.Unsubscribe(pubsub.TopicTelemetry, telemetryCh)
	insightsCh := engine.Insights.Subscribe(pubsub.TopicInsights)
	defer engine.Insights.Unsubscribe(pubsub.TopicInsights, insightsCh)
	lapsCh := engine.Laps.Subscribe(pubsub.TopicLaps)
	defer engine.Laps.Unsubscribe(pubsub.TopicLaps, lapsCh)

	if err := lb.sendHello(c, started); err != nil {
		logrus.WithError(err).Debug("websocket hello failed")
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-lb.appCtx.Done():
			return
		case pkt := <-telemetryCh:
			if err := send(c, MsgTelemetry, pkt); err != nil {
				return
			}
		case si := <-insightsCh:
			if err := send(c, MsgInsights, si); err != nil {
				return
			}
		case lap := <-lapsCh:
			if err := send(c, MsgLapCompleted, lap); err != nil {
				return
			}
		}
	}
}

// sendHello pushes the static session-start frames: track geometry,
// session metadata and the current summary snapshot.
func (lb *LiveBoard) sendHello(c *websocket.Conn, started model.SessionStarted) error {
	if err := send(c, MsgTrackInit, lb.trackInit); err != nil {
		return err
	}
	if err := send(c, MsgSessionStarted, started); err != nil {
		return err
	}
	return send(c, MsgInsights, lb.registry.Insights())
}

func send[T any](c *websocket.Conn, msgType string, body T) error {
	data, err := envelope(msgType, body)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, data)
}

func (lb *LiveBoard) summaryHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, insights.RenderSummary(lb.registry.Insights()))
}

type boardData struct {
	WebSocketURL string
}

func (lb *LiveBoard) boardHandler(w http.ResponseWriter, r *http.Request) {
	data := boardData{WebSocketURL: "ws://" + r.Host + "/telemetry"}
	if err := boardTemplate.Execute(w, data); err != nil {
		logrus.WithError(err).Error("rendering board page")
	}
}

var boardTemplate = template.Must(template.New("").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>GR Strategy LiveBoard</title>
  <style>
    body { font-family: monospace; background: #111; color: #eee; margin: 2em; }
    .big { font-size: 3em; }
    .alerts div { margin: 2px 0; }
    .warn { color: #fa0; }
    .success { color: #0f0; }
  </style>
</head>
<body>
  <div>LAP <span id="lap">-</span>/<span id="total">-</span> · SECTOR <span id="sector">-</span></div>
  <div class="big"><span id="speed">0</span> km/h</div>
  <div>RPM <span id="rpm">0</span> · GEAR <span id="gear">0</span> · TIRES <span id="tires">100</span>%</div>
  <div>BEST <span id="best">-</span> · LAST <span id="last">-</span> · TOP <span id="top">-</span></div>
  <div class="alerts" id="alerts"></div>
  <script>
    const ws = new WebSocket('{{ .WebSocketURL }}');
    ws.onmessage = (ev) => {
      const msg = JSON.parse(ev.data);
      if (msg.type === 'telemetry_update') {
        const b = msg.body;
        document.getElementById('lap').textContent = b.lap;
        document.getElementById('total').textContent = b.total_laps;
        document.getElementById('sector').textContent = b.sector || '-';
        document.getElementById('speed').textContent = b.speed.toFixed(1);
        document.getElementById('rpm').textContent = b.rpm.toFixed(0);
        document.getElementById('gear').textContent = b.gear;
        document.getElementById('tires').textContent = b.tire_health.toFixed(1);
        const alerts = document.getElementById('alerts');
        alerts.innerHTML = '';
        (b.alerts || []).forEach(a => {
          const d = document.createElement('div');
          d.className = a.type;
          d.textContent = a.msg;
          alerts.appendChild(d);
        });
      } else if (msg.type === 'session_insights') {
        const b = msg.body;
        document.getElementById('best').textContent = b.best_lap.toFixed(2);
        document.getElementById('last').textContent = b.last_lap.toFixed(2);
        document.getElementById('top').textContent = b.top_speed.toFixed(1);
      }
    };
  </script>
</body>
</html>
`))
