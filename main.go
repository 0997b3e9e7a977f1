package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"grstrategy/pkg/config"
	"grstrategy/pkg/dataset"
	"grstrategy/pkg/insights"
	"grstrategy/pkg/laps"
	"grstrategy/pkg/liveboard"
	"grstrategy/pkg/model"
	"grstrategy/pkg/notification"
	"grstrategy/pkg/replay"
	"grstrategy/pkg/results"
	"grstrategy/pkg/track"
	"grstrategy/pkg/webserver"
)

// defaultPosition stands in for missing GPS data: Barber Motorsports Park.
var defaultPosition = model.GeoPoint{Lat: 33.532, Long: -86.619}

func main() {
	configPath := flag.String("c", "config.yml", "configuration file")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("loading configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tel, err := dataset.LoadTelemetry(cfg.Dataset.TelemetryPath, cfg.Dataset.HeroCar, cfg.Dataset.MaxRows)
	if err != nil {
		logrus.WithError(err).Warn("telemetry recording unavailable, falling back to synthetic source")
		tel = nil
	} else {
		logrus.WithFields(logrus.Fields{
			"samples": len(tel.Samples),
			"vehicle": tel.Vehicle,
			"laps":    tel.TotalLaps,
		}).Info("telemetry recording loaded")
	}

	wxRows, err := dataset.LoadWeather(cfg.Dataset.WeatherPath)
	if err != nil {
		logrus.WithError(err).Warn("weather feed unavailable")
		wxRows = nil
	}

	var store *results.Store
	var lapResults map[int]model.LapResult
	if cfg.Results.Path != "" {
		store, err = results.Open(cfg.Results.Path)
		if err != nil {
			logrus.WithError(err).Warn("results store unavailable")
			store = nil
		} else {
			defer store.Close()
			if lapResults, err = store.Load(); err != nil {
				logrus.WithError(err).Warn("loading results feed")
			}
		}
	}

	// with an authoritative feed the out-lap and the first timed lap are
	// both treated as warm-up
	excluded := cfg.Engine.ExcludedWarmupLaps
	if len(lapResults) > 0 && excluded <= 1 {
		excluded = 2
	}

	var trackInit model.TrackInit
	if tel != nil {
		trackInit = track.BuildInit(tel.Samples, defaultPosition)
	} else {
		trackInit = model.TrackInit{Start: defaultPosition}
	}
	start := trackInit.Start
	if cfg.Track.Start != nil {
		start = *cfg.Track.Start
	}

	notifier, err := notification.NewManager(ctx, cfg.Notify.TelegramToken, cfg.Notify.ChatIDs)
	if err != nil {
		logrus.WithError(err).Warn("telegram notifier unavailable")
		notifier, _ = notification.NewManager(ctx, "", nil)
	}

	factory := func(sessionID string) (*replay.Engine, model.SessionStarted, error) {
		var feed replay.Feed
		firstLap, totalLaps := 1, dataset.FallbackTotalLaps
		if tel != nil {
			feed = replay.NewDatasetFeed(tel.Samples)
			firstLap, totalLaps = tel.FirstLap, tel.TotalLaps
		} else {
			feed = replay.NewSyntheticFeed(defaultPosition, cfg.Engine.SyntheticLapSeconds)
		}

		session := replay.NewSession(replay.SessionConfig{
			ID:              sessionID,
			FirstLap:        firstLap,
			TotalLaps:       totalLaps,
			DefaultPosition: start,
			BrakeMaxRaw:     cfg.Engine.BrakePressureMax,
			Laps: laps.Config{
				Start:       start,
				HasStart:    true,
				EnterRadius: cfg.Engine.GeofenceEnterMeters,
				ExitRadius:  cfg.Engine.GeofenceExitMeters,
				Debounce:    time.Duration(cfg.Engine.CrossingDebounceSeconds * float64(time.Second)),
			},
			Sectors:        cfg.Track.Sectors,
			Markers:        cfg.Track.Markers,
			SectorFallback: cfg.Engine.SectorFallbackMeters,
			Insights: insights.Config{
				HistorySize:       cfg.Engine.LapHistorySize,
				ConsistencyWindow: cfg.Engine.ConsistencyWindow,
				ExcludedLaps:      excluded,
				TopSpeedMargin:    cfg.Engine.TopSpeedMarginKPH,
			},
			Results:      lapResults,
			WeatherRows:  wxRows,
			WeatherDelta: cfg.Engine.WeatherDeltaDegrees,
		})

		hooks := replay.Hooks{
			OnLap: func(ev replay.LapEvent) {
				if store != nil && cfg.Results.Record && ev.HasDuration {
					if err := store.RecordLap(model.LapResult{Lap: ev.Entry.Lap, Duration: ev.Entry.Duration}); err != nil {
						logrus.WithError(err).Warn("recording lap result")
					}
				}
				if ev.NewBest {
					notifier.BestLap(ev.Entry.Lap, ev.Entry.Duration)
				}
			},
		}

		ss := model.SessionStarted{
			SessionID: sessionID,
			Source:    feed.Source(),
			TotalLaps: totalLaps,
			FirstLap:  firstLap,
		}
		notifier.SessionStarted(ss)

		tick := time.Duration(cfg.Engine.TickMillis) * time.Millisecond
		return replay.NewEngine(session, feed, tick, hooks), ss, nil
	}

	registry := replay.NewRegistry(factory)

	ws := webserver.NewManager(cfg.Server.Addr)
	liveboard.New(ctx, ws.Router(), registry, trackInit)

	ws.Serve(ctx)
	registry.Stop()

	if registry.Started().SessionID != "" {
		fmt.Println(insights.RenderSummary(registry.Insights()))
	}
}
