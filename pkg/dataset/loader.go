// Package dataset loads the recorded session files: the long-format
// telemetry CSV, pivoted into per-timestamp wide samples, and the
// semicolon-separated weather CSV. Malformed rows are skipped, never
// fatal; a missing file is an error the caller downgrades to synthetic
// mode.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"grstrategy/pkg/model"
)

// DefaultMaxRows caps how much of the recording is loaded.
const DefaultMaxRows = 50000

// FallbackTotalLaps keeps the lap counter meaningful when the recording
// carries no lap metadata (or a truncated one).
const FallbackTotalLaps = 22

// Channels that must not gap during playback; forward- then back-filled
// after the pivot.
var filledChannels = []string{
	"speed", "Speed", "SPEED", "nmot", "RPM",
	"gear", "Gear", "Throttle", "aps", "Brake", "brake_pressure",
	"accx_can", "lat_g", "accy_can", "long_g",
	"VBOX_Lat_Min", "GPS_Lat", "VBOX_Long_Minutes", "GPS_Long",
}

// Telemetry is the loaded, ordered sample sequence plus its lap metadata.
type Telemetry struct {
	Samples   []model.RawSample
	FirstLap  int
	TotalLaps int
	Vehicle   string
}

// LoadTelemetry reads a long-format telemetry CSV (timestamp, vehicle_id,
// telemetry_name, telemetry_value, lap) and pivots it into wide samples
// ordered by timestamp. Rows for other vehicles than heroCar are dropped;
// when heroCar is absent the first vehicle seen is used.
func LoadTelemetry(path, heroCar string, maxRows int) (*Telemetry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening telemetry %s", path)
	}
	defer f.Close()

	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "reading telemetry header %s", path)
	}
	col := indexColumns(header)
	if col.timestamp < 0 || col.name < 0 || col.value < 0 {
		return nil, errors.Errorf("telemetry %s: missing timestamp/telemetry_name/telemetry_value columns", path)
	}

	type record struct {
		ts      float64
		name    string
		value   float64
		lap     float64
		hasLap  bool
		vehicle string
	}

	var records []record
	var vehicles []string
	seenVehicle := map[string]bool{}
	for len(records) < maxRows {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// one bad row must not sink the load
			continue
		}
		rec := record{}
		rec.ts, err = strconv.ParseFloat(row[col.timestamp], 64)
		if err != nil {
			continue
		}
		rec.name = row[col.name]
		rec.value, err = strconv.ParseFloat(row[col.value], 64)
		if err != nil {
			continue
		}
		if col.vehicle >= 0 {
			rec.vehicle = row[col.vehicle]
			if !seenVehicle[rec.vehicle] {
				seenVehicle[rec.vehicle] = true
				vehicles = append(vehicles, rec.vehicle)
			}
		}
		if col.lap >= 0 {
			if lap, err := strconv.ParseFloat(row[col.lap], 64); err == nil {
				rec.lap = lap
				rec.hasLap = true
			}
		}
		records = append(records, rec)
	}

	target := ""
	if len(vehicles) > 0 {
		target = vehicles[0]
		if seenVehicle[heroCar] {
			target = heroCar
		}
	}

	byTS := map[float64]*model.RawSample{}
	var order []float64
	minLap, maxLap := 0.0, 0.0
	haveLap := false
	for _, rec := range records {
		if target != "" && rec.vehicle != target {
			continue
		}
		s, ok := byTS[rec.ts]
		if !ok {
			s = &model.RawSample{
				Timestamp:    rec.ts,
				HasTimestamp: true,
				Fields:       map[string]float64{},
			}
			byTS[rec.ts] = s
			order = append(order, rec.ts)
		}
		if _, exists := s.Fields[rec.name]; !exists {
			s.Fields[rec.name] = rec.value
		}
		if rec.hasLap && !s.HasLap {
			s.Lap = rec.lap
			s.HasLap = true
			if !haveLap {
				minLap, maxLap = rec.lap, rec.lap
				haveLap = true
			} else {
				if rec.lap < minLap {
					minLap = rec.lap
				}
				if rec.lap > maxLap {
					maxLap = rec.lap
				}
			}
		}
	}
	sort.Float64s(order)

	samples := make([]model.RawSample, 0, len(order))
	for _, ts := range order {
		samples = append(samples, *byTS[ts])
	}
	fillChannels(samples)

	t := &Telemetry{Samples: samples, FirstLap: 1, TotalLaps: FallbackTotalLaps, Vehicle: target}
	if haveLap {
		if int(minLap) > 1 {
			t.FirstLap = int(minLap)
		}
		if int(maxLap) > FallbackTotalLaps {
			t.TotalLaps = int(maxLap)
		}
	}
	return t, nil
}

type columns struct {
	timestamp, vehicle, name, value, lap int
}

func indexColumns(header []string) columns {
	col := columns{timestamp: -1, vehicle: -1, name: -1, value: -1, lap: -1}
	for i, h := range header {
		switch h {
		case "timestamp":
			col.timestamp = i
		case "vehicle_id":
			col.vehicle = i
		case "telemetry_name":
			col.name = i
		case "telemetry_value":
			col.value = i
		case "lap":
			col.lap = i
		}
	}
	return col
}

// fillChannels forward-fills then back-fills the key channels so sparse
// upstream columns do not gap during playback.
func fillChannels(samples []model.RawSample) {
	for _, name := range filledChannels {
		last, haveLast := 0.0, false
		for i := range samples {
			if v, ok := samples[i].Fields[name]; ok {
				last, haveLast = v, true
			} else if haveLast {
				samples[i].Fields[name] = last
			}
		}
		next, haveNext := 0.0, false
		for i := len(samples) - 1; i >= 0; i-- {
			if v, ok := samples[i].Fields[name]; ok {
				next, haveNext = v, true
			} else if haveNext {
				samples[i].Fields[name] = next
			}
		}
	}
}
