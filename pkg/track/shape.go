package track

import (
	"grstrategy/pkg/model"
)

const (
	lapShapeStride  = 3
	fullShapeStride = 5
	minShapePoints  = 30
)

// position source fallbacks, matching the normalizer's chains
var (
	shapeLatSources  = []string{"VBOX_Lat_Min", "GPS_Lat"}
	shapeLongSources = []string{"VBOX_Long_Minutes", "GPS_Long"}
)

// BuildInit precomputes the static session-start payload from the recorded
// samples: the course polyline, its GPS bounds and the start/finish point.
// The polyline is carved from the lap with the most samples to avoid
// cross-lap chords; if that slice is too short the full dataset is used.
// fallbackStart is returned as start point when no usable GPS data exists.
func BuildInit(samples []model.RawSample, fallbackStart model.GeoPoint) model.TrackInit {
	init := model.TrackInit{Start: fallbackStart}

	points := make([]model.GeoPoint, 0, len(samples))
	lapOf := make([]float64, 0, len(samples))
	for _, s := range samples {
		lat, okLat := s.Get(shapeLatSources...)
		long, okLong := s.Get(shapeLongSources...)
		if !okLat || !okLong {
			continue
		}
		points = append(points, model.GeoPoint{Lat: lat, Long: long})
		lap := -1.0
		if s.HasLap {
			lap = s.Lap
		}
		lapOf = append(lapOf, lap)
	}
	if len(points) == 0 {
		return init
	}

	init.Bounds = boundsOf(points)

	// densest lap
	counts := map[float64]int{}
	for _, lap := range lapOf {
		if lap >= 0 {
			counts[lap]++
		}
	}
	bestLap := -1.0
	bestCount := 0
	for lap, c := range counts {
		if c > bestCount {
			bestLap, bestCount = lap, c
		}
	}

	if bestLap >= 0 && bestCount > 10 {
		lapPoints := make([]model.GeoPoint, 0, bestCount)
		for i, p := range points {
			if lapOf[i] == bestLap {
				lapPoints = append(lapPoints, p)
			}
		}
		init.Shape = decimate(lapPoints, lapShapeStride)
	}
	if len(init.Shape) < minShapePoints {
		init.Shape = decimate(points, fullShapeStride)
	}
	if len(init.Shape) > 0 {
		init.Start = init.Shape[0]
	}
	return init
}

func boundsOf(points []model.GeoPoint) model.GeoBounds {
	b := model.GeoBounds{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLong: points[0].Long, MaxLong: points[0].Long,
	}
	for _, p := range points[1:] {
		if p.Lat < b.MinLat {
			b.MinLat = p.Lat
		}
		if p.Lat > b.MaxLat {
			b.MaxLat = p.Lat
		}
		if p.Long < b.MinLong {
			b.MinLong = p.Long
		}
		if p.Long > b.MaxLong {
			b.MaxLong = p.Long
		}
	}
	return b
}

// decimate keeps every strideth point, dropping consecutive duplicates.
func decimate(points []model.GeoPoint, stride int) []model.GeoPoint {
	out := make([]model.GeoPoint, 0, len(points)/stride+1)
	for i := 0; i < len(points); i += stride {
		p := points[i]
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}
