package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"grstrategy/pkg/model"
)

// Weather row defaults, applied per-field when a value is missing or
// unparsable.
const (
	defaultTempC      = 28.0
	defaultTrackTempC = 32.0
	defaultHumidity   = 55
	defaultWindKPH    = 8.0
	defaultWindDir    = 0.0
)

// LoadWeather reads the semicolon-separated weather CSV into ordered
// snapshots. Unparsable fields fall back to their defaults; only a missing
// file or header is an error.
func LoadWeather(path string) ([]model.Weather, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening weather %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "reading weather header %s", path)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[h] = i
	}

	var rows []model.Weather
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		rows = append(rows, model.Weather{
			TempC:      fieldFloat(row, idx, "AIR_TEMP", defaultTempC),
			TrackTempC: fieldFloat(row, idx, "TRACK_TEMP", defaultTrackTempC),
			Humidity:   fieldInt(row, idx, "HUMIDITY", defaultHumidity),
			WindKPH:    fieldFloat(row, idx, "WIND_SPEED", defaultWindKPH),
			WindDir:    fieldFloat(row, idx, "WIND_DIRECTION", defaultWindDir),
			Rain:       fieldInt(row, idx, "RAIN", 0),
		})
	}
	return rows, nil
}

func fieldFloat(row []string, idx map[string]int, name string, def float64) float64 {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return def
	}
	v, err := strconv.ParseFloat(row[i], 64)
	if err != nil {
		return def
	}
	return v
}

func fieldInt(row []string, idx map[string]int, name string, def int) int {
	return int(fieldFloat(row, idx, name, float64(def)))
}
