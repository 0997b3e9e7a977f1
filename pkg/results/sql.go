package results

import (
	"database/sql"

	"grstrategy/pkg/model"
)

const createLapResultsTable = `CREATE TABLE IF NOT EXISTS lap_results (
	lap INTEGER PRIMARY KEY,
	duration REAL NOT NULL,
	sector1 REAL,
	sector2 REAL,
	sector3 REAL,
	top_speed REAL);`

const selectLapResults = `SELECT lap, duration, sector1, sector2, sector3, top_speed FROM lap_results`

const upsertLapResult = `INSERT OR REPLACE INTO lap_results
	(lap, duration, sector1, sector2, sector3, top_speed)
	VALUES (?, ?, ?, ?, ?, ?)`

func readLapResults(rows *sql.Rows) (map[int]model.LapResult, error) {
	defer rows.Close()

	feed := map[int]model.LapResult{}
	for rows.Next() {
		var lr model.LapResult
		var s1, s2, s3, top sql.NullFloat64
		if err := rows.Scan(&lr.Lap, &lr.Duration, &s1, &s2, &s3, &top); err != nil {
			return feed, err
		}
		lr.Sector1 = s1.Float64
		lr.Sector2 = s2.Float64
		lr.Sector3 = s3.Float64
		lr.TopSpeed = top.Float64
		feed[lr.Lap] = lr
	}
	return feed, rows.Err()
}
