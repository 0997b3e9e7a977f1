package insights

import (
	"bytes"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"grstrategy/pkg/helper"
	"grstrategy/pkg/model"
	"grstrategy/pkg/track"
)

// RenderSummary renders the session insights as a console table: headline
// aggregates, the lap history and the best sector splits.
func RenderSummary(si model.SessionInsights) string {
	var b bytes.Buffer

	fmt.Fprintf(&b, "Laps: %d  Best: %s  Avg: %s  Consistency: %.2fs  Top speed: %.1f km/h  Pits: %d\n",
		si.LapsCompleted,
		helper.SecondsToMinutes(si.BestLap),
		helper.SecondsToMinutes(si.AverageLap),
		si.Consistency,
		si.TopSpeed,
		si.PitCount,
	)

	t := table.NewWriter()
	t.SetOutputMirror(&b)
	t.SetStyle(table.StyleRounded)
	t.AppendSeparator()
	t.AppendHeader(table.Row{"LAP", "TIME", "DIFF"})
	for _, e := range si.History {
		if e.Provisional {
			t.AppendRow(table.Row{e.Lap, "(in progress)", ""})
			continue
		}
		t.AppendRow(table.Row{
			e.Lap,
			helper.SecondsToMinutes(e.Duration),
			helper.SecondsToDiff(e.Duration - si.BestLap),
		})
	}
	t.Render()

	if len(si.BestSectors) > 0 {
		st := table.NewWriter()
		st.SetOutputMirror(&b)
		st.SetStyle(table.StyleRounded)
		st.AppendHeader(table.Row{"SECTOR", "BEST", "LAP"})
		for _, label := range []string{track.Sector1, track.Sector2, track.Sector3} {
			if best, ok := si.BestSectors[label]; ok {
				st.AppendRow(table.Row{label, helper.ToSectorTime(best.Seconds), best.Lap})
			}
		}
		st.Render()
	}

	return b.String()
}
