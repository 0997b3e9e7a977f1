// Package coach derives the per-tick alerts and the single coaching tip.
//
// Alerts come from a fixed table of independent threshold rules: every
// rule whose condition holds fires, with no suppression between rules.
// The tip comes from a strict priority chain evaluated top to bottom,
// first match wins. If neither produced anything the tick still carries
// one default steady-pace alert, so the output is never empty.
package coach

import (
	"fmt"
	"math"

	"grstrategy/pkg/model"
)

// Input is the fully resolved tick state the rules evaluate against.
type Input struct {
	Speed    float64
	Brake    float64
	Throttle float64
	LatG     float64
	RPM      float64

	TireHealth float64
	Tires      model.TireSet
	Weather    *model.Weather

	// PrevSpeed is the previous tick's resolved speed.
	PrevSpeed float64

	LapFinished    bool
	LapDuration    float64
	HasLapDuration bool
	Lap            int

	// PreviousBest is the session best before this lap was recorded.
	PreviousBest    float64
	RecentDurations []float64

	NewTopSpeed bool
}

type rule struct {
	when     func(Input) bool
	message  func(Input) string
	severity string
}

var rules = []rule{
	// braking / throttle discipline
	{
		when:     func(in Input) bool { return in.Brake > 85 && in.Speed > 80 },
		message:  func(Input) string { return "Heavy braking sustained; lift sooner to save brakes." },
		severity: model.AlertWarn,
	},
	{
		when:     func(in Input) bool { return in.Brake > 30 && in.Throttle > 20 },
		message:  func(Input) string { return "Separate brake and throttle to reduce scrub." },
		severity: model.AlertInfo,
	},

	// cornering balance
	{
		when:     func(in Input) bool { return math.Abs(in.LatG) > 1.2 && in.Speed < 90 },
		message:  func(Input) string { return "Carry more mid-corner speed; open steering earlier." },
		severity: model.AlertInfo,
	},
	{
		when:     func(in Input) bool { return math.Abs(in.LatG) > 1.6 && in.Throttle > 40 },
		message:  func(Input) string { return "Ease throttle to prevent over-rotation." },
		severity: model.AlertWarn,
	},
	{
		when:     func(in Input) bool { return math.Abs(in.LatG) > 1.8 },
		message:  func(Input) string { return "Peak lateral load; unwind steering sooner." },
		severity: model.AlertWarn,
	},

	// entry/exit pacing
	{
		when:     func(in Input) bool { return in.PrevSpeed > 150 && in.Brake > 20 && in.Speed < 110 },
		message:  func(Input) string { return "Brake a touch later; entry speed leaving time on table." },
		severity: model.AlertInfo,
	},
	{
		when: func(in Input) bool {
			return in.Throttle < 35 && in.Brake < 5 && in.PrevSpeed-in.Speed > 8
		},
		message:  func(Input) string { return "Feed throttle earlier on exit to recover speed." },
		severity: model.AlertInfo,
	},

	// powertrain / shifting
	{
		when:     func(in Input) bool { return in.RPM > 7200 },
		message:  func(Input) string { return "High RPM; upshift sooner to protect engine." },
		severity: model.AlertWarn,
	},
	{
		when:     func(in Input) bool { return in.TireHealth < 85 && in.RPM > 6500 },
		message:  func(Input) string { return "Short-shift to reduce tire slip." },
		severity: model.AlertInfo,
	},

	// tire & brake balance
	{
		when:     func(in Input) bool { return in.TireHealth < 90 },
		message:  func(Input) string { return "Tire wear emerging – manage inputs." },
		severity: model.AlertInfo,
	},
	{
		when: func(in Input) bool {
			return in.Brake > 80 && in.Tires.Fronts()+5 < in.Tires.Rears()
		},
		message:  func(Input) string { return "Fronts wearing faster; release brake earlier or bias rearward." },
		severity: model.AlertWarn,
	},

	// weather / environment
	{
		when: func(in Input) bool {
			return in.Weather != nil && in.Weather.TrackTempC > 40 && in.TireHealth < 80
		},
		message:  func(Input) string { return "Hot track; back off 5% entry to save tires." },
		severity: model.AlertInfo,
	},
	{
		when:     func(in Input) bool { return in.Weather != nil && in.Weather.Rain > 0 },
		message:  func(Input) string { return "Rain detected; extend brake zones and smooth throttle." },
		severity: model.AlertWarn,
	},
	{
		when:     func(in Input) bool { return in.Weather != nil && in.Weather.WindKPH > 15 },
		message:  func(Input) string { return "High wind; expect aero loss in fast corners." },
		severity: model.AlertInfo,
	},

	// lap timing
	{
		when: func(in Input) bool { return in.HasLapDuration },
		message: func(in Input) string {
			return fmt.Sprintf("Lap %d complete in %.1fs", in.Lap, in.LapDuration)
		},
		severity: model.AlertSuccess,
	},
	{
		when: func(in Input) bool {
			return in.HasLapDuration && in.PreviousBest > 0 && in.LapDuration > in.PreviousBest+1.0
		},
		message: func(in Input) string {
			delta := in.LapDuration - in.PreviousBest
			return fmt.Sprintf("Off best by %.1fs; focus on earlier throttle at exit.", delta)
		},
		severity: model.AlertInfo,
	},
	{
		when: func(in Input) bool {
			if !in.HasLapDuration || len(in.RecentDurations) < 3 {
				return false
			}
			lo, hi := in.RecentDurations[0], in.RecentDurations[0]
			for _, d := range in.RecentDurations[1:] {
				lo = math.Min(lo, d)
				hi = math.Max(hi, d)
			}
			return hi-lo > 0.8
		},
		message:  func(Input) string { return "Lap variance high; stabilize braking points." },
		severity: model.AlertInfo,
	},

	{
		when: func(in Input) bool { return in.NewTopSpeed && in.Speed > 120 },
		message: func(in Input) string {
			return fmt.Sprintf("New top speed %.1f km/h", in.Speed)
		},
		severity: model.AlertSuccess,
	},
}

type tipRule struct {
	when    func(Input) bool
	message func(Input) string
}

// Ordered priority chain, first match wins.
var tipRules = []tipRule{
	{
		when:    func(in Input) bool { return in.Brake > 50 && in.Throttle > 30 },
		message: func(Input) string { return "Blend off brake before throttle to reduce tire scrub." },
	},
	{
		when:    func(in Input) bool { return math.Abs(in.LatG) > 1.2 && in.Speed < 80 },
		message: func(Input) string { return "Carry a touch more mid-corner speed; open steering sooner." },
	},
	{
		when:    func(in Input) bool { return in.TireHealth < 85 },
		message: func(Input) string { return "Back off 5% entry speed to save fronts for the stint." },
	},
	{
		when: func(in Input) bool { return in.LapFinished && !in.HasLapDuration },
		message: func(in Input) string {
			return fmt.Sprintf("Lap %d complete. Compare sector deltas.", in.Lap)
		},
	},
}

const defaultAlertMsg = "Pace steady. Look for brake markers."

// Evaluate runs the rule table and the tip chain for one tick.
func Evaluate(in Input) ([]model.Alert, string) {
	var alerts []model.Alert
	for _, r := range rules {
		if r.when(in) {
			alerts = append(alerts, model.Alert{Msg: r.message(in), Type: r.severity})
		}
	}

	tip := ""
	for _, r := range tipRules {
		if r.when(in) {
			tip = r.message(in)
			break
		}
	}
	if tip != "" {
		alerts = append(alerts, model.Alert{Msg: tip, Type: model.AlertInfo})
	}
	if len(alerts) == 0 {
		alerts = append(alerts, model.Alert{Msg: defaultAlertMsg, Type: model.AlertInfo})
	}
	return alerts, tip
}
