package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grstrategy/pkg/model"
)

// cruising is a tick no rule should fire on.
func cruising() Input {
	return Input{
		Speed:      100,
		Throttle:   50,
		TireHealth: 100,
		Tires:      model.TireSet{FrontLeft: 100, FrontRight: 100, RearLeft: 100, RearRight: 100},
	}
}

func alertMessages(alerts []model.Alert) []string {
	msgs := make([]string, len(alerts))
	for i, a := range alerts {
		msgs[i] = a.Msg
	}
	return msgs
}

func TestEvaluateDefaultAlert(t *testing.T) {
	alerts, tip := Evaluate(cruising())
	require.Len(t, alerts, 1)
	assert.Equal(t, "Pace steady. Look for brake markers.", alerts[0].Msg)
	assert.Equal(t, model.AlertInfo, alerts[0].Type)
	assert.Empty(t, tip)
}

func TestEvaluateThresholdRules(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Input)
		wantMsg  string
		wantType string
	}{
		{
			name:     "heavy braking",
			mutate:   func(in *Input) { in.Brake = 90; in.Speed = 100 },
			wantMsg:  "Heavy braking sustained; lift sooner to save brakes.",
			wantType: model.AlertWarn,
		},
		{
			name:     "peak lateral load",
			mutate:   func(in *Input) { in.LatG = 1.9 },
			wantMsg:  "Peak lateral load; unwind steering sooner.",
			wantType: model.AlertWarn,
		},
		{
			name:     "over rev",
			mutate:   func(in *Input) { in.RPM = 7400 },
			wantMsg:  "High RPM; upshift sooner to protect engine.",
			wantType: model.AlertWarn,
		},
		{
			name:     "late braking opportunity",
			mutate:   func(in *Input) { in.PrevSpeed = 160; in.Brake = 25; in.Speed = 100 },
			wantMsg:  "Brake a touch later; entry speed leaving time on table.",
			wantType: model.AlertInfo,
		},
		{
			name:     "exit throttle",
			mutate:   func(in *Input) { in.PrevSpeed = 120; in.Speed = 100; in.Throttle = 20 },
			wantMsg:  "Feed throttle earlier on exit to recover speed.",
			wantType: model.AlertInfo,
		},
		{
			name:     "rain",
			mutate:   func(in *Input) { in.Weather = &model.Weather{Rain: 1} },
			wantMsg:  "Rain detected; extend brake zones and smooth throttle.",
			wantType: model.AlertWarn,
		},
		{
			name:     "new top speed",
			mutate:   func(in *Input) { in.NewTopSpeed = true; in.Speed = 151.2 },
			wantMsg:  "New top speed 151.2 km/h",
			wantType: model.AlertSuccess,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := cruising()
			tt.mutate(&in)

			alerts, _ := Evaluate(in)
			require.NotEmpty(t, alerts)
			found := false
			for _, a := range alerts {
				if a.Msg == tt.wantMsg {
					found = true
					assert.Equal(t, tt.wantType, a.Type)
				}
			}
			assert.True(t, found, "expected %q in %v", tt.wantMsg, alertMessages(alerts))
		})
	}
}

func TestEvaluateRulesAreIndependent(t *testing.T) {
	in := cruising()
	in.LatG = 1.9
	in.Throttle = 50

	alerts, _ := Evaluate(in)
	msgs := alertMessages(alerts)
	// both lateral rules fire, neither suppresses the other
	assert.Contains(t, msgs, "Ease throttle to prevent over-rotation.")
	assert.Contains(t, msgs, "Peak lateral load; unwind steering sooner.")
}

func TestEvaluateLapCompleteAlert(t *testing.T) {
	in := cruising()
	in.LapFinished = true
	in.HasLapDuration = true
	in.LapDuration = 92.3
	in.Lap = 7

	alerts, _ := Evaluate(in)
	msgs := alertMessages(alerts)
	assert.Contains(t, msgs, "Lap 7 complete in 92.3s")
}

func TestEvaluateOffBestAlert(t *testing.T) {
	in := cruising()
	in.HasLapDuration = true
	in.LapDuration = 97.5
	in.PreviousBest = 95.0

	alerts, _ := Evaluate(in)
	assert.Contains(t, alertMessages(alerts), "Off best by 2.5s; focus on earlier throttle at exit.")
}

func TestEvaluateVarianceAlert(t *testing.T) {
	in := cruising()
	in.HasLapDuration = true
	in.LapDuration = 95
	in.RecentDurations = []float64{94.0, 95.5, 94.8}

	alerts, _ := Evaluate(in)
	assert.Contains(t, alertMessages(alerts), "Lap variance high; stabilize braking points.")
}

func TestTipPriority(t *testing.T) {
	t.Run("blend rule wins over tire rule", func(t *testing.T) {
		in := cruising()
		in.Brake = 60
		in.Throttle = 40
		in.TireHealth = 80

		_, tip := Evaluate(in)
		assert.Equal(t, "Blend off brake before throttle to reduce tire scrub.", tip)
	})

	t.Run("tire rule fires alone", func(t *testing.T) {
		in := cruising()
		in.TireHealth = 80

		_, tip := Evaluate(in)
		assert.Equal(t, "Back off 5% entry speed to save fronts for the stint.", tip)
	})

	t.Run("untimed lap falls through to the sector tip", func(t *testing.T) {
		in := cruising()
		in.LapFinished = true
		in.Lap = 4

		_, tip := Evaluate(in)
		assert.Equal(t, "Lap 4 complete. Compare sector deltas.", tip)
	})

	t.Run("tip is mirrored as an alert", func(t *testing.T) {
		in := cruising()
		in.TireHealth = 80

		alerts, tip := Evaluate(in)
		assert.Contains(t, alertMessages(alerts), tip)
	})
}
