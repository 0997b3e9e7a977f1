// Package tires holds the per-wheel wear heuristic. Wear only ever goes
// down within a session; Reset is the single increase path.
package tires

import (
	"grstrategy/pkg/helper"
	"grstrategy/pkg/model"
	"math"
)

const (
	brakeLoadFactor  = 0.01
	cornerLoadFactor = 0.02
	rearCornerShare  = 0.9
	brakeWheelShare  = 0.25
)

// Model tracks the four wear scalars, range [0,100].
type Model struct {
	set model.TireSet
}

func NewModel() *Model {
	m := &Model{}
	m.Reset()
	return m
}

// Reset restores a fresh tire set.
func (m *Model) Reset() {
	m.set = model.TireSet{FrontLeft: 100, FrontRight: 100, RearLeft: 100, RearRight: 100}
}

// Wear applies one tick of braking and lateral load. Positive lateral g is
// load on the left side.
func (m *Model) Wear(brake, latG float64) {
	brakeLoad := brake * brakeLoadFactor
	cornerLoad := math.Abs(latG) * cornerLoadFactor

	if latG >= 0 {
		m.set.FrontLeft = clampWheel(m.set.FrontLeft - cornerLoad)
		m.set.RearLeft = clampWheel(m.set.RearLeft - cornerLoad*rearCornerShare)
	} else {
		m.set.FrontRight = clampWheel(m.set.FrontRight - cornerLoad)
		m.set.RearRight = clampWheel(m.set.RearRight - cornerLoad*rearCornerShare)
	}

	wheelBrake := brakeLoad * brakeWheelShare
	m.set.FrontLeft = clampWheel(m.set.FrontLeft - wheelBrake)
	m.set.FrontRight = clampWheel(m.set.FrontRight - wheelBrake)
	m.set.RearLeft = clampWheel(m.set.RearLeft - wheelBrake)
	m.set.RearRight = clampWheel(m.set.RearRight - wheelBrake)
}

// Set returns the current wear values.
func (m *Model) Set() model.TireSet {
	return m.set
}

// Health is the mean of the four wheels, rounded to 2 decimals.
func (m *Model) Health() float64 {
	sum := m.set.FrontLeft + m.set.FrontRight + m.set.RearLeft + m.set.RearRight
	return helper.Round2(sum / 4)
}

func clampWheel(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
