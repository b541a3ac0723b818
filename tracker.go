package rbrleds

import (
	"github.com/jd3nn1s/rbrleds/rbr"
	"github.com/jd3nn1s/rbrleds/telemetry"
	log "github.com/sirupsen/logrus"
)

const noCar = -1

type RPMState struct {
	RPM              float32
	Gear             int32
	Car              int32
	Upshift          float32
	Ceiling          float32
	PreviousRaceTime float32
}

// RPMTracker follows the engine state of the player's car and keeps the gear
// map of that car loaded.
type RPMTracker struct {
	resolver GearMapResolver
	gears    *rbr.GearMap
	state    RPMState
}

func NewRPMTracker(resolver GearMapResolver) *RPMTracker {
	return &RPMTracker{
		resolver: resolver,
		gears:    &rbr.GearMap{},
		state: RPMState{
			Car: noCar,
		},
	}
}

func (rt *RPMTracker) State() RPMState {
	return rt.state
}

// GearMap returns the map in use. It must not be modified.
func (rt *RPMTracker) GearMap() *rbr.GearMap {
	return rt.gears
}

// Update applies one telemetry packet and reports whether a gear map reload
// was attempted.
func (rt *RPMTracker) Update(t *telemetry.Telemetry) bool {
	raceTime := t.Stage.RaceTime
	restarted := rt.state.PreviousRaceTime > 0 && raceTime == 0
	reloaded := false

	if t.Car.Index != rt.state.Car || restarted {
		rt.reload(t.Car.Index, restarted)
		rt.state.Car = t.Car.Index
		rt.state.Upshift = rt.gears.UpshiftFor(rt.state.Gear)
		reloaded = true
	}

	if t.Control.Gear != rt.state.Gear {
		rt.state.Gear = t.Control.Gear
		rt.state.Upshift = rt.gears.UpshiftFor(rt.state.Gear)
	}

	rt.state.RPM = t.Car.Engine.RPM
	rt.state.Ceiling = rt.gears.RPMLimit
	rt.state.PreviousRaceTime = raceTime
	return reloaded
}

func (rt *RPMTracker) reload(car int32, restarted bool) {
	logger := log.WithField("car", car).WithField("restart", restarted)
	gears, err := rt.resolver.ResolveGearMap(car)
	if err != nil {
		logger.WithField("err", err).Warn("unable to load gear map, keeping previous shift points")
		return
	}
	rt.gears = gears
	logger.WithField("rpmLimit", gears.RPMLimit).Info("loaded gear map")
}
