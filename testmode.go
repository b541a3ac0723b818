package rbrleds

import (
	"context"
	"github.com/jd3nn1s/rbrleds/rbr"
	"github.com/jd3nn1s/rbrleds/telemetry"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"net"
	"time"
)

const (
	testModeCar      = 2
	testModeMinRPM   = 1000
	testModeMaxRPM   = 7500
	testModeRPMStep  = 50
	testModeInterval = 20 * time.Millisecond
)

// StaticGearMaps returns the same gear map for every car.
type StaticGearMaps struct {
	GearMap rbr.GearMap
}

func (s *StaticGearMaps) ResolveGearMap(car int32) (*rbr.GearMap, error) {
	g := s.GearMap
	return &g, nil
}

// TestModeGearMaps has shift points for the generated sweep.
func TestModeGearMaps() *StaticGearMaps {
	s := &StaticGearMaps{}
	for i := 1; i < len(s.GearMap.Upshift); i++ {
		s.GearMap.Upshift[i] = 7000
		s.GearMap.Downshift[i] = 3500
	}
	s.GearMap.RPMLimit = testModeMaxRPM
	return s
}

// testSweep produces a car revving up and down through the gears.
type testSweep struct {
	t    telemetry.Telemetry
	down bool
}

func newTestSweep() *testSweep {
	sw := &testSweep{}
	sw.t.Car.Index = testModeCar
	sw.t.Car.Engine.RPM = testModeMinRPM
	sw.t.Control.Gear = 1
	return sw
}

func (sw *testSweep) next() *telemetry.Telemetry {
	sw.t.TotalSteps++
	sw.t.Stage.RaceTime += float32(testModeInterval.Seconds())

	if sw.down {
		sw.t.Car.Engine.RPM -= testModeRPMStep
	} else {
		sw.t.Car.Engine.RPM += testModeRPMStep
	}
	if sw.t.Car.Engine.RPM >= testModeMaxRPM {
		sw.down = true
	} else if sw.t.Car.Engine.RPM <= testModeMinRPM {
		sw.down = false
		if sw.t.Control.Gear < 6 {
			sw.t.Control.Gear++
		} else {
			sw.t.Control.Gear = 1
		}
	}
	sw.t.Control.Throttle = (sw.t.Car.Engine.RPM - testModeMinRPM) / (testModeMaxRPM - testModeMinRPM)

	t := sw.t
	return &t
}

// RunTestMode sends generated telemetry to addr until the context is
// cancelled.
func RunTestMode(ctx context.Context, addr string) error {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return errors.Wrapf(err, "unable to dial %s", addr)
	}
	defer conn.Close()
	log.WithField("addr", addr).Info("sending test telemetry")

	sweep := newTestSweep()
	ticker := time.NewTicker(testModeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		pkt, err := telemetry.Encode(sweep.next())
		if err != nil {
			return err
		}
		if _, err := conn.Write(pkt); err != nil {
			// the bridge may not be listening yet
			log.WithField("err", err).Debug("unable to send test telemetry")
		}
	}
}
