package main

import (
	"flag"
	"fmt"
	"github.com/jd3nn1s/rbrleds"
	"github.com/jd3nn1s/rbrleds/rbr"
	"github.com/jd3nn1s/rbrleds/telemetry"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	log "github.com/sirupsen/logrus"
	"net"
	"strconv"
	"time"
)

var ip = flag.String("ip", rbrleds.DefaultIP, "address to receive telemetry on")
var port = flag.Int("port", rbrleds.DefaultPort, "port to receive telemetry on")
var refresh = flag.Duration("refresh", 100*time.Millisecond, "minimum time between screen updates")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	addr := net.JoinHostPort(*ip, strconv.Itoa(*port))
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		log.Fatal("unable to listen for telemetry: ", err)
	}
	defer conn.Close()
	pterm.Info.Printfln("listening on %s", addr)

	area, err := pterm.DefaultArea.Start()
	if err != nil {
		log.Fatal("unable to start terminal area: ", err)
	}
	defer area.Stop()

	buf := make([]byte, 2048)
	var last time.Time
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			log.Fatal("unable to receive telemetry: ", err)
		}
		t, err := telemetry.Decode(buf[:n])
		if err != nil {
			log.WithField("err", err).Warn("dropping packet")
			continue
		}
		if time.Since(last) < *refresh {
			continue
		}
		last = time.Now()
		table, err := render(t)
		if err != nil {
			log.WithField("err", err).Warn("unable to render telemetry")
			continue
		}
		area.Update(table)
	}
}

func render(t *telemetry.Telemetry) (string, error) {
	folder, ok := rbr.ResolveCarFolder(t.Car.Index)
	if !ok {
		folder = "unknown"
	}
	f := func(v float32) string {
		return strconv.FormatFloat(float64(v), 'f', 2, 32)
	}
	celsius := func(kelvin float32) string {
		return f(kelvin - 273.15)
	}
	data := pterm.TableData{
		{"field", "value"},
		{"steps", fmt.Sprint(t.TotalSteps)},
		{"stage", fmt.Sprint(t.Stage.Index)},
		{"race time", f(t.Stage.RaceTime)},
		{"distance to end", f(t.Stage.DistanceToEnd)},
		{"car", fmt.Sprintf("%d (%s)", t.Car.Index, folder)},
		{"speed", f(t.Car.Speed)},
		{"gear", fmt.Sprint(t.Control.Gear)},
		{"rpm", f(t.Car.Engine.RPM)},
		{"engine temp", celsius(t.Car.Engine.EngineTemperature)},
		{"throttle", f(t.Control.Throttle)},
		{"brake", f(t.Control.Brake)},
		{"handbrake", f(t.Control.Handbrake)},
		{"clutch", f(t.Control.Clutch)},
		{"brake disk LF/RF", celsius(t.Car.SuspensionLF.Wheel.BrakeDisk.Temperature) + " / " + celsius(t.Car.SuspensionRF.Wheel.BrakeDisk.Temperature)},
		{"brake disk LB/RB", celsius(t.Car.SuspensionLB.Wheel.BrakeDisk.Temperature) + " / " + celsius(t.Car.SuspensionRB.Wheel.BrakeDisk.Temperature)},
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}
