package main

import (
	"context"
	"flag"
	"github.com/jd3nn1s/rbrleds"
	"github.com/jd3nn1s/rbrleds/forwarder"
	"github.com/jd3nn1s/rbrleds/rbr"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	log "github.com/sirupsen/logrus"
)

var configFile = flag.String("config", "rbrleds.toml", "configuration file, relative to the binary unless absolute")
var ip = flag.String("ip", "", "address to receive telemetry on (default 127.0.0.1)")
var port = flag.Int("port", 0, "port to receive telemetry on (default 6779)")
var testMode = flag.Bool("testmode", false, "generate test telemetry instead of waiting for rbr")
var debug = flag.Bool("debug", false, "log every telemetry packet")

func main() {
	log.SetLevel(log.InfoLevel)
	flag.Parse()
	if *debug {
		log.SetLevel(log.DebugLevel)
	}
	_ = godotenv.Load()

	config, err := rbrleds.LoadConfig(*configFile)
	if err != nil {
		log.Fatal("unable to load configuration: ", err)
	}
	if err := config.ApplyEnv(); err != nil {
		log.Fatal("invalid environment: ", err)
	}
	if *ip != "" {
		config.IP = *ip
	}
	if *port != 0 {
		config.Port = *port
	}
	if err := config.Validate(); err != nil {
		log.Fatal("invalid arguments: ", err)
	}

	pterm.DefaultHeader.WithFullWidth().Println("RBR wheel rev lights")
	pterm.Info.Printfln("telemetry on %s", config.Addr())

	ctx := context.Background()

	var fwder rbrleds.Forwarder
	if config.Forwarder != nil {
		udp, err := forwarder.NewUDPForwarder(config.Forwarder)
		if err != nil {
			log.Fatal("unable to load UDP forwarder: ", err)
		}
		defer udp.Close()
		fwder = udp
		pterm.Info.Printfln("relaying telemetry to %s:%d", config.Forwarder.Server, config.Forwarder.Port)
	}

	locator := rbr.NewLocator()
	if config.InstallPath != "" {
		locator = rbr.NewStaticLocator(config.InstallPath)
	}

	var resolver rbrleds.GearMapResolver
	if *testMode {
		pterm.Warning.Println("test mode, telemetry is generated")
		resolver = rbrleds.TestModeGearMaps()
		locator = rbr.NewStaticLocator("")
		go func() {
			if err := rbrleds.RunTestMode(ctx, config.Addr()); err != nil {
				log.Errorf("test mode done: %v", err)
			}
		}()
	}

	bridge := rbrleds.NewBridge(config, locator, resolver, fwder)
	if err := bridge.Run(ctx); err != nil {
		log.Errorf("bridge done: %v", err)
	}
}
