package rbrleds

import (
	"context"
	"github.com/jd3nn1s/rbrleds/hiddev"
	"github.com/jd3nn1s/rbrleds/rbr"
	"github.com/jd3nn1s/rbrleds/telemetry"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"net"
	"time"
)

const recvBufferSize = 2048

var ErrSocket = errors.New("telemetry socket error")

var processRetryInterval = time.Second

// to allow testing
var (
	findDevice = func() (hiddev.Device, *hiddev.DeviceInfo, error) {
		return hiddev.Find()
	}
	listenPacket = net.ListenPacket
)

// Bridge connects the RBR telemetry stream to the wheel's rev lights. Each
// connection attempt opens the wheel, waits for RBR and then follows the
// telemetry until an I/O error occurs.
type Bridge struct {
	config    *Config
	locator   Locator
	forwarder Forwarder
	tracker   *RPMTracker

	dev  hiddev.Device
	conn net.PacketConn
}

// NewBridge creates a bridge. The resolver defaults to the locator and the
// forwarder may be nil.
func NewBridge(config *Config, locator Locator, resolver GearMapResolver, forwarder Forwarder) *Bridge {
	if resolver == nil {
		resolver = locator
	}
	return &Bridge{
		config:    config,
		locator:   locator,
		forwarder: forwarder,
		tracker:   NewRPMTracker(resolver),
	}
}

// Run only returns once the context is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	return retry(ctx, b)
}

func (b *Bridge) Name() string {
	return "bridge"
}

func (b *Bridge) Open() error {
	dev, info, err := findDevice()
	if err != nil {
		return err
	}
	b.dev = dev
	log.WithField("productID", info.ProductID).
		WithField("interface", info.Interface).
		WithField("product", info.Product).
		Info("wheel connected")
	return nil
}

func (b *Bridge) Close() error {
	if b.conn != nil {
		if err := b.conn.Close(); err != nil {
			log.WithField("err", err).Debug("unable to close telemetry socket")
		}
		b.conn = nil
	}
	if b.dev == nil {
		return nil
	}
	err := b.dev.Close()
	b.dev = nil
	return err
}

func (b *Bridge) Start(ctx context.Context) error {
	if err := b.waitForProcess(ctx); err != nil {
		return err
	}

	conn, err := listenPacket("udp", b.config.Addr())
	if err != nil {
		return errors.Wrap(ErrSocket, err.Error())
	}
	b.conn = conn
	log.WithField("addr", b.config.Addr()).Info("listening for telemetry")

	// unblock ReadFrom when cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	leds := NewLEDController(b.dev, b.config.IdleRPM, b.config.FlashThreshold)
	if err := leds.Off(); err != nil {
		return err
	}

	buf := make([]byte, recvBufferSize)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(ErrSocket, err.Error())
		}
		if err := b.handlePacket(buf[:n], leds); err != nil {
			return err
		}
	}
}

func (b *Bridge) waitForProcess(ctx context.Context) error {
	waiting := false
	for {
		path, err := b.locator.FindInstallPath()
		if err == nil {
			log.WithField("path", path).Info("found rbr installation")
			return nil
		}
		if errors.Cause(err) != rbr.ErrProcessNotFound {
			log.WithField("err", err).Warn("unable to look for rbr process")
		} else if !waiting {
			log.Infof("waiting for %s", rbr.ProcessName)
		}
		waiting = true
		if !sleep(ctx, processRetryInterval) {
			return ctx.Err()
		}
	}
}

func (b *Bridge) handlePacket(pkt []byte, leds *LEDController) error {
	if b.forwarder != nil {
		if err := b.forwarder.Forward(pkt); err != nil {
			log.WithField("err", err).Debug("unable to relay packet")
		}
	}

	t, err := telemetry.Decode(pkt)
	if err != nil {
		log.WithField("err", err).Warn("dropping packet")
		return nil
	}
	b.tracker.Update(t)
	s := b.tracker.State()
	if err := leds.Update(s); err != nil {
		return err
	}
	log.WithField("rpm", s.RPM).
		WithField("gear", s.Gear).
		WithField("upshift", s.Upshift).
		WithField("ceiling", s.Ceiling).
		WithField("leds", leds.State()).
		Debug("telemetry")
	return nil
}
