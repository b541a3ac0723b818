package rbrleds

import (
	"context"
	"github.com/jd3nn1s/rbrleds/hiddev"
	"github.com/jd3nn1s/rbrleds/rbr"
	"github.com/jd3nn1s/rbrleds/telemetry"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net"
	"sync"
	"testing"
	"time"
)

type bridgeIO struct {
	mu      sync.Mutex
	devices []hiddev.Device
	errs    []error
	opened  int
	addrs   chan net.Addr
}

// stubBridgeIO hands out the given devices in order and binds every socket to
// a free loopback port, published on addrs.
func stubBridgeIO(devices []hiddev.Device, errs []error) (*bridgeIO, func()) {
	bio := &bridgeIO{
		devices: devices,
		errs:    errs,
		addrs:   make(chan net.Addr, 10),
	}
	origFindDevice, origListenPacket := findDevice, listenPacket
	findDevice = func() (hiddev.Device, *hiddev.DeviceInfo, error) {
		bio.mu.Lock()
		defer bio.mu.Unlock()
		i := bio.opened
		bio.opened++
		if i < len(bio.errs) && bio.errs[i] != nil {
			return nil, nil, bio.errs[i]
		}
		dev := bio.devices[len(bio.devices)-1]
		if i < len(bio.devices) {
			dev = bio.devices[i]
		}
		return dev, &hiddev.DeviceInfo{ProductID: 0xc24f}, nil
	}
	listenPacket = func(network, address string) (net.PacketConn, error) {
		pc, err := net.ListenPacket(network, "127.0.0.1:0")
		if err == nil {
			bio.addrs <- pc.LocalAddr()
		}
		return pc, err
	}
	return bio, func() {
		findDevice, listenPacket = origFindDevice, origListenPacket
	}
}

func (bio *bridgeIO) openCount() int {
	bio.mu.Lock()
	defer bio.mu.Unlock()
	return bio.opened
}

func expectWrite(t *testing.T, ch <-chan LEDState, expected LEDState) {
	select {
	case s := <-ch:
		assert.Equal(t, expected, s)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for led report", "expected %d", expected)
	}
}

func send(t *testing.T, addr net.Addr, pkt []byte) {
	conn, err := net.Dial("udp", addr.String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write(pkt)
	require.NoError(t, err)
}

func encode(t *testing.T, tel *telemetry.Telemetry) []byte {
	pkt, err := telemetry.Encode(tel)
	require.NoError(t, err)
	return pkt
}

func runBridge(b *Bridge) (cancel func(), wait func()) {
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		_ = b.Run(ctx)
		wg.Done()
	}()
	return cancel, wg.Wait
}

func TestBridgeDrivesLEDs(t *testing.T) {
	defer noDelays()()
	dev := &deviceStub{writeChan: make(chan LEDState, 100)}
	bio, restore := stubBridgeIO([]hiddev.Device{dev}, nil)
	defer restore()

	locator := &locatorStub{
		missing: 2,
		resolverStub: resolverStub{maps: map[int32]*rbr.GearMap{
			2: gearMap(8000, 0, 6800),
		}},
	}
	fwd := &forwarderStub{}
	b := NewBridge(DefaultConfig(), locator, nil, fwd)
	cancel, wait := runBridge(b)

	addr := <-bio.addrs
	expectWrite(t, dev.writeChan, LEDsOff)
	assert.Equal(t, 3, locator.lookupCount(), "should wait for the rbr process")

	send(t, addr, []byte{1, 2, 3})
	send(t, addr, encode(t, packet(2, 1, 7000, 10)))
	expectWrite(t, dev.writeChan, LEDs4)
	assert.Equal(t, 2, fwd.count(), "every datagram is relayed")

	send(t, addr, encode(t, packet(2, 1, 7900, 10.1)))
	expectWrite(t, dev.writeChan, LEDs5)

	cancel()
	wait()
	assert.Equal(t, []int32{2}, locator.calls)
	assert.Equal(t, 1, bio.openCount())
	assert.True(t, dev.closed)
}

func TestBridgeReconnectsAfterWriteError(t *testing.T) {
	defer noDelays()()
	broken := &deviceStub{writeErr: errors.New("device unplugged")}
	dev := &deviceStub{writeChan: make(chan LEDState, 100)}
	bio, restore := stubBridgeIO([]hiddev.Device{broken, dev}, nil)
	defer restore()

	locator := &locatorStub{resolverStub: resolverStub{maps: map[int32]*rbr.GearMap{}}}
	b := NewBridge(DefaultConfig(), locator, nil, nil)
	cancel, wait := runBridge(b)

	expectWrite(t, dev.writeChan, LEDsOff)
	assert.Equal(t, 2, bio.openCount())
	assert.True(t, broken.closed)

	cancel()
	wait()
}

func TestBridgeRetriesDeviceDiscovery(t *testing.T) {
	defer noDelays()()
	dev := &deviceStub{writeChan: make(chan LEDState, 100)}
	bio, restore := stubBridgeIO([]hiddev.Device{dev}, []error{
		hiddev.ErrDeviceNotFound,
		hiddev.ErrDeviceNotFound,
	})
	defer restore()

	locator := &locatorStub{resolverStub: resolverStub{maps: map[int32]*rbr.GearMap{}}}
	b := NewBridge(DefaultConfig(), locator, nil, nil)
	cancel, wait := runBridge(b)

	expectWrite(t, dev.writeChan, LEDsOff)
	assert.Equal(t, 3, bio.openCount())

	cancel()
	wait()
}

func TestBridgeRetriesSocket(t *testing.T) {
	defer noDelays()()
	dev := &deviceStub{writeChan: make(chan LEDState, 100)}
	_, restore := stubBridgeIO([]hiddev.Device{dev}, nil)
	defer restore()

	stubbed := listenPacket
	failures := 1
	listenPacket = func(network, address string) (net.PacketConn, error) {
		if failures > 0 {
			failures--
			return nil, errors.New("address already in use")
		}
		return stubbed(network, address)
	}

	locator := &locatorStub{resolverStub: resolverStub{maps: map[int32]*rbr.GearMap{}}}
	b := NewBridge(DefaultConfig(), locator, nil, nil)
	cancel, wait := runBridge(b)

	expectWrite(t, dev.writeChan, LEDsOff)
	assert.Equal(t, 0, failures)
	assert.Equal(t, 2, locator.lookupCount(), "process lookup is repeated for the new session")

	cancel()
	wait()
}

func TestBridgeCancelWhileWaitingForProcess(t *testing.T) {
	defer noDelays()()
	dev := &deviceStub{}
	_, restore := stubBridgeIO([]hiddev.Device{dev}, nil)
	defer restore()

	locator := &locatorStub{missing: 1 << 30}
	b := NewBridge(DefaultConfig(), locator, nil, nil)
	cancel, wait := runBridge(b)

	for locator.lookupCount() < 3 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	wait()
	assert.True(t, dev.closed)
	assert.Empty(t, dev.states())
}

func TestHandlePacket(t *testing.T) {
	dev := &deviceStub{}
	resolver := &resolverStub{maps: map[int32]*rbr.GearMap{
		2: gearMap(8000),
	}}
	fwd := &forwarderStub{err: errors.New("connection refused")}
	b := NewBridge(DefaultConfig(), &locatorStub{}, resolver, fwd)
	leds := NewLEDController(dev, 0, 2)

	assert.NoError(t, b.handlePacket(make([]byte, telemetry.PacketSize-1), leds), "malformed packets are dropped")
	assert.Empty(t, resolver.calls)

	assert.NoError(t, b.handlePacket(encode(t, packet(2, 3, 5000, 1)), leds), "relay errors are ignored")
	assert.Equal(t, []int32{2}, resolver.calls)
	assert.Equal(t, []LEDState{LEDs2}, dev.states())
	assert.Equal(t, 2, fwd.count())

	dev.writeErr = errors.New("device unplugged")
	err := b.handlePacket(encode(t, packet(2, 3, 6500, 1.1)), leds)
	assert.Equal(t, ErrDeviceConnectionLost, errors.Cause(err))
}
