package rbrleds

import (
	"github.com/jd3nn1s/rbrleds/rbr"
	"github.com/pkg/errors"
	"sync"
)

type deviceStub struct {
	mu       sync.Mutex
	writes   [][]byte
	writeErr error
	closed   bool
	// signalled after every successful write when set
	writeChan chan LEDState
}

func (d *deviceStub) Write(b []byte) (int, error) {
	d.mu.Lock()
	if d.writeErr != nil {
		d.mu.Unlock()
		return 0, d.writeErr
	}
	report := make([]byte, len(b))
	copy(report, b)
	d.writes = append(d.writes, report)
	d.mu.Unlock()

	if d.writeChan != nil {
		d.writeChan <- LEDState(b[3])
	}
	return len(b), nil
}

func (d *deviceStub) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *deviceStub) states() []LEDState {
	d.mu.Lock()
	defer d.mu.Unlock()
	ret := []LEDState{}
	for _, w := range d.writes {
		ret = append(ret, LEDState(w[3]))
	}
	return ret
}

func (d *deviceStub) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes = nil
}

type resolverStub struct {
	maps  map[int32]*rbr.GearMap
	calls []int32
}

func (r *resolverStub) ResolveGearMap(car int32) (*rbr.GearMap, error) {
	r.calls = append(r.calls, car)
	g, ok := r.maps[car]
	if !ok {
		return nil, errors.Wrapf(rbr.ErrUnknownCar, "car %d", car)
	}
	copied := *g
	return &copied, nil
}

type locatorStub struct {
	resolverStub
	mu      sync.Mutex
	missing int
	lookups int
	findErr error
}

func (l *locatorStub) FindInstallPath() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lookups++
	if l.missing > 0 {
		l.missing--
		if l.findErr != nil {
			return "", l.findErr
		}
		return "", rbr.ErrProcessNotFound
	}
	return "/games/rbr", nil
}

func (l *locatorStub) lookupCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lookups
}

type forwarderStub struct {
	mu      sync.Mutex
	packets [][]byte
	err     error
}

func (f *forwarderStub) Forward(pkt []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make([]byte, len(pkt))
	copy(copied, pkt)
	f.packets = append(f.packets, copied)
	return f.err
}

func (f *forwarderStub) Close() error {
	return nil
}

func (f *forwarderStub) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.packets)
}

func gearMap(limit float32, upshifts ...float32) *rbr.GearMap {
	g := &rbr.GearMap{RPMLimit: limit}
	copy(g.Upshift[:], upshifts)
	return g
}
