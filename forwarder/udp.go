package forwarder

import (
	"fmt"
	"github.com/jd3nn1s/rbrleds/telemetry"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"net"
)

// UDPConfig is the address of a dashboard that should receive a copy of the
// telemetry stream.
type UDPConfig struct {
	Server string
	Port   int
}

// UDPForwarder relays raw telemetry packets unchanged. NGP sends to a single
// port, so the bridge passes the stream on for the dashboard.
type UDPForwarder struct {
	Config *UDPConfig

	conn    net.Conn
	dropped int
}

func NewUDPForwarder(config *UDPConfig) (*UDPForwarder, error) {
	if config == nil || config.Server == "" || config.Port == 0 {
		return nil, errors.New("udp forwarder requires a server and port")
	}
	udp := &UDPForwarder{
		Config: config,
	}
	if err := udp.connect(); err != nil {
		return nil, err
	}
	return udp, nil
}

func (udp *UDPForwarder) Close() error {
	return udp.conn.Close()
}

// Forward writes one packet. A dashboard that is not running makes writes
// fail with connection refused, which is reported but harmless.
func (udp *UDPForwarder) Forward(pkt []byte) error {
	if _, err := udp.conn.Write(pkt); err != nil {
		udp.dropped++
		return errors.Wrapf(err, "unable to forward packet to %s", udp.conn.RemoteAddr())
	}
	if udp.dropped > 0 {
		log.WithField("dropped", udp.dropped).Info("dashboard reachable again")
		udp.dropped = 0
	}
	return nil
}

func (udp *UDPForwarder) connect() error {
	writeBufSize := telemetry.PacketSize * 2

	conn, err := net.Dial("udp", fmt.Sprintf("%s:%d",
		udp.Config.Server,
		udp.Config.Port))
	if err != nil {
		return errors.Wrap(err, "unable to dial dashboard")
	}
	udpConn := conn.(*net.UDPConn)
	if err = udpConn.SetWriteBuffer(writeBufSize); err != nil {
		conn.Close()
		return errors.Wrapf(err, "unable to set OS write buffer to %v", writeBufSize)
	}

	udp.conn = conn
	return nil
}
