package telemetry

import (
	"bytes"
	"encoding/binary"
	"github.com/pkg/errors"
)

// PacketSize is the length of one NGP telemetry datagram.
const PacketSize = 664

var ErrMalformedPacket = errors.New("malformed telemetry packet")

// Decode reads a complete telemetry packet. Anything other than exactly
// PacketSize bytes is rejected rather than partially decoded.
func Decode(buf []byte) (*Telemetry, error) {
	if len(buf) != PacketSize {
		return nil, errors.Wrapf(ErrMalformedPacket, "expected %d bytes, got %d", PacketSize, len(buf))
	}
	t := &Telemetry{}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, t); err != nil {
		return nil, errors.Wrap(ErrMalformedPacket, err.Error())
	}
	return t, nil
}

func Encode(t *Telemetry) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, PacketSize))
	if err := binary.Write(buf, binary.LittleEndian, t); err != nil {
		return nil, errors.Wrap(err, "unable to encode telemetry")
	}
	return buf.Bytes(), nil
}
