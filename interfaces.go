package rbrleds

import (
	"github.com/jd3nn1s/rbrleds/rbr"
)

type GearMapResolver interface {
	ResolveGearMap(car int32) (*rbr.GearMap, error)
}

type Locator interface {
	GearMapResolver
	FindInstallPath() (string, error)
}

type Forwarder interface {
	Forward(pkt []byte) error
	Close() error
}
