package hiddev

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sstallion/go-hid"
)

const LogitechVID uint16 = 0x046d

type Product struct {
	Name string
	PID  uint16
	// some wheels expose several interfaces and only the first accepts
	// LED reports
	FirstInterfaceOnly bool
}

var Products = []Product{
	{Name: "G29", PID: 0xc24f, FirstInterfaceOnly: true},
	{Name: "G27", PID: 0xc29b},
	{Name: "G920", PID: 0xc261},
}

var ErrDeviceNotFound = errors.New("no supported wheel found")

type DeviceInfo struct {
	Path      string
	VendorID  uint16
	ProductID uint16
	Interface int
	Product   string
}

type Device interface {
	Write([]byte) (int, error)
	Close() error
}

// to allow testing
var enumerate = func(vid, pid uint16) ([]DeviceInfo, error) {
	if err := hid.Init(); err != nil {
		return nil, errors.Wrap(err, "unable to initialize hidapi")
	}
	var infos []DeviceInfo
	err := hid.Enumerate(vid, pid, func(info *hid.DeviceInfo) error {
		infos = append(infos, DeviceInfo{
			Path:      info.Path,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
			Interface: info.InterfaceNbr,
			Product:   info.ProductStr,
		})
		return nil
	})
	return infos, err
}

var openPath = func(path string) (Device, error) {
	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// Find opens the first connected wheel, in the order of Products.
func Find() (Device, *DeviceInfo, error) {
	for _, p := range Products {
		infos, err := enumerate(LogitechVID, p.PID)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "unable to enumerate %s devices", p.Name)
		}
		info, ok := selectInterface(p, infos)
		if !ok {
			continue
		}
		log.WithField("product", p.Name).
			WithField("interface", info.Interface).
			Debug("opening wheel")
		dev, err := openPath(info.Path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "unable to open %s", p.Name)
		}
		return dev, &info, nil
	}
	return nil, nil, ErrDeviceNotFound
}

func selectInterface(p Product, infos []DeviceInfo) (DeviceInfo, bool) {
	for _, info := range infos {
		if info.VendorID != LogitechVID || info.ProductID != p.PID {
			continue
		}
		if p.FirstInterfaceOnly && info.Interface != 0 {
			continue
		}
		return info, true
	}
	return DeviceInfo{}, false
}
