package rbr

import (
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
	log "github.com/sirupsen/logrus"
	"path/filepath"
)

const ProcessName = "RichardBurnsRally_SSE.exe"

var (
	ErrProcessNotFound = errors.New("rbr process not found")
	ErrUnknownCar      = errors.New("no physics folder for car")
)

type osProcess interface {
	Name() (string, error)
	Cwd() (string, error)
	Exe() (string, error)
}

// to allow testing
var listProcesses = func() ([]osProcess, error) {
	ps, err := process.Processes()
	if err != nil {
		return nil, err
	}
	ret := make([]osProcess, len(ps))
	for i, p := range ps {
		ret[i] = p
	}
	return ret, nil
}

// Locator finds the RBR installation and the physics folders within it.
type Locator struct {
	installPath string
	static      bool
}

func NewLocator() *Locator {
	return &Locator{}
}

// NewStaticLocator uses a known install path and never scans processes.
func NewStaticLocator(installPath string) *Locator {
	return &Locator{
		installPath: installPath,
		static:      true,
	}
}

func (l *Locator) InstallPath() string {
	return l.installPath
}

func (l *Locator) FindInstallPath() (string, error) {
	if l.static {
		return l.installPath, nil
	}
	ps, err := listProcesses()
	if err != nil {
		return "", errors.Wrap(err, "unable to list processes")
	}
	for _, p := range ps {
		name, err := p.Name()
		if err != nil || name != ProcessName {
			continue
		}
		dir, err := processDir(p)
		if err != nil {
			log.WithField("err", err).Warn("unable to determine rbr install directory")
			continue
		}
		l.installPath = dir
		return dir, nil
	}
	return "", ErrProcessNotFound
}

// processDir prefers the working directory as RBR is always started from its
// install directory, falling back to the executable's location.
func processDir(p osProcess) (string, error) {
	if cwd, err := p.Cwd(); err == nil && cwd != "" {
		return cwd, nil
	}
	exe, err := p.Exe()
	if err != nil {
		return "", err
	}
	if exe == "" {
		return "", errors.New("empty executable path")
	}
	return filepath.Dir(exe), nil
}

func (l *Locator) PhysicsPath(car int32) (string, bool) {
	if l.installPath == "" {
		return "", false
	}
	folder, ok := ResolveCarFolder(car)
	if !ok {
		return "", false
	}
	return filepath.Join(l.installPath, "Physics", folder), true
}

func (l *Locator) ResolveGearMap(car int32) (*GearMap, error) {
	if l.installPath == "" {
		return nil, ErrProcessNotFound
	}
	path, ok := l.PhysicsPath(car)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownCar, "car %d", car)
	}
	return LoadGearMap(path)
}
