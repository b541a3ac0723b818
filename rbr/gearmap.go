package rbr

import (
	"bufio"
	"github.com/pkg/errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	gearConfigFile = "common.lsp"
	forwardGears   = 7
)

var ErrConfigParse = errors.New("unable to parse gear configuration value")

// GearMap holds the shift points of one car. A zero value means the shift
// point is unknown, not that the shift happens at 0 RPM.
type GearMap struct {
	Upshift   [forwardGears]float32
	Downshift [forwardGears]float32
	RPMLimit  float32
}

// UpshiftFor returns the upshift RPM of the given telemetry gear. Gear 0 is
// neutral and never has a shift point.
func (g *GearMap) UpshiftFor(gear int32) float32 {
	if gear <= 0 || gear >= forwardGears {
		return 0
	}
	return g.Upshift[gear]
}

type gearKey func(g *GearMap) *float32

var gearKeys = mkGearKeys()

func mkGearKeys() map[string]gearKey {
	keys := map[string]gearKey{
		"rpmlimit": func(g *GearMap) *float32 { return &g.RPMLimit },
	}
	for i := 0; i < forwardGears; i++ {
		i := i
		keys["gear"+strconv.Itoa(i)+"upshift"] = func(g *GearMap) *float32 { return &g.Upshift[i] }
		keys["gear"+strconv.Itoa(i)+"downshift"] = func(g *GearMap) *float32 { return &g.Downshift[i] }
	}
	return keys
}

func LoadGearMap(physicsFolder string) (*GearMap, error) {
	fileName := filepath.Join(physicsFolder, gearConfigFile)
	file, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", fileName)
	}
	defer file.Close()

	g, err := ParseGearMap(file)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load %s", fileName)
	}
	return g, nil
}

// ParseGearMap reads "key value" lines. Lines that do not split into exactly
// two fields and unknown keys are skipped, but a known key with a value that
// is not a number fails the whole parse.
func ParseGearMap(r io.Reader) (*GearMap, error) {
	g := &GearMap{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.ToLower(scanner.Text())
		if !strings.Contains(line, "gear") && !strings.Contains(line, "rpmlimit") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			continue
		}
		key, ok := gearKeys[parts[0]]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(parts[1], 32)
		if err != nil {
			return nil, errors.Wrapf(ErrConfigParse, "line %d: %s %q", lineNo, parts[0], parts[1])
		}
		*key(g) = float32(v)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to read gear configuration")
	}
	return g, nil
}
