package rbrleds

import (
	"github.com/BurntSushi/toml"
	"github.com/jd3nn1s/rbrleds/forwarder"
	"github.com/pkg/errors"
	"io"
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultIP   = "127.0.0.1"
	DefaultPort = 6779
)

type Config struct {
	IP   string
	Port int
	// InstallPath skips looking for the RBR process when set
	InstallPath    string
	IdleRPM        float32
	FlashThreshold int
	// relays every received packet to a dashboard when set
	Forwarder *forwarder.UDPConfig
}

func DefaultConfig() *Config {
	return &Config{
		IP:             DefaultIP,
		Port:           DefaultPort,
		FlashThreshold: DefaultFlashThreshold,
	}
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.IP, strconv.Itoa(c.Port))
}

// LoadConfig reads fileName from the directory of the binary unless it is an
// absolute path. A missing file results in the default configuration.
func LoadConfig(fileName string) (*Config, error) {
	if !filepath.IsAbs(fileName) {
		dir, err := filepath.Abs(filepath.Dir(os.Args[0]))
		if err != nil {
			return nil, errors.Wrapf(err, "unable to determine binary location")
		}
		fileName = filepath.Join(dir, fileName)
	}
	file, err := os.Open(fileName)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open file %s", fileName)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

func LoadConfigFromReader(configReader io.Reader) (*Config, error) {
	configData, err := ioutil.ReadAll(configReader)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config reader")
	}
	config := DefaultConfig()
	if _, err := toml.Decode(string(configData), config); err != nil {
		return nil, errors.Wrap(err, "unable to load configuration")
	}
	return config, config.Validate()
}

// ApplyEnv overrides the configuration from RBRLEDS_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := env("RBRLEDS_IP"); v != "" {
		c.IP = v
	}
	if v := env("RBRLEDS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid RBRLEDS_PORT %q", v)
		}
		c.Port = port
	}
	if v := env("RBRLEDS_INSTALL_PATH"); v != "" {
		c.InstallPath = v
	}
	if v := env("RBRLEDS_IDLE_RPM"); v != "" {
		idle, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return errors.Wrapf(err, "invalid RBRLEDS_IDLE_RPM %q", v)
		}
		c.IdleRPM = float32(idle)
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if net.ParseIP(c.IP) == nil {
		return errors.Errorf("invalid ip address %q", c.IP)
	}
	if c.IdleRPM < 0 {
		return errors.Errorf("invalid idle rpm %v", c.IdleRPM)
	}
	if c.FlashThreshold <= 0 {
		c.FlashThreshold = DefaultFlashThreshold
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
