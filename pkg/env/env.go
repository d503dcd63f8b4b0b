// Package env sets up the main controller side of a bridge from flags and
// environment variables.
package env

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/swbridge.go/pkg/automation"
	"github.com/robotalks/swbridge.go/pkg/framework"
	"github.com/robotalks/swbridge.go/pkg/link"
	"github.com/robotalks/swbridge.go/pkg/link/serialport"
	"github.com/robotalks/swbridge.go/pkg/link/stream"
	"github.com/robotalks/swbridge.go/pkg/link/wsport"
	"github.com/robotalks/swbridge.go/pkg/persist"
	"github.com/robotalks/swbridge.go/pkg/remote/mqtt"
)

// Config provides common options to setup a bridge.
type Config struct {
	// ID identifies the bridge on MQTT.
	ID string
	// Port is a serial device, or a ws:// URL of a simulated USB interface.
	Port string
	// MQTTBrokerURL specifies the MQTT broker to use, empty disables MQTT.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// EEPROM is the file holding the persistent counter, empty disables it.
	EEPROM string
}

var defaultConfig = Config{
	Port:   "/dev/ttyUSB0",
	EEPROM: "swbridge.eeprom",
}

func init() {
	if val := os.Getenv("SWB_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("SWB_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("SWB_EEPROM"); val != "" {
		defaultConfig.EEPROM = val
	}
	if val := os.Getenv("SWB_ID"); val != "" {
		defaultConfig.ID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Bridge ID, defaults to machine ID")
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial device or ws:// URL of USB interface")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.EEPROM, "eeprom", defaultConfig.EEPROM, "Persistent counter image file")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// BridgeID returns the configured ID or the machine ID.
func (c *Config) BridgeID() string {
	if c.ID != "" {
		return c.ID
	}
	return MachineID()
}

// IsWebsocket indicates the address is a websocket URL.
func IsWebsocket(address string) bool {
	return strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://")
}

// OpenPort opens the link on a serial device or websocket URL.
func OpenPort(ctx context.Context, address string) (*stream.Port, error) {
	var rw io.ReadWriteCloser
	var err error
	if IsWebsocket(address) {
		rw, err = wsport.Dial(address)
	} else {
		rw, err = serialport.Open(address)
	}
	if err != nil {
		return nil, err
	}
	return stream.New(ctx, rw), nil
}

// Env is the running environment of a bridge.
type Env struct {
	Config     *Config
	Port       *stream.Port
	Framer     *link.Framer
	Counter    *persist.ResetCounter
	Controller *automation.Controller
	// Bridge is nil when MQTT is disabled.
	Bridge *mqtt.Bridge

	image *persist.ImageFile
}

// NewEnv creates Env from config.
func (c *Config) NewEnv(ctx context.Context) (*Env, error) {
	if c.Port == "" {
		return nil, fmt.Errorf("port must be specified")
	}
	env := &Env{Config: c}
	if c.EEPROM != "" {
		img, err := persist.OpenImageFile(c.EEPROM)
		if err != nil {
			return nil, err
		}
		env.image = img
		if env.Counter, err = persist.NewResetCounter(img); err != nil {
			env.Close()
			return nil, fmt.Errorf("init counter %s: %w", c.EEPROM, err)
		}
	}
	if c.MQTTBrokerURL != "" {
		bridge, err := mqtt.NewBridge(c.MQTTBrokerURL, c.BridgeID(), nil)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("create MQTT bridge error: %w", err)
		}
		env.Bridge = bridge
	}
	port, err := OpenPort(ctx, c.Port)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Port = port
	env.Framer = link.NewFramer(port)
	env.Controller = automation.NewController(env.Framer, env.Counter)
	glog.Infof("bridge %s on %s", c.BridgeID(), c.Port)
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv(ctx context.Context) *Env {
	env, err := c.NewEnv(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// AddToLoop adds the MQTT bridge to the loop.
func (e *Env) AddToLoop(loop *framework.Loop) {
	if e.Bridge != nil {
		loop.AddRunnable(e.Bridge)
	}
}

// Close releases the port and the counter image.
func (e *Env) Close() error {
	var errs framework.AggregatedError
	if e.Port != nil {
		errs.Add(e.Port.Close())
	}
	if e.image != nil {
		errs.Add(e.image.Close())
	}
	return errs.Aggregate()
}
