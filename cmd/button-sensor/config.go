package main

import (
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/sweeney/button-sensor/internal/gpio"
	"github.com/sweeney/button-sensor/internal/logic"
)

type buttonConfig struct {
	Name            string        `long:"name" description:"Button name used in MQTT topics and the status page"`
	Pin             int           `long:"pin" description:"BCM pin number"`
	ActiveLevel     string        `long:"active-level" choice:"low" choice:"high" description:"Raw level read while the button is pressed"`
	Pull            string        `long:"pull" choice:"up" choice:"down" choice:"none" description:"Line bias"`
	Debounce        time.Duration `long:"debounce" description:"Debounce duration"`
	LongPress       time.Duration `long:"long-press" description:"Hold time before a press becomes a long press"`
	DuringLongPress time.Duration `long:"during-long-press" description:"Repeat interval while a long press is held (0 to disable)"`
	MultiClick      time.Duration `long:"multi-click" description:"Window in which further presses join the same click burst"`
	MaxClicks       int           `long:"max-clicks" description:"Click count at which a burst is reported immediately"`
}

type config struct {
	ConfigFile  string        `long:"config" description:"Path to an INI configuration file"`
	Debug       bool          `long:"debug" description:"Enable debug logging"`
	Poll        time.Duration `long:"poll" description:"GPIO polling interval"`
	Heartbeat   time.Duration `long:"heartbeat" description:"Heartbeat interval (0 to disable)"`
	Broker      string        `long:"broker" description:"MQTT broker address"`
	SendTimeout time.Duration `long:"send-timeout" description:"How long to wait for the broker to acknowledge a message before buffering it"`
	HTTP        string        `long:"http" description:"HTTP status address (empty to disable)"`
	Driver      string        `long:"driver" choice:"gpiocdev" choice:"periph" choice:"rpio" description:"GPIO backend"`
	PrintState  bool          `long:"print-state" description:"Print the current button level and exit"`

	Button buttonConfig `group:"Button" namespace:"button"`
}

func defaultConfig() config {
	timing := logic.DefaultConfig()
	return config{
		Poll:        10 * time.Millisecond,
		Heartbeat:   15 * time.Minute,
		Broker:      "tcp://192.168.1.200:1883",
		SendTimeout: 5 * time.Second,
		HTTP:        ":80",
		Driver:      gpio.DriverGPIOCDev,
		Button: buttonConfig{
			Name:            "button",
			Pin:             gpio.DefaultPin,
			ActiveLevel:     "low",
			Pull:            string(gpio.PullUp),
			Debounce:        timing.Debounce,
			LongPress:       timing.LongPress,
			DuringLongPress: timing.DuringLongPressInterval,
			MultiClick:      timing.MultiClickWindow,
			MaxClicks:       timing.MaxClickCount,
		},
	}
}

// loadConfig layers the configuration: built-in defaults, then the INI file
// named by --config, then the command line.
func loadConfig(args []string) (*config, error) {
	cfg := defaultConfig()

	preCfg := cfg
	if _, err := flags.NewParser(&preCfg, flags.Default).ParseArgs(args); err != nil {
		return nil, err
	}

	if preCfg.ConfigFile != "" {
		parser := flags.NewParser(&cfg, flags.Default)
		if err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile); err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", preCfg.ConfigFile)
		}
	}

	if _, err := flags.NewParser(&cfg, flags.Default).ParseArgs(args); err != nil {
		return nil, err
	}

	if cfg.Poll <= 0 {
		return nil, errors.Errorf("poll interval must be positive, got %v", cfg.Poll)
	}
	if cfg.SendTimeout <= 0 {
		return nil, errors.Errorf("send timeout must be positive, got %v", cfg.SendTimeout)
	}
	if cfg.Button.Name == "" {
		return nil, errors.New("button name must not be empty")
	}

	return &cfg, nil
}

// timing returns the state machine configuration.
func (c *config) timing() logic.Config {
	return logic.Config{
		Debounce:                c.Button.Debounce,
		LongPress:               c.Button.LongPress,
		DuringLongPressInterval: c.Button.DuringLongPress,
		MultiClickWindow:        c.Button.MultiClick,
		MaxClickCount:           c.Button.MaxClicks,
	}
}

func (c *config) activeLevel() logic.Level {
	return logic.Level(c.Button.ActiveLevel == "high")
}
