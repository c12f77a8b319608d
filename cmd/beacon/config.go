package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is cmd/beacon's on-disk configuration, loaded once at startup.
// Everything that can instead be tuned at runtime lives in the
// paramstore-backed parameter table and is reached over the local control
// protocol (PARMW/PARMR) rather than here.
type Config struct {
	DataDir string `yaml:"data_dir"`

	GNSS struct {
		SerialPort string `yaml:"serial_port"`
		BaudRate   int    `yaml:"baud_rate"`
	} `yaml:"gnss"`

	Control struct {
		SerialPort string `yaml:"serial_port"`
		BaudRate   int    `yaml:"baud_rate"`
	} `yaml:"control"`

	Argos struct {
		HexID uint32 `yaml:"hex_id"`
	} `yaml:"argos"`

	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
}

// defaultConfig matches values sane enough to boot on a development machine
// with no config file present: an on-disk data directory under the working
// directory and the metrics listener bound to localhost.
func defaultConfig() Config {
	var cfg Config
	cfg.DataDir = "./beacon-data"
	cfg.GNSS.SerialPort = "/dev/ttyUSB0"
	cfg.GNSS.BaudRate = 9600
	cfg.Control.SerialPort = "/dev/ttyUSB1"
	cfg.Control.BaudRate = 115200
	cfg.Metrics.ListenAddr = "127.0.0.1:9100"
	return cfg
}

// loadConfig reads and merges path onto defaultConfig; a missing file is not
// an error, matching the teacher's own ntrip-server's flag-defaults-first
// posture when no config is given.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
