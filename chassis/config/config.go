package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v2"
)

// AppConfig ...
type AppConfig struct {
	Storage struct {
		DSN     string `yaml:"dsn"`
		Retries int    `yaml:"readRetries"`
	}
	Bionet struct {
		Username        string `yaml:"username"`
		EncodedPassword string `yaml:"encodedPassword"`
		MountRoot       string `yaml:"mountRoot"`
		RecoverCommand  string `yaml:"recoverCommand"`
	}
	Trigger struct {
		Directory  string `yaml:"directory"`
		SuccessDir string `yaml:"successDir"`
		FailureDir string `yaml:"failureDir"`
		HoldoffDir string `yaml:"holdoffDir"`
	}
	Validation struct {
		SleepIntervalSec int `yaml:"sleepIntervalSeconds"`
		TimeToleranceMin int `yaml:"timeToleranceMinutes"`
		Parallelism      int `yaml:"parallelism"`
		BatchSize        int `yaml:"batchSize"`
	}
	Commit struct {
		Permits    int `yaml:"permits"`
		TimeoutSec int `yaml:"timeoutSeconds"`
	}
	Mail struct {
		Server     string   `yaml:"server"`
		Port       int      `yaml:"port"`
		From       string   `yaml:"from"`
		Admins     []string `yaml:"admins"`
		Disabled   bool     `yaml:"disabled"`
		LogFileURL string   `yaml:"logFileURL"`
	}
	Manager struct {
		DevHost     string `yaml:"devHost"`
		LogLevel    string `yaml:"loglevel"`
		MetricsAddr string `yaml:"metricsAddr"`
		WorkDir     string `yaml:"workDir"`
	}
}

// Read ...
func Read() (*AppConfig, error) {
	filename := os.Getenv("CFG_PATH")
	cfg := &AppConfig{}
	buff, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(buff, cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if cfg.Storage.DSN == "" {
		return nil, errors.New("storage dsn is required")
	}
	return cfg, nil
}

func (cfg *AppConfig) applyDefaults() {
	if cfg.Storage.Retries == 0 {
		cfg.Storage.Retries = 3
	}
	switch {
	case cfg.Validation.SleepIntervalSec == 0:
		cfg.Validation.SleepIntervalSec = 30
	case cfg.Validation.SleepIntervalSec < 1:
		cfg.Validation.SleepIntervalSec = 1
	case cfg.Validation.SleepIntervalSec > 900:
		cfg.Validation.SleepIntervalSec = 900
	}
	if cfg.Validation.TimeToleranceMin == 0 {
		cfg.Validation.TimeToleranceMin = 800
	}
	if cfg.Validation.Parallelism == 0 {
		cfg.Validation.Parallelism = 4
	}
	if cfg.Validation.BatchSize == 0 {
		cfg.Validation.BatchSize = 50
	}
	if cfg.Commit.Permits == 0 {
		cfg.Commit.Permits = 6
	}
	if cfg.Commit.TimeoutSec == 0 {
		cfg.Commit.TimeoutSec = 90
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 25
	}
	if cfg.Manager.MetricsAddr == "" {
		cfg.Manager.MetricsAddr = ":2112"
	}
	if cfg.Manager.WorkDir == "" {
		cfg.Manager.WorkDir = "."
	}
}
