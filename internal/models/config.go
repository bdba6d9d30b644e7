package models

import (
	"path"
	"time"

	"github.com/kardianos/osext"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

// Storage drivers supported by EventLink
const (
	StorageSQLite = "sqlite"
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

// AppConfig is the application's main configuration structure
type AppConfig struct {
	// The directory where EventLink stores all of its data - defaults to the /data subdirectory of the folder, the
	// EventLink executable resides in
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// The IP address to listen at - including the port number
	ListenAddress string `json:"listenAddress" yaml:"listenAddress"`
	// Minimum level of log lines written to the console
	LogLevel string `json:"logLevel" yaml:"logLevel"`
	// Minimum level of log lines persisted into the log storage
	PersistLogLevel string `json:"persistLogLevel" yaml:"persistLogLevel"`
	// ISO 3166 country codes to crawl events for. An empty list crawls all countries
	CountryCodes []string `json:"countryCodes" yaml:"countryCodes"`
	// Where events and log entries are stored
	Storage StorageConfig `json:"storage" yaml:"storage"`
	// Provider configuration by provider name
	Providers map[string]ProviderConfig `json:"providers" yaml:"providers"`
}

// StorageConfig selects and configures the event storage
type StorageConfig struct {
	// One of sqlite, mongo or memory
	Driver string `json:"driver" yaml:"driver"`
	// Connection URI when using the mongo driver
	MongoURI string `json:"mongoUri" yaml:"mongoUri"`
	// Database name when using the mongo driver
	MongoDatabase string `json:"mongoDatabase" yaml:"mongoDatabase"`
	// Timeout for a single storage operation
	TimeoutSeconds uint `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// ProviderConfig configures one event provider
type ProviderConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Base URL of the provider's API
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// API key sent with every request
	APIKey string `json:"apiKey" yaml:"apiKey"`
	// Minutes between two crawl passes
	IntervalMinutes uint `json:"intervalMinutes" yaml:"intervalMinutes"`
	// Maximum number of pages fetched in one pass - 0 means unbounded
	MaxPages uint `json:"maxPages" yaml:"maxPages"`
	// Timeout for a single HTTP request
	TimeoutSeconds uint `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// Interval returns the crawl interval of the provider
func (c ProviderConfig) Interval() time.Duration {
	if c.IntervalMinutes == 0 {
		return time.Hour
	}
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Timeout returns the request timeout of the provider
func (c ProviderConfig) Timeout() time.Duration {
	if c.TimeoutSeconds == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the timeout for a single storage operation
func (c StorageConfig) Timeout() time.Duration {
	if c.TimeoutSeconds == 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks the configuration for values EventLink cannot work with
func (c *AppConfig) Validate() error {
	for _, code := range c.CountryCodes {
		region, err := language.ParseRegion(code)
		if err != nil || !region.IsCountry() {
			return errors.Errorf("invalid country code '%s'", code)
		}
	}
	switch c.Storage.Driver {
	case StorageSQLite, StorageMemory:
	case StorageMongo:
		if c.Storage.MongoURI == "" {
			return errors.New("the mongo storage driver needs a mongoUri")
		}
	default:
		return errors.Errorf("unknown storage driver '%s'", c.Storage.Driver)
	}
	for name, p := range c.Providers {
		if p.Enabled && p.Endpoint == "" {
			return errors.Errorf("provider '%s' is enabled but has no endpoint", name)
		}
	}
	return nil
}

// GetDefaultConfig returns the default configuration values for the application
func GetDefaultConfig() (*AppConfig, error) {
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		return nil, err
	}
	return &AppConfig{
		DataDir:         path.Join(execDir, "data"),
		ListenAddress:   ":3000",
		LogLevel:        "info",
		PersistLogLevel: "info",
		CountryCodes:    []string{},
		Storage: StorageConfig{
			Driver:         StorageSQLite,
			MongoDatabase:  "eventlink",
			TimeoutSeconds: 10,
		},
		Providers: map[string]ProviderConfig{
			"TicketMaster": {
				Endpoint:        "https://app.ticketmaster.com/discovery/v2",
				IntervalMinutes: 60,
				TimeoutSeconds:  30,
			},
			"Eventful": {
				Endpoint:        "http://api.eventful.com/json/events",
				IntervalMinutes: 60,
				TimeoutSeconds:  60,
			},
		},
	}, nil
}
