package internal

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"golang.org/x/net/context"
	"gopkg.in/yaml.v3"

	"github.com/derWhity/eventlink/internal/ctxhelper"
	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/models"
)

const (
	// EnvPrefix is the prefix of all environment variables EventLink reads its configuration from
	EnvPrefix = "EVENTLINK_"
	// EnvCountryCodes overrides the configured country codes with a comma separated list
	EnvCountryCodes = EnvPrefix + "COUNTRY_CODES"
	envAPIKeySuffix = "_APIKEY"
)

// ConfigService gives access to the application's configuration
type ConfigService interface {
	// Load loads the application config from its default file location
	Load(ctx context.Context) error
	// LoadFromFile loads the configuration from the given JSON or YAML file
	LoadFromFile(ctx context.Context, filename string) error
	// Write writes the current application configuration to the default file name
	Write(ctx context.Context) error
	// WriteToFile writes the current application configuration to a JSON or YAML file
	WriteToFile(ctx context.Context, filename string) error
	// GetConfig retuns the current application configuration
	GetConfig(ctx context.Context) models.AppConfig
}

// APIKeyVariable returns the name of the environment variable overriding the API key of the given provider
func APIKeyVariable(providerName string) string {
	return EnvPrefix + strings.ToUpper(providerName) + envAPIKeySuffix
}

// isYAML reports whether the file should be read and written as YAML instead of JSON
func isYAML(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}

// -- ConfigService implementation -------------------------------------------------------------------------------------

type configService struct {
	configFilename string
	mtx            sync.RWMutex
	config         *models.AppConfig
}

// NewConfigService creates a new configuration service instance with the given default file name
func NewConfigService(configFilename string) ConfigService {
	return &configService{
		configFilename: configFilename,
	}
}

// Load loads the application config from its default file location
func (s *configService) Load(ctx context.Context) error {
	return s.LoadFromFile(ctx, s.configFilename)
}

// LoadFromFile loads the configuration from the given file. A missing file leaves the defaults in place. Afterwards,
// the .env files beside the configuration file and in the working directory are read and the environment overrides
// are applied
func (s *configService) LoadFromFile(ctx context.Context, filename string) error {
	logger := ctxhelper.Logger(ctx).WithField(log.FldFile, filename)
	logger.Info("Loading configuration file")
	conf, err := models.GetDefaultConfig()
	if err != nil {
		return errors.Wrap(err, "LoadFromFile: Failed to create default config")
	}
	f, err := os.Open(filename)
	switch {
	case os.IsNotExist(err):
		logger.Warn("Configuration file does not exist. Using defaults")
	case err != nil:
		return errors.Wrap(err, "LoadFromFile: cannot load configuration file")
	default:
		defer f.Close()
		if err := decodeConfig(f, isYAML(filename), conf); err != nil {
			return errors.Wrap(err, "LoadFromFile: Failed to decode configuration file")
		}
	}

	for _, envFile := range []string{filepath.Join(filepath.Dir(filename), ".env"), ".env"} {
		if err := godotenv.Load(envFile); err == nil {
			logger.WithField(log.FldPath, envFile).Info("Loaded environment file")
		}
	}
	applyEnvironment(conf)

	if err := conf.Validate(); err != nil {
		return errors.Wrap(err, "LoadFromFile: Invalid configuration")
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.config = conf
	return nil
}

func decodeConfig(r io.Reader, yml bool, conf *models.AppConfig) error {
	if yml {
		err := yaml.NewDecoder(r).Decode(conf)
		if err == io.EOF {
			// Empty file
			return nil
		}
		return err
	}
	return json.NewDecoder(r).Decode(conf)
}

// applyEnvironment overrides the API keys and the country codes with the values of the environment variables
func applyEnvironment(conf *models.AppConfig) {
	for name, p := range conf.Providers {
		if key, ok := os.LookupEnv(APIKeyVariable(name)); ok {
			p.APIKey = key
			conf.Providers[name] = p
		}
	}
	if codes, ok := os.LookupEnv(EnvCountryCodes); ok {
		conf.CountryCodes = []string{}
		for _, code := range strings.Split(codes, ",") {
			if code = strings.TrimSpace(code); code != "" {
				conf.CountryCodes = append(conf.CountryCodes, strings.ToUpper(code))
			}
		}
	}
}

// Write writes the current application configuration to the default file name
func (s *configService) Write(ctx context.Context) error {
	return s.WriteToFile(ctx, s.configFilename)
}

// WriteToFile writes the current application configuration to a JSON or YAML file
func (s *configService) WriteToFile(ctx context.Context, filename string) error {
	logger := ctxhelper.Logger(ctx)
	logger.WithField(log.FldFile, filename).Info("Writing configuration file")
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "WriteToFile: Cannot open configuration file '%s' to write to", filename)
	}
	defer f.Close()
	conf := s.GetConfig(ctx)
	if isYAML(filename) {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(4)
		if err := enc.Encode(&conf); err != nil {
			return errors.Wrap(err, "WriteToFile: Failed to serialize configuration data")
		}
		return errors.Wrap(enc.Close(), "WriteToFile: Failed to serialize configuration data")
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	if err := enc.Encode(&conf); err != nil {
		return errors.Wrap(err, "WriteToFile: Failed to serialize configuration data")
	}
	return nil
}

// GetConfig retuns the current application configuration
func (s *configService) GetConfig(ctx context.Context) models.AppConfig {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	var ret models.AppConfig
	if s.config != nil {
		ret = *s.config
	} else {
		if tmp, err := models.GetDefaultConfig(); err == nil {
			ret = *tmp
		}
	}
	return ret
}
