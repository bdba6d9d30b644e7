package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"github.com/derWhity/eventlink/internal/ctxhelper"
	"github.com/derWhity/eventlink/internal/models"
)

const yamlConfig = `
listenAddress: ":8080"
countryCodes: [DE, AT]
storage:
    driver: memory
providers:
    TicketMaster:
        enabled: true
        endpoint: http://localhost:9999/discovery/v2
        apiKey: from-file
        intervalMinutes: 15
        maxPages: 3
`

func testContext() context.Context {
	return ctxhelper.WithLogger(context.Background(), testLogger())
}

func writeFile(t *testing.T, name, content string) string {
	filename := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filename, []byte(content), 0600))
	return filename
}

func TestLoadYAMLConfig(t *testing.T) {
	filename := writeFile(t, "config.yaml", yamlConfig)
	cs := NewConfigService(filename)
	require.NoError(t, cs.Load(testContext()))

	conf := cs.GetConfig(testContext())
	assert.Equal(t, ":8080", conf.ListenAddress)
	assert.Equal(t, []string{"DE", "AT"}, conf.CountryCodes)
	assert.Equal(t, models.StorageMemory, conf.Storage.Driver)
	tm := conf.Providers["TicketMaster"]
	assert.True(t, tm.Enabled)
	assert.Equal(t, "from-file", tm.APIKey)
	assert.Equal(t, uint(3), tm.MaxPages)
	assert.Equal(t, "15m0s", tm.Interval().String())
	// Defaults not touched by the file stay in place
	assert.Equal(t, "info", conf.LogLevel)
	assert.False(t, conf.Providers["Eventful"].Enabled)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv(APIKeyVariable("TicketMaster"), "from-env")
	t.Setenv(EnvCountryCodes, "fr, be")
	filename := writeFile(t, "config.yml", yamlConfig)
	cs := NewConfigService(filename)
	require.NoError(t, cs.Load(testContext()))

	conf := cs.GetConfig(testContext())
	assert.Equal(t, "from-env", conf.Providers["TicketMaster"].APIKey)
	assert.Equal(t, []string{"FR", "BE"}, conf.CountryCodes)
}

func TestLoadDotEnvBesideConfig(t *testing.T) {
	variable := APIKeyVariable("Eventful")
	t.Cleanup(func() { os.Unsetenv(variable) })
	filename := writeFile(t, "config.json", `{"providers": {"Eventful": {"endpoint": "http://localhost/json/events"}}}`)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(filename), ".env"), []byte(variable+"=dotenv-key\n"), 0600))

	cs := NewConfigService(filename)
	require.NoError(t, cs.Load(testContext()))
	assert.Equal(t, "dotenv-key", cs.GetConfig(testContext()).Providers["Eventful"].APIKey)
}

func TestLoadInvalidConfig(t *testing.T) {
	for name, content := range map[string]string{
		"country code":   `{"countryCodes": ["XX1"]}`,
		"storage driver": `{"storage": {"driver": "postgres"}}`,
		"mongo uri":      `{"storage": {"driver": "mongo"}}`,
		"endpoint":       `{"providers": {"TicketMaster": {"enabled": true}}}`,
		"syntax":         `{"countryCodes": `,
	} {
		t.Run(name, func(t *testing.T) {
			cs := NewConfigService(writeFile(t, "config.json", content))
			assert.Error(t, cs.Load(testContext()))
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cs := NewConfigService(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, cs.Load(testContext()))
	conf := cs.GetConfig(testContext())
	assert.Equal(t, models.StorageSQLite, conf.Storage.Driver)
	assert.Equal(t, ":3000", conf.ListenAddress)
}

func TestWriteAndReloadConfig(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			src := NewConfigService(writeFile(t, "config.yaml", yamlConfig))
			require.NoError(t, src.Load(testContext()))
			target := filepath.Join(t.TempDir(), name)
			require.NoError(t, src.WriteToFile(testContext(), target))

			reloaded := NewConfigService(target)
			require.NoError(t, reloaded.Load(testContext()))
			assert.Equal(t, src.GetConfig(testContext()), reloaded.GetConfig(testContext()))
		})
	}
}
