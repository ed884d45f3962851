package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinsynth/internal/config"
)

func TestLLMConfig_SecondaryConfig_RequiresCredentials(t *testing.T) {
	cfg := config.LLMConfig{
		Secondary: config.ProviderConfig{Provider: "openai"},
	}
	assert.Nil(t, cfg.SecondaryConfig())

	cfg.Secondary.APIKey = "sk-secondary"
	secondary := cfg.SecondaryConfig()
	require.NotNil(t, secondary)
	assert.Equal(t, "openai", secondary.Provider)
	assert.Equal(t, "sk-secondary", secondary.APIKey)
}

func TestLLMConfig_SecondaryConfig_NoProvider(t *testing.T) {
	cfg := config.LLMConfig{
		Secondary: config.ProviderConfig{APIKey: "sk-orphan"},
	}
	assert.Nil(t, cfg.SecondaryConfig())
}

func TestLLMConfig_TertiaryConfig(t *testing.T) {
	cfg := config.LLMConfig{}
	assert.Nil(t, cfg.TertiaryConfig())

	cfg.Tertiary = config.ProviderConfig{Provider: "ollama", BaseURL: "http://localhost:11434"}
	tertiary := cfg.TertiaryConfig()
	require.NotNil(t, tertiary)
	assert.Equal(t, "ollama", tertiary.Provider)
	assert.False(t, tertiary.HasCredentials())
}

func TestProviderConfig_Timeout(t *testing.T) {
	assert.Equal(t, 5*time.Minute, (&config.ProviderConfig{}).Timeout(5*time.Minute))
	assert.Equal(t, 30*time.Second, (&config.ProviderConfig{TimeoutSecs: 30}).Timeout(5*time.Minute))

	var nilCfg *config.ProviderConfig
	assert.Equal(t, time.Second, nilCfg.Timeout(time.Second))
	assert.False(t, nilCfg.Configured())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.LLM.Primary.Provider)
	assert.Equal(t, "openai", cfg.LLM.Secondary.Provider)
	assert.Equal(t, "ollama", cfg.LLM.Tertiary.Provider)
	assert.Equal(t, 600, cfg.LLM.LocalTimeoutSecs)
	assert.Equal(t, 300, cfg.LLM.Primary.TimeoutSecs)
	assert.Equal(t, "A4", cfg.Render.PageSize)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.Server.CORSOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CLINSYNTH_LLM_PRIMARY_API_KEY", "sk-test")
	t.Setenv("CLINSYNTH_LLM_LOCAL_TIMEOUT_SECS", "120")
	t.Setenv("CLINSYNTH_SERVER_CORS_ORIGINS", " https://app.example.com , ,https://admin.example.com")
	t.Setenv("CLINSYNTH_RENDER_PAGE_SIZE", "Letter")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.LLM.Primary.HasCredentials())
	assert.Equal(t, 120, cfg.LLM.LocalTimeoutSecs)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "Letter", cfg.Render.PageSize)
}

func TestLoad_WriteTimeoutCoversChainBudget(t *testing.T) {
	t.Setenv("CLINSYNTH_LLM_SECONDARY_API_KEY", "sk-secondary")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 20*time.Minute, cfg.LLM.ChainBudget())
	assert.Equal(t, 22*time.Minute, cfg.Server.WriteTimeout)
	assert.Greater(t, cfg.Server.WriteTimeout, cfg.LLM.ChainBudget())
}

func TestLoad_WriteTimeoutDefaultWithoutSecondary(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.LLM.ChainBudget())
	assert.Equal(t, 17*time.Minute, cfg.Server.WriteTimeout)
}

func TestLoad_WriteTimeoutExplicit(t *testing.T) {
	t.Setenv("CLINSYNTH_SERVER_WRITE_TIMEOUT", "45m")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, cfg.Server.WriteTimeout)
}

func TestLLMConfig_ChainBudget(t *testing.T) {
	l := config.LLMConfig{
		Primary:          config.ProviderConfig{Provider: "claude", TimeoutSecs: 60},
		Tertiary:         config.ProviderConfig{Provider: "ollama"},
		LocalTimeoutSecs: 0,
	}
	assert.Equal(t, 60*time.Second+5*time.Minute, l.ChainBudget())

	l.LocalTimeoutSecs = 30
	assert.Equal(t, 90*time.Second, l.ChainBudget())
}

func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)
}

func TestLoad_RejectsNonPositivePreviewScale(t *testing.T) {
	t.Setenv("CLINSYNTH_RENDER_PREVIEW_SCALE", "0")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	db := config.DBConfig{User: "u", Password: "p", Host: "h", Port: 5432, Name: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", db.DSN())
}
