package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("APP_ADDR", "")
	t.Setenv("SEAT_LOCK_TTL", "")
	t.Setenv("WHATSAPP_USE_MOCK", "")

	env := LoadEnv()
	assert.Equal(t, ":8080", env.AppAddr)
	assert.Equal(t, 5*time.Minute, env.SeatLockTTL)
	assert.True(t, env.WhatsAppUseMock)
	assert.Equal(t, 3, env.WhatsAppRetryCount)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("SEAT_LOCK_TTL", "90s")
	t.Setenv("WHATSAPP_RETRY_COUNT", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	env := LoadEnv()
	assert.Equal(t, ":9090", env.AppAddr)
	assert.Equal(t, 90*time.Second, env.SeatLockTTL)
	assert.Equal(t, 3, env.WhatsAppRetryCount)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, env.CORSAllowedOrigins)
}

func TestDSN(t *testing.T) {
	env := Env{DBUser: "app", DBPassword: "pw", DBHost: "db:3306", DBName: "ab"}
	assert.Contains(t, env.DSN(), "app:pw@tcp(db:3306)/ab?parseTime=true")
}

func TestLoadAgentProfilesDefaults(t *testing.T) {
	profiles, err := LoadAgentProfiles("")
	require.NoError(t, err)
	require.Len(t, profiles, 7)

	keys := map[string]bool{}
	for _, p := range profiles {
		keys[p.Key] = true
	}
	assert.True(t, keys[FallbackAgent])
}

func TestLoadAgentProfilesOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.yaml")
	content := `agents:
  - key: FAQ
    system_prompt: "Short answers only."
    top_k: 4
  - key: visa_help
    description: "Visa questions"
    system_prompt: "You explain visa requirements."
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	profiles, err := LoadAgentProfiles(path)
	require.NoError(t, err)
	require.Len(t, profiles, 8)

	var faq, visa AgentProfile
	for _, p := range profiles {
		switch p.Key {
		case "faq":
			faq = p
		case "visa_help":
			visa = p
		}
	}
	assert.Equal(t, "Short answers only.", faq.SystemPrompt)
	assert.Equal(t, 4, faq.TopK)
	assert.Equal(t, "faq", faq.Knowledge)
	assert.Equal(t, "Visa questions", visa.Description)
}
