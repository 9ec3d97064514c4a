package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	for _, envVar := range RequiredEnvVars {
		t.Setenv(envVar, "test_value")
	}
	t.Setenv("ENV_SCHEMA_VERSION", ExpectedEnvSchemaVersion)
	t.Setenv("ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
}

func TestValidateEnv_MissingVersion(t *testing.T) {
	t.Setenv("ENV_SCHEMA_VERSION", "")
	os.Unsetenv("ENV_SCHEMA_VERSION")

	err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENV_SCHEMA_VERSION is not set")
}

func TestValidateEnv_VersionMismatch(t *testing.T) {
	t.Setenv("ENV_SCHEMA_VERSION", "0.9")

	err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENV_SCHEMA_VERSION mismatch")
	assert.Contains(t, err.Error(), "expected 1.0, got 0.9")
}

func TestValidateEnv_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_HOST", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")

	err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required environment variables")
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_SECRET")
	assert.Contains(t, err.Error(), "DB_HOST")
}

func TestValidateEnvWithWarnings_MissingEncryptionKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENCRYPTION_KEY", "")
	t.Setenv("APP_URL", "https://tasks.example.com")
	t.Setenv("WEBHOOK_SECRET", "s3cret")

	warnings, err := ValidateEnvWithWarnings()
	require.NoError(t, err, "the service starts without a key")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "ENCRYPTION_KEY")
}

func TestValidateEnvWithWarnings_InsecureDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_PASSWORD", "change_this_secure_password")
	t.Setenv("API_KEY", "generate_with_openssl_rand_hex_32")
	t.Setenv("APP_URL", "https://tasks.example.com")
	t.Setenv("WEBHOOK_SECRET", "s3cret")

	warnings, err := ValidateEnvWithWarnings()
	require.NoError(t, err, "Should not error even with warnings")
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "DB_PASSWORD")
	assert.Contains(t, warnings[1], "API_KEY")
}

func TestValidateEnvWithWarnings_Webhooks(t *testing.T) {
	t.Run("warns when APP_URL is missing", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("APP_URL", "")

		warnings, err := ValidateEnvWithWarnings()
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "APP_URL")
	})

	t.Run("warns when WEBHOOK_SECRET is missing", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("APP_URL", "https://tasks.example.com")
		t.Setenv("WEBHOOK_SECRET", "")

		warnings, err := ValidateEnvWithWarnings()
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "WEBHOOK_SECRET")
	})
}
