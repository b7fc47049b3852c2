package sentinel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialSource_Unset(t *testing.T) {
	var s CredentialSource
	assert.False(t, s.IsSet())

	value, err := s.RevealString()
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestCredentialSource_Literal(t *testing.T) {
	s := CredentialSource("plain-secret")
	value, err := s.RevealString()
	require.NoError(t, err)
	assert.Equal(t, "plain-secret", value)
}

func TestCredentialSource_Env(t *testing.T) {
	t.Setenv("SENTINELCTL_CRED_TEST", "env-secret")

	value, err := CredentialSource("env://SENTINELCTL_CRED_TEST").RevealString()
	require.NoError(t, err)
	assert.Equal(t, "env-secret", value)
}

func TestCredentialSource_EnvMissing(t *testing.T) {
	_, err := CredentialSource("env://SENTINELCTL_CRED_TEST_MISSING").RevealString()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment variable is not set")
	assert.Contains(t, err.Error(), "SENTINELCTL_CRED_TEST_MISSING")
}

func TestCredentialSource_EnvEmptyName(t *testing.T) {
	_, err := CredentialSource("env://").RevealString()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing environment variable name")
}

func TestCredentialSource_MalformedKeyring(t *testing.T) {
	for _, source := range []string{"keyring://", "keyring://service", "keyring:///user"} {
		_, err := CredentialSource(source).RevealString()
		require.Error(t, err, "source %q must be rejected", source)
		assert.Contains(t, err.Error(), "malformed keyring reference")
	}
}

func TestCredentialSource_ResolveSealsValue(t *testing.T) {
	buf, err := CredentialSource("sealed-secret").Resolve()
	require.NoError(t, err)
	require.NotNil(t, buf)
	defer buf.Destroy()

	locked, err := buf.Open()
	require.NoError(t, err)
	defer locked.Destroy()

	assert.Equal(t, "sealed-secret", string(locked.Bytes()))
}
