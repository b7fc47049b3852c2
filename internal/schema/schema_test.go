package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDeclaration_OK(t *testing.T) {
	doc := []byte(`version: 0
sentinels:
  mymaster:
    port: 26379
    protected_mode: "no"
    sentinel_id: 1234567890abcdef1234567890abcdef12345678
    monitors:
      mymaster:
        master_host: 127.0.0.1
        quorum: 2
`)
	assert.NoError(t, ValidateDeclaration(doc))
}

func TestValidateDeclaration_InvalidYAML(t *testing.T) {
	err := ValidateDeclaration([]byte("sentinels: [broken"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML syntax")
}

func TestValidateDeclaration_Violations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing sentinels",
			doc:  "version: 0\n",
		},
		{
			name: "port out of range",
			doc: `version: 0
sentinels:
  x:
    port: 99999
    monitors:
      x:
        master_host: h
`,
		},
		{
			name: "bad protected_mode enum",
			doc: `version: 0
sentinels:
  x:
    protected_mode: maybe
    monitors:
      x:
        master_host: h
`,
		},
		{
			name: "monitor without master_host",
			doc: `version: 0
sentinels:
  x:
    monitors:
      x:
        quorum: 2
`,
		},
		{
			name: "relative log_dir",
			doc: `version: 0
sentinels:
  x:
    log_dir: var/log
    monitors:
      x:
        master_host: h
`,
		},
		{
			name: "unknown top-level key",
			doc: `version: 0
bogus: true
sentinels:
  x:
    monitors:
      x:
        master_host: h
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDeclaration([]byte(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "does not match the expected structure")
		})
	}
}
