package sentinel

import (
	"os"
	"strings"

	ctlerrors "github.com/systmms/sentinelctl/internal/errors"
	"github.com/systmms/sentinelctl/internal/secure"
	"github.com/zalando/go-keyring"
)

// CredentialSource is a YAML scalar naming where a secret comes from:
//
//	env://VAR_NAME           read from the environment at render time
//	keyring://service/user   read from the OS keyring
//	anything else            taken as the literal secret value
//
// Literal values are supported for parity with the upstream parameter
// surface but env:// and keyring:// keep secrets out of the declaration.
type CredentialSource string

const (
	envScheme     = "env://"
	keyringScheme = "keyring://"
)

// IsSet reports whether a source was declared at all
func (s CredentialSource) IsSet() bool {
	return s != ""
}

// Resolve fetches the secret and seals it in a protected buffer. The
// declaration must fail here, before any artifact is rendered, when a
// source cannot be resolved.
func (s CredentialSource) Resolve() (*secure.Buffer, error) {
	switch {
	case !s.IsSet():
		return nil, nil

	case strings.HasPrefix(string(s), envScheme):
		name := strings.TrimPrefix(string(s), envScheme)
		if name == "" {
			return nil, ctlerrors.CredentialError{
				Source:     string(s),
				Message:    "missing environment variable name",
				Suggestion: "Use the form env://VARIABLE_NAME",
			}
		}
		value, ok := os.LookupEnv(name)
		if !ok {
			return nil, ctlerrors.CredentialError{
				Source:     string(s),
				Message:    "environment variable is not set",
				Suggestion: "Export " + name + " before running, or switch to a keyring:// source",
			}
		}
		return secure.NewBuffer([]byte(value)), nil

	case strings.HasPrefix(string(s), keyringScheme):
		rest := strings.TrimPrefix(string(s), keyringScheme)
		service, user, ok := strings.Cut(rest, "/")
		if !ok || service == "" || user == "" {
			return nil, ctlerrors.CredentialError{
				Source:     string(s),
				Message:    "malformed keyring reference",
				Suggestion: "Use the form keyring://service/user",
			}
		}
		value, err := keyring.Get(service, user)
		if err != nil {
			return nil, ctlerrors.CredentialError{
				Source:     string(s),
				Message:    "keyring lookup failed",
				Suggestion: "Store the secret first, e.g. with 'secret-tool' or your platform keychain",
				Err:        err,
			}
		}
		return secure.NewBuffer([]byte(value)), nil

	default:
		return secure.NewBuffer([]byte(s)), nil
	}
}

// RevealString resolves the source and returns the plaintext. Callers
// should hand the value straight to the renderer and not hold onto it.
func (s CredentialSource) RevealString() (string, error) {
	buf, err := s.Resolve()
	if err != nil {
		return "", err
	}
	if buf == nil {
		return "", nil
	}
	defer buf.Destroy()

	locked, err := buf.Open()
	if err != nil {
		return "", ctlerrors.CredentialError{
			Source:  string(s),
			Message: "failed to open protected buffer",
			Err:     err,
		}
	}
	defer locked.Destroy()

	// string([]byte) copies, so the value survives the buffer teardown
	return string(locked.Bytes()), nil
}
