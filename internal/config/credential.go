package config

import (
	"errors"
	"fmt"
	"os"
)

// CredentialError reports a missing oracle credential. It is raised before
// any dataset I/O, so a misconfigured run touches nothing.
type CredentialError struct {
	Var string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("environment variable %s is not set", e.Var)
}

// IsCredentialError reports whether err is a missing-credential failure.
func IsCredentialError(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}

// Credential resolves the oracle API key from the environment. The offline
// mock backend needs none and resolves to the empty string.
func (c OracleConfig) Credential() (string, error) {
	if c.Backend == BackendMock {
		return "", nil
	}
	key := os.Getenv(c.APIKeyEnv)
	if key == "" {
		return "", &CredentialError{Var: c.APIKeyEnv}
	}
	return key, nil
}
