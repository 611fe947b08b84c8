package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service groups the app's secrets in the OS keychain.
	KeyringService = "vacancyboard"

	sinkTokenAccount = "sink-token"

	envSinkToken = "VACANCYBOARD_SINK_TOKEN"
)

// GetSinkToken resolves the bearer token for the remote sink: keychain
// first, env var as the headless fallback. Empty string with nil error
// never happens.
func GetSinkToken() (string, error) {
	tok, err := keyring.Get(KeyringService, sinkTokenAccount)
	if err == nil && strings.TrimSpace(tok) != "" {
		return tok, nil
	}

	if tok := strings.TrimSpace(os.Getenv(envSinkToken)); tok != "" {
		return tok, nil
	}

	return "", errors.New("sink token not found (set it in keychain or via " + envSinkToken + ")")
}

func SetSinkToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, sinkTokenAccount, token)
}

func DeleteSinkToken() error {
	return keyring.Delete(KeyringService, sinkTokenAccount)
}
