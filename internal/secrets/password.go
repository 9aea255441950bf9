package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the engine's secrets in the OS keychain.
	KeyringService = "jobfeed"
)

var ErrNotFound = errors.New("redis password not found (set it in keychain or via REDIS_PASSWORD)")

// RedisPassword looks in the keyring first, then in REDIS_PASSWORD.
func RedisPassword(keyringAccount string, getenv func(string) string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if getenv != nil {
		if pw := getenv("REDIS_PASSWORD"); strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	return "", ErrNotFound
}

func SetRedisPassword(keyringAccount string, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func DeleteRedisPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}
