// Package credential stores API secrets in the system keyring.
package credential

import (
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "briefbot"

// Well-known credential keys. Each can be overridden for one run by the
// environment variable of the same name, uppercased.
const (
	KeyTrackerToken  = "asana_access_token"
	KeySlackBotToken = "slack_bot_token"
	KeyAnthropicKey  = "anthropic_api_key"
	KeyAirtableKey   = "airtable_api_key"
	KeyInboxPassword = "inbox_password"
)

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/briefbot/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("briefbot-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key. The environment variable of
// the same name (uppercased) wins over the keyring, which lets headless
// deployments skip keyring setup entirely.
func Get(key string) (string, error) {
	if v := os.Getenv(strings.ToUpper(key)); v != "" {
		return v, nil
	}

	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
