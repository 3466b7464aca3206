// Package secrets resolves credentials from the OS keychain, falling back to
// the environment so headless deployments still work.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const keyringService = "internscout"

// IMAPAccount is the keychain account name for one mailbox.
func IMAPAccount(username, host string) string {
	return fmt.Sprintf("internscout:imap:%s@%s", username, host)
}

// IMAPPassword looks up the mailbox password: keychain first, then the
// INTERNSCOUT_IMAP_PASSWORD environment variable.
func IMAPPassword(account string) (string, error) {
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(keyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if pw := strings.TrimSpace(os.Getenv("INTERNSCOUT_IMAP_PASSWORD")); pw != "" {
		return pw, nil
	}
	return "", errors.New("IMAP password not found (set it in keychain or via INTERNSCOUT_IMAP_PASSWORD)")
}

func SetIMAPPassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(keyringService, account, password)
}

func DeleteIMAPPassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(keyringService, account)
}
