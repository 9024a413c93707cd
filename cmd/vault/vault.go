package vaultcmd

import (
	"strings"

	cfgpkg "github.com/flarebyte/amqkill/internal/config"
	"github.com/spf13/cobra"
)

// DefaultSecretName is used when neither an argument nor the config names
// the Jolokia password secret.
const DefaultSecretName = "jolokia-password"

// VaultCmd is the root for `amqkill vault` commands.
var VaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage the Jolokia password in the local vault (macOS Keychain)",
}

func secretName(cfg cfgpkg.Config, args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	if cfg.Jolokia.PasswordSecret != "" {
		return cfg.Jolokia.PasswordSecret
	}
	return DefaultSecretName
}
