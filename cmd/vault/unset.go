package vaultcmd

import (
	"context"
	"fmt"
	"os"
	"time"

	cfgpkg "github.com/flarebyte/amqkill/internal/config"
	vpkg "github.com/flarebyte/amqkill/internal/vault"
	"github.com/spf13/cobra"
)

var unsetCmd = &cobra.Command{
	Use:   "unset [name]",
	Short: "Delete the Jolokia password secret and detach it from config.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cfgpkg.Load()
		if err != nil {
			return err
		}
		name := secretName(cfg, args)
		dao, err := vpkg.NewVaultDAO(cfg.Vault.Backend)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := dao.UnsetSecret(ctx, name); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "secret %q deleted from backend %q\n", name, cfg.Vault.Backend)
		if cfg.Jolokia.PasswordSecret != name {
			return nil
		}
		cfg.Jolokia.PasswordSecret = ""
		path, err := cfgpkg.Save(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "jolokia.password_secret cleared in %s\n", path)
		return nil
	},
}

func init() {
	VaultCmd.AddCommand(unsetCmd)
}
