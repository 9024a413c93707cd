package vaultcmd

import (
	"context"
	"fmt"
	"time"

	cfgpkg "github.com/flarebyte/amqkill/internal/config"
	vpkg "github.com/flarebyte/amqkill/internal/vault"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show whether the Jolokia password secret is set (never prints the value)",
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
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		md, err := dao.GetSecretMetadata(ctx, name)
		if err != nil {
			return err
		}
		status := "unset"
		if md.IsSet {
			status = "set"
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Name: %s\n", md.Name)
		fmt.Fprintf(out, "Status: %s\n", status)
		fmt.Fprintf(out, "Backend: %s\n", md.Backend)
		fmt.Fprintf(out, "Used for Jolokia: %v\n", cfg.Jolokia.PasswordSecret == name)
		if md.UpdatedAt != nil {
			fmt.Fprintf(out, "Last Updated: %s\n", md.UpdatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	VaultCmd.AddCommand(showCmd)
}
