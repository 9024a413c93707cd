package configcmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/flarebyte/amqkill/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	flagOverwrite bool
	flagDryRun    bool
	// Jolokia transport
	flagUsername       string
	flagPasswordSecret string
	flagTimeout        int
	flagInsecure       bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or update the global config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgpkg.Path()
		if !flagOverwrite && !flagDryRun {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists at %s (use --overwrite to replace)", path)
			}
		}

		// Start from existing config (or defaults if missing) to preserve secrets
		cfg, _ := cfgpkg.Load()

		if cmd.Flags().Changed("jolokia-username") {
			cfg.Jolokia.Username = flagUsername
		}
		if cmd.Flags().Changed("jolokia-password-secret") {
			cfg.Jolokia.PasswordSecret = flagPasswordSecret
			cfg.Jolokia.Password = ""
		}
		if cmd.Flags().Changed("jolokia-timeout") {
			cfg.Jolokia.TimeoutSeconds = flagTimeout
		}
		if cmd.Flags().Changed("jolokia-insecure-skip-verify") {
			cfg.Jolokia.InsecureSkipVerify = flagInsecure
		}
		if problems := cfg.Problems(); len(problems) > 0 {
			return fmt.Errorf("invalid configuration: %v", problems)
		}

		if flagDryRun {
			b, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			os.Stdout.Write(b)
			fmt.Fprintf(os.Stderr, "dry-run: not writing %s\n", path)
			return nil
		}
		written, err := cfgpkg.Save(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote config to %s\n", written)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&flagOverwrite, "overwrite", false, "Overwrite existing config.yaml if present")
	initCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print merged config to stdout without writing")

	initCmd.Flags().StringVar(&flagUsername, "jolokia-username", "", "Jolokia agent user")
	initCmd.Flags().StringVar(&flagPasswordSecret, "jolokia-password-secret", "", "Vault secret holding the Jolokia password (see 'amqkill vault set')")
	initCmd.Flags().IntVar(&flagTimeout, "jolokia-timeout", cfgpkg.DefaultTimeoutSeconds, "Jolokia request timeout in seconds")
	initCmd.Flags().BoolVar(&flagInsecure, "jolokia-insecure-skip-verify", false, "Skip TLS verification for https agents")
}
