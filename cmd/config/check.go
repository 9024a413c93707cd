package configcmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	cfgpkg "github.com/flarebyte/amqkill/internal/config"
	"github.com/flarebyte/amqkill/internal/jolokia"
	"github.com/flarebyte/amqkill/internal/locator"
	vpkg "github.com/flarebyte/amqkill/internal/vault"
	"github.com/spf13/cobra"
)

var flagVerifyPID int

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration and report issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cfgpkg.Load()
		if err != nil {
			return err
		}
		problems := cfg.Problems()

		if cfg.Jolokia.PasswordSecret != "" {
			dao, err := vpkg.NewVaultDAO(cfg.Vault.Backend)
			if err != nil {
				problems = append(problems, err.Error())
			} else {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				md, err := dao.GetSecretMetadata(ctx, cfg.Jolokia.PasswordSecret)
				cancel()
				switch {
				case err != nil:
					problems = append(problems, fmt.Sprintf("vault: %v", err))
				case !md.IsSet:
					problems = append(problems, fmt.Sprintf("vault secret %q is not set", cfg.Jolokia.PasswordSecret))
				}
			}
		}

		if flagVerifyPID > 0 {
			if err := verify(cfg, flagVerifyPID); err != nil {
				problems = append(problems, err.Error())
			}
		}

		if len(problems) > 0 {
			fmt.Fprintln(os.Stderr, "Configuration issues:")
			for _, p := range problems {
				fmt.Fprintf(os.Stderr, "- %s\n", p)
			}
			return errors.New(strings.Join(problems, "; "))
		}
		fmt.Fprintln(os.Stderr, "Configuration looks valid.")
		return nil
	},
}

// verify locates the broker and asks its agent for a version.
func verify(cfg cfgpkg.Config, pid int) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Jolokia.Timeout())
	defer cancel()
	a, err := locator.Locate(ctx, pid)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	defer a.Detach()
	if a.Address() == "" {
		return fmt.Errorf("verify: no Jolokia agent on pid %d", pid)
	}
	var password string
	if cfg.Jolokia.PasswordSecret != "" {
		b, err := vpkg.GetSecret(ctx, cfg.Vault.Backend, cfg.Jolokia.PasswordSecret)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		password = string(b)
	}
	c, err := jolokia.NewClient(a.Address(), cfg.Jolokia, password)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	defer c.Close()
	v, err := c.Version(ctx)
	if err != nil {
		return fmt.Errorf("verify: %s: %w", a.Address(), err)
	}
	fmt.Fprintf(os.Stderr, "verify: pid %d agent %s at %s\n", pid, v, a.Address())
	return nil
}

func init() {
	checkCmd.Flags().IntVar(&flagVerifyPID, "verify-pid", 0, "Also locate the broker with this pid and contact its Jolokia agent")
}
