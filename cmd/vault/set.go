package vaultcmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	cfgpkg "github.com/flarebyte/amqkill/internal/config"
	vpkg "github.com/flarebyte/amqkill/internal/vault"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var flagKeepConfig bool

var setCmd = &cobra.Command{
	Use:   "set [name]",
	Short: "Store the Jolokia password and point config.yaml at it",
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
		secret, err := promptSecret(fmt.Sprintf("Jolokia password for %q: ", name))
		if err != nil {
			return err
		}
		if len(secret) == 0 {
			return errors.New("empty password")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := dao.SetSecret(ctx, name, secret); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "secret %q stored in backend %q\n", name, cfg.Vault.Backend)

		if flagKeepConfig || cfg.Jolokia.PasswordSecret == name {
			return nil
		}
		cfg.Jolokia.PasswordSecret = name
		cfg.Jolokia.Password = ""
		path, err := cfgpkg.Save(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "jolokia.password_secret set to %q in %s\n", name, path)
		if cfg.Jolokia.Username == "" {
			fmt.Fprintln(os.Stderr, "warning: jolokia.username is empty; run 'amqkill config init --jolokia-username <user> --overwrite'")
		}
		return nil
	},
}

func init() {
	setCmd.Flags().BoolVar(&flagKeepConfig, "keep-config", false, "Do not point jolokia.password_secret at this secret")
	VaultCmd.AddCommand(setCmd)
}

// promptSecret reads without echo from a terminal, else one line of stdin.
func promptSecret(prompt string) ([]byte, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, err
		}
		return []byte(strings.TrimRight(string(b), "\r\n")), nil
	}
	fmt.Fprintln(os.Stderr, "warning: reading secret from stdin; input will not be masked")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}
