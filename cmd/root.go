package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	configcmd "github.com/flarebyte/amqkill/cmd/config"
	vaultcmd "github.com/flarebyte/amqkill/cmd/vault"
	cfgpkg "github.com/flarebyte/amqkill/internal/config"
	"github.com/flarebyte/amqkill/internal/jolokia"
	"github.com/flarebyte/amqkill/internal/killer"
	"github.com/flarebyte/amqkill/internal/locator"
	"github.com/flarebyte/amqkill/internal/logging"
	vpkg "github.com/flarebyte/amqkill/internal/vault"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagClientIP        string
	flagDestinationName string
	flagPID             int
	flagMaxConnections  int
	flagVerbose         bool
	flagDryRun          bool
	flagEndpoint        string
	flagOutput          string
)

var rootCmd = &cobra.Command{
	Use:   "amqkill",
	Short: "Stop ActiveMQ client connections by client IP or destination",
	Long: `amqkill stops connections for specific ActiveMQ clients, selected by client IP
or by the queue/topic they consume from. Clients that reconnect through a
fail-over URL land on another broker, which rebalances a cluster that has no
dynamic load balancing.

The broker is found by process id; its Jolokia agent address is read from the
process command line unless --endpoint is given.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runKill,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flagClientIP, "ip-address", "a", "", "IP address for client to kill")
	f.StringVarP(&flagDestinationName, "destination-name", "d", "", "Queue or topic name to kill clients for (takes precedence over --ip-address)")
	f.IntVarP(&flagPID, "pid", "p", 0, "ActiveMQ process id")
	f.IntVarP(&flagMaxConnections, "max-connections-to-stop", "c", 0, "Maximum number of client connections to stop (default unbounded)")
	f.BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose logging")
	f.BoolVar(&flagDryRun, "dry-run", false, "Select connections but do not stop them")
	f.StringVar(&flagEndpoint, "endpoint", "", "Jolokia URL to use instead of the one discovered from the process")
	f.StringVar(&flagOutput, "output", "text", "Output format: text, table or json")
	_ = rootCmd.MarkFlagRequired("pid")

	rootCmd.AddCommand(configcmd.ConfigCmd)
	rootCmd.AddCommand(vaultcmd.VaultCmd)
}

func runKill(cmd *cobra.Command, args []string) error {
	format, err := parseOutput(flagOutput)
	if err != nil {
		return err
	}
	kcfg := killer.Config{
		ClientIP:        flagClientIP,
		DestinationName: flagDestinationName,
		PID:             flagPID,
		MaxConnections:  killer.Unbounded,
		Verbose:         flagVerbose,
		DryRun:          flagDryRun,
		Endpoint:        flagEndpoint,
	}
	if cmd.Flags().Changed("max-connections-to-stop") {
		kcfg.MaxConnections = flagMaxConnections
	}
	if _, err := kcfg.Validate(); err != nil {
		if errors.Is(err, killer.ErrNoCriterion) {
			fmt.Fprintln(cmd.ErrOrStderr(), "The supported options are:")
			fmt.Fprint(cmd.ErrOrStderr(), cmd.Flags().FlagUsages())
		}
		return err
	}
	cfg, err := cfgpkg.Load()
	if err != nil {
		return err
	}

	log := logging.New(flagVerbose)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := killer.Run(ctx, kcfg, killer.Deps{
		Locate: func(ctx context.Context, pid int) (killer.Endpoint, error) {
			a, err := locator.Locate(ctx, pid)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
		Dial: func(ctx context.Context, address string) (killer.Session, error) {
			c, err := dial(ctx, cfg, address, log)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		Logger: log,
	})
	switch {
	case errors.Is(err, killer.ErrEndpointNotFound):
		fmt.Fprintf(cmd.ErrOrStderr(), "Could not find local management endpoint for pid %d (is the Jolokia agent loaded?)\n", kcfg.PID)
		return nil
	case errors.Is(err, locator.ErrProcessNotFound):
		return err
	case err != nil:
		log.Error("Failed to stop client connections", zap.Error(err))
		return err
	}
	return render(cmd.OutOrStdout(), format, res)
}

// dial opens the Jolokia client, resolving the password from the vault
// when the config names a secret.
func dial(ctx context.Context, cfg cfgpkg.Config, address string, log *zap.Logger) (*jolokia.Client, error) {
	var password string
	if cfg.Jolokia.PasswordSecret != "" {
		b, err := vpkg.GetSecret(ctx, cfg.Vault.Backend, cfg.Jolokia.PasswordSecret)
		if err != nil {
			return nil, fmt.Errorf("resolve jolokia password: %w", err)
		}
		password = string(b)
	}
	c, err := jolokia.NewClient(address, cfg.Jolokia, password)
	if err != nil {
		return nil, err
	}
	if ce := log.Check(zap.DebugLevel, "Connected"); ce != nil {
		v, err := c.Version(ctx)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		ce.Write(zap.String("address", address), zap.String("agent", v))
	}
	return c, nil
}
