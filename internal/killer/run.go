package killer

import (
	"context"
	"fmt"

	"github.com/flarebyte/amqkill/internal/mbean"
	"github.com/oklog/ulid/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Endpoint is an attached broker process.
type Endpoint interface {
	// Address is the management address, empty when none is exposed.
	Address() string
	Detach() error
}

// Session is an open management connection.
type Session interface {
	mbean.Conn
	Close() error
}

// Deps are the collaborators of Run.
type Deps struct {
	Locate func(ctx context.Context, pid int) (Endpoint, error)
	Dial   func(ctx context.Context, address string) (Session, error)
	Logger *zap.Logger
}

// Run validates cfg, attaches to the broker, terminates the selected
// connections and releases both the session and the attachment on every
// path. Configuration errors return before anything is contacted.
func Run(ctx context.Context, cfg Config, deps Deps) (res Result, err error) {
	crit, err := cfg.Validate()
	if err != nil {
		return Result{}, err
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.Stringer("run", ulid.Make()))
	log.Debug("Attaching", zap.Int("pid", cfg.PID), zap.Stringer("criterion", crit))

	ep, err := deps.Locate(ctx, cfg.PID)
	if err != nil {
		return Result{}, fmt.Errorf("attach to pid %d: %w", cfg.PID, err)
	}
	defer func() {
		err = multierr.Append(err, ep.Detach())
	}()

	address := cfg.Endpoint
	if address == "" {
		address = ep.Address()
	}
	if address == "" {
		return Result{}, fmt.Errorf("%w for pid %d", ErrEndpointNotFound, cfg.PID)
	}
	log.Debug("Connecting", zap.String("address", address))
	sess, err := deps.Dial(ctx, address)
	if err != nil {
		return Result{}, fmt.Errorf("connect to %s: %w", address, err)
	}
	defer func() {
		err = multierr.Append(err, sess.Close())
	}()

	t := &Terminator{Conn: sess, Logger: log, DryRun: cfg.DryRun}
	return t.Terminate(ctx, crit, cfg.MaxConnections)
}
