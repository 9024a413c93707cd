package killer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/flarebyte/amqkill/internal/mbean"
	"go.uber.org/zap"
)

const (
	stopOperation       = "stop"
	connectionAttribute = "Connection"
)

// Outcome is what happened to one candidate.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeStopped
	OutcomeFailed
	// OutcomeMatched is reported instead of OutcomeStopped on dry runs.
	OutcomeMatched
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStopped:
		return "stopped"
	case OutcomeFailed:
		return "failed"
	case OutcomeMatched:
		return "matched"
	default:
		return "skipped"
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

type Action struct {
	Target  string  `json:"target"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// Result summarises one run. Stopped only counts successful stops.
type Result struct {
	Criterion  string   `json:"criterion"`
	DryRun     bool     `json:"dry_run,omitempty"`
	Candidates int      `json:"candidates"`
	Stopped    int      `json:"stopped"`
	Matched    int      `json:"matched,omitempty"`
	Actions    []Action `json:"actions,omitempty"`
}

func (r *Result) record(target string, o Outcome, reason string) {
	r.Actions = append(r.Actions, Action{Target: target, Outcome: o, Reason: reason})
	switch o {
	case OutcomeStopped:
		r.Stopped++
	case OutcomeMatched:
		r.Matched++
	}
}

// done reports whether the stop limit has been reached.
func (r *Result) done(limit int) bool {
	if r.DryRun {
		return r.Matched >= limit
	}
	return r.Stopped >= limit
}

// Terminator selects connections over a management connection and stops
// them, one candidate at a time.
type Terminator struct {
	Conn   mbean.Conn
	Logger *zap.Logger
	// DryRun selects candidates without invoking stop.
	DryRun bool
}

func (t *Terminator) log() *zap.Logger {
	if t.Logger == nil {
		return zap.NewNop()
	}
	return t.Logger
}

// Terminate stops at most maxToStop connections matching crit and returns
// the tally. Per-candidate broker errors are recorded and skipped; any
// other error aborts the scan.
func (t *Terminator) Terminate(ctx context.Context, crit Criterion, maxToStop int) (Result, error) {
	res := Result{Criterion: crit.String(), DryRun: t.DryRun}
	pattern, err := crit.Pattern()
	if err != nil {
		return res, err
	}
	switch c := crit.(type) {
	case ByClientAddress:
		err = t.byClientAddress(ctx, c, pattern, maxToStop, &res)
	case ByDestination:
		err = t.byDestination(ctx, c, pattern, maxToStop, &res)
	default:
		err = fmt.Errorf("unsupported criterion %T", crit)
	}
	return res, err
}

func (t *Terminator) byClientAddress(ctx context.Context, c ByClientAddress, pattern mbean.ObjectName, limit int, res *Result) error {
	log := t.log()
	log.Debug("Finding ConnectionView MBeans", zap.String("ip", c.IP))
	instances, err := t.Conn.Query(ctx, pattern)
	if err != nil {
		return err
	}
	log.Debug("Processing beans", zap.Int("count", len(instances)))
	for _, inst := range instances {
		if res.done(limit) {
			break
		}
		if inst.Kind != mbean.KindConnectionView {
			continue
		}
		res.Candidates++
		connectionName := inst.Name.KeyProperty("connectionName")
		if !c.Matches(connectionName) {
			continue
		}
		if err := t.stop(ctx, inst.Name, connectionName, res); err != nil {
			return err
		}
	}
	return nil
}

func (t *Terminator) byDestination(ctx context.Context, c ByDestination, pattern mbean.ObjectName, limit int, res *Result) error {
	log := t.log()
	log.Debug("Finding SubscriptionView MBeans", zap.String("destination", c.Name))
	instances, err := t.Conn.Query(ctx, pattern)
	if err != nil {
		return err
	}
	log.Debug("Processing beans", zap.Int("count", len(instances)))
	for _, inst := range instances {
		if res.done(limit) {
			break
		}
		if inst.Kind != mbean.KindSubscriptionView {
			continue
		}
		res.Candidates++
		if strings.Contains(inst.Name.KeyProperty("consumerId"), bridgeMarker) {
			log.Debug("Skipping bridge", zap.Stringer("mbean", inst.Name))
			res.record(inst.Name.String(), OutcomeSkipped, "network bridge")
			continue
		}
		owner, ok, err := t.owningConnection(ctx, inst.Name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := t.stop(ctx, owner, owner.String(), res); err != nil {
			return err
		}
	}
	return nil
}

// owningConnection reads the subscription's Connection attribute. A closed
// connection or a broker without the attribute yields ok=false.
func (t *Terminator) owningConnection(ctx context.Context, sub mbean.ObjectName) (mbean.ObjectName, bool, error) {
	v, err := t.Conn.GetAttribute(ctx, sub, connectionAttribute)
	switch {
	case errors.Is(err, mbean.ErrInstanceNotFound):
		return mbean.ObjectName{}, false, nil
	case errors.Is(err, mbean.ErrAttributeNotFound):
		t.log().Warn("Connection attribute missing - ignoring", zap.Stringer("mbean", sub))
		return mbean.ObjectName{}, false, nil
	case err != nil:
		return mbean.ObjectName{}, false, err
	}
	owner, ok, err := mbean.AsObjectName(v)
	if err != nil {
		t.log().Warn("Connection attribute unreadable - ignoring", zap.Stringer("mbean", sub), zap.Error(err))
		return mbean.ObjectName{}, false, nil
	}
	return owner, ok, nil
}

// stop invokes the zero-argument stop operation once. Broker-side failures
// are recorded, everything else is returned.
func (t *Terminator) stop(ctx context.Context, name mbean.ObjectName, label string, res *Result) error {
	log := t.log()
	if t.DryRun {
		log.Debug("Would stop", zap.String("connection", label))
		res.record(name.String(), OutcomeMatched, "")
		return nil
	}
	log.Debug("Stopping", zap.String("connection", label))
	if _, err := t.Conn.Invoke(ctx, name, stopOperation); err != nil {
		if !mbean.IsOperational(err) {
			return err
		}
		log.Debug("Failed to stop", zap.String("connection", label), zap.Error(err))
		res.record(name.String(), OutcomeFailed, err.Error())
		return nil
	}
	log.Debug("Stopped", zap.String("connection", label))
	res.record(name.String(), OutcomeStopped, "")
	return nil
}
