// Package locator finds the management endpoint exposed by a local broker
// process.
package locator

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v4/process"
)

// ErrProcessNotFound is returned when no process with the pid is running
// or it cannot be inspected.
var ErrProcessNotFound = errors.New("process not found")

// Attachment is the handle on an inspected broker process. Address is
// empty when the process exposes no management endpoint.
type Attachment struct {
	PID     int
	Agent   AgentOptions
	address string
	proc    *process.Process
}

func (a *Attachment) Address() string { return a.address }

// Detach releases the process handle. Safe to call more than once.
func (a *Attachment) Detach() error {
	a.proc = nil
	return nil
}

// Locate attaches to pid and discovers the Jolokia agent from its command
// line.
func Locate(ctx context.Context, pid int) (*Attachment, error) {
	if pid <= 0 || pid > 1<<31-1 {
		return nil, fmt.Errorf("%w: invalid pid %d", ErrProcessNotFound, pid)
	}
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil, fmt.Errorf("%w: pid %d: %v", ErrProcessNotFound, pid, err)
	}
	args, err := p.CmdlineSliceWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: pid %d: read command line: %v", ErrProcessNotFound, pid, err)
	}
	a := &Attachment{PID: pid, proc: p}
	if opts, ok := FindAgent(args); ok {
		a.Agent = opts
		a.address = opts.URL()
	}
	return a, nil
}
