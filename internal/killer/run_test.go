package killer

import (
	"context"
	"errors"
	"testing"

	"github.com/flarebyte/amqkill/internal/mbean"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEndpoint struct {
	address  string
	detached int
}

func (e *fakeEndpoint) Address() string { return e.address }

func (e *fakeEndpoint) Detach() error {
	e.detached++
	return nil
}

type closingConn struct {
	*fakeConn
	closed int
}

func (c *closingConn) Close() error {
	c.closed++
	return nil
}

type harness struct {
	ep      *fakeEndpoint
	conn    *closingConn
	located int
	dialed  string
}

func newHarness(t *testing.T, address string) *harness {
	return &harness{ep: &fakeEndpoint{address: address}, conn: &closingConn{fakeConn: newFakeConn(t)}}
}

func (h *harness) deps() Deps {
	return Deps{
		Locate: func(ctx context.Context, pid int) (Endpoint, error) {
			h.located++
			return h.ep, nil
		},
		Dial: func(ctx context.Context, address string) (Session, error) {
			h.dialed = address
			return h.conn, nil
		},
	}
}

func validConfig() Config {
	return Config{ClientIP: "1.2.3.4", PID: 42, MaxConnections: Unbounded}
}

func TestRun_NoCriterionNeverContactsBroker(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:8778/jolokia/")
	cfg := validConfig()
	cfg.ClientIP = ""
	_, err := Run(context.Background(), cfg, h.deps())
	assert.ErrorIs(t, err, ErrNoCriterion)
	assert.Zero(t, h.located)
}

func TestRun_InvalidConfig(t *testing.T) {
	h := newHarness(t, "x")
	cfg := validConfig()
	cfg.MaxConnections = 0
	_, err := Run(context.Background(), cfg, h.deps())
	assert.ErrorIs(t, err, ErrInvalidMax)

	cfg = validConfig()
	cfg.PID = 0
	_, err = Run(context.Background(), cfg, h.deps())
	assert.ErrorIs(t, err, ErrInvalidPID)

	cfg = validConfig()
	cfg.ClientIP = ""
	cfg.DestinationName = "bad,name"
	_, err = Run(context.Background(), cfg, h.deps())
	assert.ErrorIs(t, err, mbean.ErrMalformedName)
	assert.Zero(t, h.located)
}

func TestRun_EndpointNotFoundAbortsAndDetaches(t *testing.T) {
	h := newHarness(t, "")
	res, err := Run(context.Background(), validConfig(), h.deps())
	assert.ErrorIs(t, err, ErrEndpointNotFound)
	assert.Zero(t, res.Stopped)
	assert.Empty(t, h.dialed)
	assert.Equal(t, 1, h.ep.detached)
}

func TestRun_LocateFailure(t *testing.T) {
	notFound := errors.New("process not found")
	deps := Deps{
		Locate: func(ctx context.Context, pid int) (Endpoint, error) { return nil, notFound },
		Dial: func(ctx context.Context, address string) (Session, error) {
			t.Fatal("dial must not be called")
			return nil, nil
		},
	}
	_, err := Run(context.Background(), validConfig(), deps)
	assert.ErrorIs(t, err, notFound)
}

func TestRun_StopsAndReleasesEverything(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:8778/jolokia/")
	h.conn.conn("1.2.3.4", "1")
	h.conn.conn("5.6.7.8", "2")

	res, err := Run(context.Background(), validConfig(), h.deps())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stopped)
	assert.Equal(t, "http://127.0.0.1:8778/jolokia/", h.dialed)
	assert.Equal(t, 1, h.conn.closed)
	assert.Equal(t, 1, h.ep.detached)
}

func TestRun_FatalErrorStillReleases(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:8778/jolokia/")
	h.conn.queryErr = errBrokerDown

	_, err := Run(context.Background(), validConfig(), h.deps())
	assert.ErrorIs(t, err, errBrokerDown)
	assert.Equal(t, 1, h.conn.closed)
	assert.Equal(t, 1, h.ep.detached)
}

func TestRun_EndpointOverride(t *testing.T) {
	h := newHarness(t, "")
	cfg := validConfig()
	cfg.Endpoint = "http://broker:8161/api/jolokia/"
	_, err := Run(context.Background(), cfg, h.deps())
	require.NoError(t, err)
	assert.Equal(t, "http://broker:8161/api/jolokia/", h.dialed)
}

func TestConfig_DestinationTakesPrecedence(t *testing.T) {
	cfg := Config{ClientIP: "1.2.3.4", DestinationName: " orders.queue "}
	crit, err := cfg.Criterion()
	require.NoError(t, err)
	assert.Equal(t, ByDestination{Name: "orders.queue"}, crit)
}
