package killer

import (
	"context"
	"errors"
	"testing"

	"github.com/flarebyte/amqkill/internal/mbean"
	"github.com/stretchr/testify/require"
)

var errBrokerDown = errors.New("connection refused")

// fakeConn is an in-memory broker. Objects are returned in insertion order.
type fakeConn struct {
	t         *testing.T
	instances []mbean.Instance
	// owners maps a subscription name to its Connection attribute value.
	owners    map[string]any
	readErrs  map[string]error
	stopErrs  map[string]error
	queryErr  error
	reads     []string
	stops     []string
	lastQuery mbean.ObjectName
}

func newFakeConn(t *testing.T) *fakeConn {
	return &fakeConn{t: t, owners: map[string]any{}, readErrs: map[string]error{}, stopErrs: map[string]error{}}
}

func (f *fakeConn) add(className, name string) mbean.ObjectName {
	f.t.Helper()
	on, err := mbean.ParseObjectName(name)
	require.NoError(f.t, err)
	f.instances = append(f.instances, mbean.NewInstance(on, className))
	return on
}

func (f *fakeConn) conn(ip, port string) mbean.ObjectName {
	return f.add(mbean.ConnectionViewClass, "org.apache.activemq:type=Broker,brokerName=b1,connector=clientConnectors,connectorName=openwire,connectionViewType=remoteAddress,connectionName=tcp_//"+ip+"_"+port)
}

func (f *fakeConn) sub(dest, consumerID string) mbean.ObjectName {
	return f.add(mbean.SubscriptionViewClass, "org.apache.activemq:type=Broker,brokerName=b1,destinationType=Queue,destinationName="+dest+",endpoint=Consumer,clientId=c,consumerId="+consumerID)
}

func (f *fakeConn) Query(ctx context.Context, pattern mbean.ObjectName) ([]mbean.Instance, error) {
	f.lastQuery = pattern
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.instances, nil
}

func (f *fakeConn) GetAttribute(ctx context.Context, name mbean.ObjectName, attribute string) (any, error) {
	f.reads = append(f.reads, name.String())
	if err, ok := f.readErrs[name.String()]; ok {
		return nil, err
	}
	return f.owners[name.String()], nil
}

func (f *fakeConn) Invoke(ctx context.Context, name mbean.ObjectName, operation string, args ...any) (any, error) {
	require.Equal(f.t, "stop", operation)
	require.Empty(f.t, args)
	f.stops = append(f.stops, name.String())
	if err, ok := f.stopErrs[name.String()]; ok {
		return nil, err
	}
	return nil, nil
}

func (f *fakeConn) Close() error { return nil }

// remoteErr mimics a broker-reported exception.
type remoteErr struct{ target error }

func (e remoteErr) Error() string { return "remote: " + e.target.Error() }

func (e remoteErr) Is(target error) bool { return target == e.target || target == mbean.ErrOperation }
