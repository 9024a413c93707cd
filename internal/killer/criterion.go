package killer

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/flarebyte/amqkill/internal/mbean"
)

const (
	clientConnectorPattern  = "org.apache.activemq:type=Broker,connector=clientConnectors,connectionViewType=remoteAddress,*"
	subscriptionPatternTmpl = "org.apache.activemq:type=Broker,destinationName=%s,endpoint=Consumer,*"

	// connectionName embeds the remote socket as tcp_//<ip>_<port>.
	addressPrefix = "//"
	addressSuffix = "_"
	bridgeMarker  = "->"

	// Unbounded is the default stop limit.
	Unbounded = math.MaxInt
)

var (
	ErrNoCriterion      = errors.New("please specify IP address or destination name")
	ErrInvalidMax       = errors.New("max connections to stop must be > 0")
	ErrInvalidPID       = errors.New("pid must be > 0")
	ErrEndpointNotFound = errors.New("could not find local management endpoint")
)

// Criterion selects which connections to stop. It is either
// ByClientAddress or ByDestination.
type Criterion interface {
	// Pattern is the query that yields candidate objects.
	Pattern() (mbean.ObjectName, error)
	String() string
	criterion()
}

type ByClientAddress struct {
	IP string
}

func (c ByClientAddress) Pattern() (mbean.ObjectName, error) {
	return mbean.ParseObjectName(clientConnectorPattern)
}

// token is the delimited form of the IP inside a connectionName, so
// 10.0.0.1 never matches 10.0.0.11.
func (c ByClientAddress) token() string {
	return addressPrefix + c.IP + addressSuffix
}

func (c ByClientAddress) Matches(connectionName string) bool {
	return connectionName != "" && strings.Contains(connectionName, c.token())
}

func (c ByClientAddress) String() string { return "client address " + c.IP }
func (ByClientAddress) criterion()       {}

type ByDestination struct {
	Name string
}

func (c ByDestination) Pattern() (mbean.ObjectName, error) {
	return mbean.ParseObjectName(fmt.Sprintf(subscriptionPatternTmpl, c.Name))
}

func (c ByDestination) String() string { return "destination " + c.Name }
func (ByDestination) criterion()       {}

// Config is the immutable input of one run.
type Config struct {
	ClientIP        string
	DestinationName string
	PID             int
	MaxConnections  int
	Verbose         bool
	DryRun          bool
	// Endpoint, when set, replaces the discovered management address.
	Endpoint string
}

// Criterion returns the selection criterion. Destination mode wins when
// both an IP and a destination are set.
func (c Config) Criterion() (Criterion, error) {
	switch {
	case strings.TrimSpace(c.DestinationName) != "":
		return ByDestination{Name: strings.TrimSpace(c.DestinationName)}, nil
	case strings.TrimSpace(c.ClientIP) != "":
		return ByClientAddress{IP: strings.TrimSpace(c.ClientIP)}, nil
	default:
		return nil, ErrNoCriterion
	}
}

// Validate checks everything that can be checked without the broker.
func (c Config) Validate() (Criterion, error) {
	crit, err := c.Criterion()
	if err != nil {
		return nil, err
	}
	if c.PID <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPID, c.PID)
	}
	if c.MaxConnections <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMax, c.MaxConnections)
	}
	if _, err := crit.Pattern(); err != nil {
		return nil, fmt.Errorf("%s: %w", crit, err)
	}
	return crit, nil
}
