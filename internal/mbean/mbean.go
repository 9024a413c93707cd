// Package mbean models the broker management objects that amqkill queries
// and acts on, independent of the transport used to reach them.
package mbean

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrMalformedName     = errors.New("malformed object name")
	ErrInstanceNotFound  = errors.New("management object not found")
	ErrAttributeNotFound = errors.New("attribute not found")
	// ErrOperation marks an error reported by the broker for a single
	// management call, as opposed to a transport failure.
	ErrOperation = errors.New("management operation failed")
)

// IsOperational reports whether err was raised by the broker for one call
// and can be recovered from by moving on to the next object.
func IsOperational(err error) bool {
	return errors.Is(err, ErrOperation) || errors.Is(err, ErrInstanceNotFound) || errors.Is(err, ErrAttributeNotFound)
}

const (
	ConnectionViewClass   = "org.apache.activemq.broker.jmx.ConnectionView"
	SubscriptionViewClass = "org.apache.activemq.broker.jmx.SubscriptionView"
)

func isSubscriptionViewClass(className string) bool {
	switch className {
	case SubscriptionViewClass,
		"org.apache.activemq.broker.jmx.QueueSubscriptionView",
		"org.apache.activemq.broker.jmx.TopicSubscriptionView",
		"org.apache.activemq.broker.jmx.DurableSubscriptionView":
		return true
	}
	return false
}

// Kind is the category of a discovered management object.
type Kind int

const (
	KindOther Kind = iota
	KindConnectionView
	KindSubscriptionView
)

func (k Kind) String() string {
	switch k {
	case KindConnectionView:
		return "ConnectionView"
	case KindSubscriptionView:
		return "SubscriptionView"
	default:
		return "Other"
	}
}

// KindOf classifies an object by its declared class name. When the
// transport does not report a class, the key properties decide.
func KindOf(className string, name ObjectName) Kind {
	switch {
	case className == ConnectionViewClass:
		return KindConnectionView
	case isSubscriptionViewClass(className):
		return KindSubscriptionView
	case className != "":
		return KindOther
	}
	if name.HasKey("connectionViewType") && name.HasKey("connectionName") {
		return KindConnectionView
	}
	if name.KeyProperty("endpoint") == "Consumer" && name.HasKey("consumerId") {
		return KindSubscriptionView
	}
	return KindOther
}

// Instance is one management object returned by a query.
type Instance struct {
	Name      ObjectName
	ClassName string
	Kind      Kind
}

// NewInstance resolves the Kind once, at query time.
func NewInstance(name ObjectName, className string) Instance {
	return Instance{Name: name, ClassName: className, Kind: KindOf(className, name)}
}

// Conn is a live management connection to a broker.
type Conn interface {
	// Query returns all objects matching pattern, in no particular order.
	Query(ctx context.Context, pattern ObjectName) ([]Instance, error)
	// GetAttribute reads one attribute of the named object.
	GetAttribute(ctx context.Context, name ObjectName, attribute string) (any, error)
	// Invoke calls operation on the named object.
	Invoke(ctx context.Context, name ObjectName, operation string, args ...any) (any, error)
}

// AsObjectName converts an attribute value that references another
// management object. A nil value yields ok=false.
func AsObjectName(v any) (name ObjectName, ok bool, err error) {
	switch t := v.(type) {
	case nil:
		return ObjectName{}, false, nil
	case ObjectName:
		return t, !t.IsZero(), nil
	case string:
		if t == "" {
			return ObjectName{}, false, nil
		}
		name, err = ParseObjectName(t)
		return name, err == nil, err
	case map[string]any:
		s, _ := t["objectName"].(string)
		return AsObjectName(s)
	default:
		return ObjectName{}, false, fmt.Errorf("%w: unexpected reference value %T", ErrMalformedName, v)
	}
}
