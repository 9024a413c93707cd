// Package jolokia talks to a broker's Jolokia agent, the JSON-over-HTTP
// bridge to its JMX management objects.
package jolokia

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/flarebyte/amqkill/internal/config"
	"github.com/flarebyte/amqkill/internal/mbean"
)

// ErrTransport marks failures talking to the agent itself (network,
// HTTP status, undecodable body). These are never per-object errors.
var ErrTransport = errors.New("jolokia transport error")

type Client struct {
	httpClient *http.Client
	baseURL    string // e.g. http://127.0.0.1:8778/jolokia/
	username   string
	password   string
}

var _ mbean.Conn = (*Client)(nil)

// NewClient builds a client for the agent at address using the transport
// settings from cfg. password overrides cfg when non-empty (vault lookup).
func NewClient(address string, cfg config.JolokiaConfig, password string) (*Client, error) {
	if address == "" {
		return nil, fmt.Errorf("empty jolokia address")
	}
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		return nil, fmt.Errorf("unsupported jolokia address %q", address)
	}
	tr := &http.Transport{}
	if strings.HasPrefix(address, "https://") && cfg.InsecureSkipVerify {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if password == "" {
		password = cfg.Password
	}
	return &Client{
		httpClient: &http.Client{Transport: tr, Timeout: cfg.Timeout()},
		baseURL:    strings.TrimRight(address, "/") + "/",
		username:   cfg.Username,
		password:   password,
	}, nil
}

// Close releases idle connections to the agent.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Request is one Jolokia protocol request; bulk calls send a slice of them.
type Request struct {
	Type      string         `json:"type"`
	MBean     string         `json:"mbean,omitempty"`
	Attribute string         `json:"attribute,omitempty"`
	Operation string         `json:"operation,omitempty"`
	Arguments []any          `json:"arguments,omitempty"`
	Path      string         `json:"path,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
}

type Response struct {
	Status    int             `json:"status"`
	Value     json.RawMessage `json:"value"`
	Error     string          `json:"error"`
	ErrorType string          `json:"error_type"`
}

// RemoteError is an exception reported by the agent for one request.
type RemoteError struct {
	Status  int
	Type    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("jolokia: status=%d %s", e.Status, e.Message)
}

// Is maps the JMX exception class onto the mbean sentinels. Every remote
// error is an operational error.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case mbean.ErrOperation:
		return true
	case mbean.ErrInstanceNotFound:
		return e.Type == "javax.management.InstanceNotFoundException"
	case mbean.ErrAttributeNotFound:
		return e.Type == "javax.management.AttributeNotFoundException"
	}
	return false
}

func (r Response) err() error {
	if r.Status == http.StatusOK {
		return nil
	}
	return &RemoteError{Status: r.Status, Type: r.ErrorType, Message: r.Error}
}

// Do posts reqs as one bulk request and returns responses in request order.
func (c *Client) Do(ctx context.Context, reqs ...Request) ([]Response, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(reqs)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrTransport, resp.StatusCode, string(b))
	}
	var out []Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	if len(out) != len(reqs) {
		return nil, fmt.Errorf("%w: expected %d responses, got %d", ErrTransport, len(reqs), len(out))
	}
	return out, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return c.httpClient.Do(req)
}

func (c *Client) one(ctx context.Context, req Request) (Response, error) {
	out, err := c.Do(ctx, req)
	if err != nil {
		return Response{}, err
	}
	return out[0], out[0].err()
}

// Query searches for names matching pattern, then resolves each name's
// class with one bulk list request. Objects that vanish in between are
// dropped.
func (c *Client) Query(ctx context.Context, pattern mbean.ObjectName) ([]mbean.Instance, error) {
	resp, err := c.one(ctx, Request{Type: "search", MBean: pattern.String()})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", pattern, err)
	}
	var raw []string
	if err := json.Unmarshal(resp.Value, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode search result: %v", ErrTransport, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	names := make([]mbean.ObjectName, 0, len(raw))
	lists := make([]Request, 0, len(raw))
	for _, s := range raw {
		on, err := mbean.ParseObjectName(s)
		if err != nil {
			return nil, err
		}
		names = append(names, on)
		lists = append(lists, Request{Type: "list", Path: listPath(on)})
	}
	infos, err := c.Do(ctx, lists...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", pattern, err)
	}
	out := make([]mbean.Instance, 0, len(names))
	for i, on := range names {
		if errors.Is(infos[i].err(), mbean.ErrInstanceNotFound) {
			continue
		}
		var info struct {
			Class string `json:"class"`
		}
		if infos[i].err() == nil {
			_ = json.Unmarshal(infos[i].Value, &info)
		}
		out = append(out, mbean.NewInstance(on, info.Class))
	}
	return out, nil
}

// listPath escapes a name for the list operation's slash-separated path.
func listPath(on mbean.ObjectName) string {
	esc := strings.NewReplacer("!", "!!", "/", "!/")
	props := strings.TrimPrefix(on.String(), on.Domain+":")
	return esc.Replace(on.Domain) + "/" + esc.Replace(props)
}

func (c *Client) GetAttribute(ctx context.Context, name mbean.ObjectName, attribute string) (any, error) {
	resp, err := c.one(ctx, Request{Type: "read", MBean: name.String(), Attribute: attribute})
	if err != nil {
		return nil, fmt.Errorf("read %s of %s: %w", attribute, name, err)
	}
	var v any
	if err := json.Unmarshal(resp.Value, &v); err != nil {
		return nil, fmt.Errorf("%w: decode attribute: %v", ErrTransport, err)
	}
	return v, nil
}

func (c *Client) Invoke(ctx context.Context, name mbean.ObjectName, operation string, args ...any) (any, error) {
	req := Request{Type: "exec", MBean: name.String(), Operation: operation, Arguments: args}
	resp, err := c.one(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("exec %s on %s: %w", operation, name, err)
	}
	var v any
	if len(resp.Value) > 0 {
		_ = json.Unmarshal(resp.Value, &v)
	}
	return v, nil
}

// Version returns the agent version, used to verify connectivity.
func (c *Client) Version(ctx context.Context) (string, error) {
	resp, err := c.one(ctx, Request{Type: "version"})
	if err != nil {
		return "", err
	}
	var v struct {
		Agent string `json:"agent"`
	}
	if err := json.Unmarshal(resp.Value, &v); err != nil {
		return "", fmt.Errorf("%w: decode version: %v", ErrTransport, err)
	}
	return v.Agent, nil
}
