package locator

import (
	"net"
	"path/filepath"
	"strings"
)

const (
	defaultAgentHost    = "127.0.0.1"
	defaultAgentPort    = "8778"
	defaultAgentContext = "/jolokia"
)

// AgentOptions are the subset of Jolokia JVM agent options that decide
// where it listens.
type AgentOptions struct {
	Jar      string
	Host     string
	Port     string
	Protocol string
	Context  string
}

// URL returns the local address of the agent. Wildcard binds are reached
// over loopback.
func (o AgentOptions) URL() string {
	host := o.Host
	switch host {
	case "", "*", "0.0.0.0", "::", "[::]":
		host = defaultAgentHost
	}
	port := o.Port
	if port == "" {
		port = defaultAgentPort
	}
	proto := o.Protocol
	if proto == "" {
		proto = "http"
	}
	ctx := strings.Trim(o.Context, "/")
	if ctx == "" {
		ctx = strings.Trim(defaultAgentContext, "/")
	}
	return proto + "://" + net.JoinHostPort(strings.Trim(host, "[]"), port) + "/" + ctx + "/"
}

// FindAgent scans JVM arguments for a Jolokia -javaagent. Later
// -Djolokia.* system properties override the agent's inline options.
func FindAgent(args []string) (AgentOptions, bool) {
	var (
		opts  AgentOptions
		found bool
	)
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-javaagent:") {
			continue
		}
		spec := strings.TrimPrefix(arg, "-javaagent:")
		jar, inline, _ := strings.Cut(spec, "=")
		if !strings.Contains(strings.ToLower(filepath.Base(jar)), "jolokia") {
			continue
		}
		opts = AgentOptions{Jar: jar}
		found = true
		for _, kv := range strings.Split(inline, ",") {
			k, v, ok := strings.Cut(kv, "=")
			if ok {
				opts.set(strings.TrimSpace(k), strings.TrimSpace(v))
			}
		}
	}
	if !found {
		return AgentOptions{}, false
	}
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-Djolokia.") {
			continue
		}
		k, v, ok := strings.Cut(strings.TrimPrefix(arg, "-Djolokia."), "=")
		if ok {
			opts.set(k, v)
		}
	}
	return opts, true
}

func (o *AgentOptions) set(key, value string) {
	switch key {
	case "host":
		o.Host = value
	case "port":
		o.Port = value
	case "protocol":
		o.Protocol = value
	case "agentContext":
		o.Context = value
	}
}
