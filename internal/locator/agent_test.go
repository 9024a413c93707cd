package locator

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAgent_Defaults(t *testing.T) {
	args := []string{"/usr/bin/java", "-Xmx1G", "-javaagent:/opt/jolokia/jolokia-jvm-1.7.2.jar", "-jar", "activemq.jar", "start"}
	opts, ok := FindAgent(args)
	require.True(t, ok)
	assert.Equal(t, "/opt/jolokia/jolokia-jvm-1.7.2.jar", opts.Jar)
	assert.Equal(t, "http://127.0.0.1:8778/jolokia/", opts.URL())
}

func TestFindAgent_InlineOptions(t *testing.T) {
	args := []string{"java", "-javaagent:/opt/agents/jolokia-agent-jvm-2.0.3-javaagent.jar=port=7777,host=10.1.2.3,protocol=https,agentContext=/mgmt/"}
	opts, ok := FindAgent(args)
	require.True(t, ok)
	assert.Equal(t, "https://10.1.2.3:7777/mgmt/", opts.URL())
}

func TestFindAgent_WildcardHostAndSystemProperty(t *testing.T) {
	args := []string{"java", "-javaagent:jolokia.jar=host=0.0.0.0", "-Djolokia.port=9999"}
	opts, ok := FindAgent(args)
	require.True(t, ok)
	assert.Equal(t, "http://127.0.0.1:9999/jolokia/", opts.URL())
}

func TestFindAgent_IPv6(t *testing.T) {
	opts, ok := FindAgent([]string{"-javaagent:jolokia.jar=host=::1,port=8778"})
	require.True(t, ok)
	assert.Equal(t, "http://[::1]:8778/jolokia/", opts.URL())
}

func TestFindAgent_OtherAgentsIgnored(t *testing.T) {
	_, ok := FindAgent([]string{"java", "-javaagent:/opt/otel/opentelemetry-javaagent.jar", "-Djolokia.port=1"})
	assert.False(t, ok)
}

func TestLocate_SelfHasNoAgent(t *testing.T) {
	a, err := Locate(context.Background(), os.Getpid())
	require.NoError(t, err)
	assert.Equal(t, "", a.Address())
	assert.NoError(t, a.Detach())
	assert.NoError(t, a.Detach())
}

func TestLocate_UnknownPid(t *testing.T) {
	_, err := Locate(context.Background(), 99999999)
	assert.ErrorIs(t, err, ErrProcessNotFound)
	_, err = Locate(context.Background(), 0)
	assert.ErrorIs(t, err, ErrProcessNotFound)
}
