package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/flarebyte/amqkill/internal/killer"
)

func TestSummary(t *testing.T) {
	cases := []struct {
		res  killer.Result
		want string
	}{
		{killer.Result{Stopped: 3}, "Stopped 3 client connections"},
		{killer.Result{}, "No matching client connections"},
		{killer.Result{DryRun: true, Matched: 2}, "Would stop 2 client connections"},
		{killer.Result{DryRun: true}, "No matching client connections"},
	}
	for _, c := range cases {
		if got := summary(c.res); got != c.want {
			t.Fatalf("summary(%+v) = %q, want %q", c.res, got, c.want)
		}
	}
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	res := killer.Result{Criterion: "client address 1.2.3.4", Candidates: 2, Stopped: 1,
		Actions: []killer.Action{{Target: "org.apache.activemq:type=Broker,connectionName=c1", Outcome: killer.OutcomeStopped}}}
	if err := render(&buf, outputJSON, res); err != nil {
		t.Fatalf("render: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	actions := got["actions"].([]any)
	if actions[0].(map[string]any)["outcome"] != "stopped" {
		t.Fatalf("unexpected outcome encoding: %v", actions[0])
	}
	if got["stopped"] != float64(1) {
		t.Fatalf("unexpected stopped count: %v", got["stopped"])
	}
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	res := killer.Result{Actions: []killer.Action{{Target: "sub", Outcome: killer.OutcomeSkipped, Reason: "network bridge"}}}
	if err := render(&buf, outputTable, res); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"TARGET", "network bridge", "No matching client connections"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestParseOutput(t *testing.T) {
	if f, err := parseOutput(" JSON "); err != nil || f != outputJSON {
		t.Fatalf("parseOutput json: %v %v", f, err)
	}
	if _, err := parseOutput("yaml"); err == nil {
		t.Fatalf("expected error for yaml")
	}
}
