package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/flarebyte/amqkill/internal/killer"
	"github.com/flarebyte/amqkill/internal/locator"
	"github.com/spf13/pflag"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("AMQKILL_HOME_DIR", t.TempDir())
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRoot_NoCriterionPrintsUsage(t *testing.T) {
	out, err := execute(t, "-p", "1")
	if !errors.Is(err, killer.ErrNoCriterion) {
		t.Fatalf("expected ErrNoCriterion, got %v", err)
	}
	for _, want := range []string{"--ip-address", "--destination-name", "--max-connections-to-stop"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected usage to mention %s; got %q", want, out)
		}
	}
}

func TestRoot_InvalidMax(t *testing.T) {
	_, err := execute(t, "-p", "1", "-a", "1.2.3.4", "-c", "0")
	if !errors.Is(err, killer.ErrInvalidMax) {
		t.Fatalf("expected ErrInvalidMax, got %v", err)
	}
}

func TestRoot_UnknownProcess(t *testing.T) {
	_, err := execute(t, "-p", "99999999", "-a", "1.2.3.4")
	if !errors.Is(err, locator.ErrProcessNotFound) {
		t.Fatalf("expected ErrProcessNotFound, got %v", err)
	}
}

func TestRoot_PidRequired(t *testing.T) {
	_, err := execute(t, "-a", "1.2.3.4")
	if err == nil || !strings.Contains(err.Error(), "pid") {
		t.Fatalf("expected required pid error, got %v", err)
	}
}
