package paths

import (
	"os"
	"path/filepath"
)

// EnvHome overrides the amqkill home directory.
const EnvHome = "AMQKILL_HOME_DIR"

const (
	dirName    = ".amqkill"
	configName = "config.yaml"
)

// Home is $AMQKILL_HOME_DIR, or ~/.amqkill.
func Home() string {
	if v := os.Getenv(EnvHome); v != "" {
		return v
	}
	hd, err := os.UserHomeDir()
	if err != nil || hd == "" {
		return dirName
	}
	return filepath.Join(hd, dirName)
}

// ConfigFile is the location of config.yaml inside Home.
func ConfigFile() string { return filepath.Join(Home(), configName) }

// EnsureHome creates Home readable only by the current user, since the
// config may hold a Jolokia password.
func EnsureHome() (string, error) {
	h := Home()
	if err := os.MkdirAll(h, 0o700); err != nil {
		return "", err
	}
	return h, nil
}
