package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestStoreAndGetAppContext(t *testing.T) {
	original := globalAppContext
	defer func() {
		globalAppContext = original
	}()

	cmd := &cobra.Command{Use: "root"}
	appCtx := &AppContext{DataDir: "/tmp/data"}

	storeAppContext(cmd, appCtx)

	got := getAppContext(cmd)
	if got != appCtx {
		t.Fatalf("expected stored app context to be returned")
	}

	// Commands that never ran the root hook fall back to the global context.
	if other := getAppContext(&cobra.Command{Use: "other"}); other != appCtx {
		t.Fatalf("expected global app context fallback")
	}
}

func TestInitConfig_ReadsConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	path := filepath.Join(t.TempDir(), "riskscan.yaml")
	content := "data_dir: /var/lib/riskscan\nstore:\n  driver: sqlite\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	original := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = original })

	if err := initConfig(); err != nil {
		t.Fatalf("initConfig: %v", err)
	}
	if got := viper.GetString("store.driver"); got != "sqlite" {
		t.Fatalf("store.driver = %q", got)
	}
}

func TestInitConfig_MissingExplicitFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	original := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { cfgFile = original })

	if err := initConfig(); err == nil {
		t.Fatal("expected error for missing --config file")
	}
}

func TestInitConfig_MissingDefaultFileIsFine(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())
	original := cfgFile
	cfgFile = ""
	t.Cleanup(func() { cfgFile = original })

	if err := initConfig(); err != nil {
		t.Fatalf("expected no error without a config file, got %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	for _, dev := range []bool{false, true} {
		l, err := newLogger(dev)
		if err != nil {
			t.Fatalf("newLogger(%v): %v", dev, err)
		}
		_ = l.Sync()
	}
}
