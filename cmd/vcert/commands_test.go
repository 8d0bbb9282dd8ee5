package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vcert/internal/store"
	"vcert/internal/testsupport"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfigFile(t *testing.T) string {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(t.TempDir(), "vcert.toml")
	contents := "[telegram]\ntoken = \"test-token\"\n\n[paths]\ndata_dir = \"" + cfg.Paths.DataDir + "\"\n" +
		"log_dir = \"" + cfg.Paths.LogDir + "\"\nrender_dir = \"" + cfg.Paths.RenderDir + "\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Sample configuration written") {
		t.Fatalf("output = %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[telegram]") {
		t.Fatalf("sample missing telegram section: %s", data)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
}

func TestConfigShowMasksToken(t *testing.T) {
	path := writeConfigFile(t)
	out, err := runCommand(t, "config", "show", "--path", path)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if strings.Contains(out, "test-token") {
		t.Fatalf("token leaked: %q", out)
	}
	for _, want := range []string{"<set>", "[telegram]", "[workflow]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output missing %q: %s", want, out)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	path := writeConfigFile(t)
	out, err := runCommand(t, "config", "validate", "--path", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "is valid") {
		t.Fatalf("output = %q", out)
	}
}

func TestPendingAndStatsCommands(t *testing.T) {
	path := writeConfigFile(t)

	// Seed through the same store the commands will open.
	ctx := &commandContext{configFlag: &path}
	st, err := ctx.openStore()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	operator, err := st.UpsertUser(context.Background(), 100, "op", "Operator", "")
	if err != nil {
		t.Fatalf("seed operator: %v", err)
	}
	if _, err := st.CreateCertificate(context.Background(), store.NewCertificate{
		OperatorID: operator.ID, CarBrand: "Toyota", CarModel: "Camry",
		LicensePlate: "A123BC777", VIN: "JTDBT923771012345",
		RollNumber: "RL-100", RollPhoto: "p1", CarPhoto: "p2",
	}); err != nil {
		t.Fatalf("seed certificate: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, err := runCommand(t, "--config", path, "pending")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	for _, want := range []string{"A123BC777", "Toyota Camry", "Operator"} {
		if !strings.Contains(out, want) {
			t.Fatalf("pending output missing %q: %s", want, out)
		}
	}

	out, err = runCommand(t, "--config", path, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "Certificates") || !strings.Contains(out, "pending") {
		t.Fatalf("stats output = %q", out)
	}

	out, err = runCommand(t, "--config", path, "users", "--role", "user")
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if !strings.Contains(out, "Operator") {
		t.Fatalf("users output = %q", out)
	}
}
