package swarm

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestComposeParamFile_ContentOrder(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.param")
	if err := os.WriteFile(base, []byte("SIM_WIND_SPD\t5"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{
		Params: []ParameterSource{
			FileParam(base),
			ValueParam{Name: "RTL_ALT", Value: 2000},
		},
		MulticastAddress: "239.255.43.21:14555",
	}
	id := Identity{Index: 1, Dir: filepath.Join(dir, "drones", "001"), TCPPort: 5760}

	path, err := composeParamFile(context.Background(), id, cfg)
	if err != nil {
		t.Fatalf("composeParamFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "SIM_WIND_SPD\t5\n" +
		"RTL_ALT\t2000\n" +
		"SYSID_THISMAV\t1\n" +
		"SERIAL1_PROTOCOL\t2\n" +
		"SERIAL1_OPTIONS\t1024\n" +
		"SERIAL2_PROTOCOL\t2\n"
	if string(data) != want {
		t.Errorf("parameter file mismatch:\n got %q\nwant %q", string(data), want)
	}
}

func TestComposeParamFile_NoOptionalSections(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{}
	id := Identity{Index: 7, Dir: filepath.Join(dir, "drones", "007")}

	path, err := composeParamFile(context.Background(), id, cfg)
	if err != nil {
		t.Fatalf("composeParamFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "SYSID_THISMAV\t7\n" {
		t.Errorf("parameter file = %q", string(data))
	}
}

func TestComposeParamFile_CreatesDirectoryTree(t *testing.T) {
	dir := t.TempDir()
	id := Identity{Index: 2, Dir: filepath.Join(dir, "drones", "002")}

	if _, err := composeParamFile(context.Background(), id, &Config{}); err != nil {
		t.Fatalf("composeParamFile failed: %v", err)
	}
	if fi, err := os.Stat(filepath.Join(id.Dir, "fs")); err != nil || !fi.IsDir() {
		t.Errorf("fs state dir missing: %v", err)
	}

	// Composing again for the same identity must be idempotent.
	if _, err := composeParamFile(context.Background(), id, &Config{}); err != nil {
		t.Errorf("second compose failed: %v", err)
	}
}

func TestComposeParamFile_NilSourceContributesNothing(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Params: []ParameterSource{nil, ValueParam{Name: "FOO", Value: 1}}}
	id := Identity{Index: 1, Dir: filepath.Join(dir, "drones", "001")}

	path, err := composeParamFile(context.Background(), id, cfg)
	if err != nil {
		t.Fatalf("composeParamFile failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "FOO\t1\nSYSID_THISMAV\t1\n" {
		t.Errorf("parameter file = %q", string(data))
	}
}

func TestComposeParamFile_CancelledLeavesNoFinalFile(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	id := Identity{Index: 1, Dir: filepath.Join(dir, "drones", "001")}
	if _, err := composeParamFile(ctx, id, &Config{}); err == nil {
		t.Fatal("expected cancellation error")
	}
	if _, err := os.Stat(filepath.Join(id.Dir, paramFileName)); !os.IsNotExist(err) {
		t.Error("cancelled compose left a finalized parameter file")
	}
}
