package plugins

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindPlugin_NotFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATH", t.TempDir())

	_, err := FindPlugin("nonexistent-plugin-xyz")
	if !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestFindPlugin_RejectsPaths(t *testing.T) {
	for _, name := range []string{"", "../evil", `a\b`} {
		if _, err := FindPlugin(name); !errors.Is(err, ErrPluginNotFound) {
			t.Errorf("FindPlugin(%q) error = %v, want ErrPluginNotFound", name, err)
		}
	}
}

func TestFindPlugin_InPluginsDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("PATH", t.TempDir())

	pluginsDir := filepath.Join(home, ".codephoenix", "plugins")
	if err := os.MkdirAll(pluginsDir, 0755); err != nil {
		t.Fatalf("failed to create plugins dir: %v", err)
	}
	pluginPath := filepath.Join(pluginsDir, "codephoenix-testplugin")
	if err := os.WriteFile(pluginPath, []byte("#!/bin/sh\necho test"), 0755); err != nil {
		t.Fatalf("failed to create test plugin: %v", err)
	}

	found, err := FindPlugin("testplugin")
	if err != nil {
		t.Fatalf("expected to find plugin, got error: %v", err)
	}
	if found != pluginPath {
		t.Errorf("expected %s, got %s", pluginPath, found)
	}
}

func TestFindPlugin_OnPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	binDir := t.TempDir()
	t.Setenv("PATH", binDir)

	pluginPath := filepath.Join(binDir, "codephoenix-export")
	if err := os.WriteFile(pluginPath, []byte("#!/bin/sh\nexit 0"), 0755); err != nil {
		t.Fatal(err)
	}

	found, err := FindPlugin("export")
	if err != nil {
		t.Fatalf("FindPlugin() error = %v", err)
	}
	if found != pluginPath {
		t.Errorf("expected %s, got %s", pluginPath, found)
	}
}

func TestExecute_ExitCode(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "codephoenix-fail")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 3\n"), 0755); err != nil {
		t.Fatal(err)
	}

	if code := Execute(context.Background(), script, nil); code != 3 {
		t.Errorf("Execute() = %d, want 3", code)
	}
}

func TestExecute_Missing(t *testing.T) {
	if code := Execute(context.Background(), filepath.Join(t.TempDir(), "missing"), nil); code != 2 {
		t.Errorf("Execute() = %d, want 2", code)
	}
}

func TestFormatNotFoundError(t *testing.T) {
	msg := FormatNotFoundError("export")

	for _, want := range []string{
		`unknown command "export"`,
		"codephoenix-export in the same directory",
		"~/.codephoenix/plugins/codephoenix-export",
		"codephoenix --help",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestIsExecutable(t *testing.T) {
	tmpDir := t.TempDir()

	nonExec := filepath.Join(tmpDir, "nonexec")
	if err := os.WriteFile(nonExec, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if isExecutable(nonExec) {
		t.Error("non-executable file should not be detected as executable")
	}

	execFile := filepath.Join(tmpDir, "exec")
	if err := os.WriteFile(execFile, []byte("test"), 0755); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if !isExecutable(execFile) {
		t.Error("executable file should be detected as executable")
	}

	if isExecutable(tmpDir) {
		t.Error("directory should not be detected as executable")
	}
	if isExecutable(filepath.Join(tmpDir, "nonexistent")) {
		t.Error("non-existent file should not be detected as executable")
	}
}
