package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtensionMechanism(t *testing.T) {
	if testing.Short() {
		t.Skip("builds binaries")
	}
	tempDir := t.TempDir()

	helloCmdSource := fmt.Sprintf(`
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("args=%%v\n", os.Args[1:])
}
`, EnvStore, EnvStore, EnvSettings, EnvSettings, EnvRaw, EnvRaw)

	helloCmdPath := filepath.Join(tempDir, "marg-hello")
	srcFile := helloCmdPath + ".go"
	if err := os.WriteFile(srcFile, []byte(helloCmdSource), 0644); err != nil {
		t.Fatalf("Failed to write marg-hello source: %v", err)
	}
	build := exec.Command("go", "build", "-o", helloCmdPath, srcFile)
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("Failed to compile marg-hello: %v", err)
	}

	margBinaryPath := filepath.Join(tempDir, "marg")
	build = exec.Command("go", "build", "-o", margBinaryPath, "../marg")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("Failed to compile marg binary: %v", err)
	}

	expectedStore := filepath.Join(tempDir, "account.db")
	expectedSettings := filepath.Join(tempDir, "broker.yaml")
	args := []string{
		"-store", expectedStore,
		"-settings", expectedSettings,
		"-raw",
		"hello", "world",
	}

	margCmd := exec.Command(margBinaryPath, args...)
	margCmd.Env = []string{"PATH=" + tempDir + string(os.PathListSeparator) + os.Getenv("PATH")}
	var stdout, stderr bytes.Buffer
	margCmd.Stdout = &stdout
	margCmd.Stderr = &stderr
	if err := margCmd.Run(); err != nil {
		t.Fatalf("marg command failed: %v\nStdout: %s\nStderr: %s", err, stdout.String(), stderr.String())
	}

	output := stdout.String()
	for _, want := range []string{
		EnvStore + "=" + expectedStore,
		EnvSettings + "=" + expectedSettings,
		EnvRaw + "=true",
		"args=[world]",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, but got:\n%s", want, output)
		}
	}
}

func TestRunExtensionNotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if found, code := RunExtension("missing", nil); found || code != 0 {
		t.Errorf("RunExtension(missing) = %v, %d, want false, 0", found, code)
	}
}
