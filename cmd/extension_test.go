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
	tempDir := t.TempDir()

	helloSource := fmt.Sprintf(`
package main

import (
	"fmt"
	"os"
)

func main() {
	for _, name := range []string{%q, %q, %q} {
		fmt.Printf("%%s=%%s\n", name, os.Getenv(name))
	}
	fmt.Println("args", os.Args[1:])
}
`, EnvDataDir, EnvBaseCurrency, EnvVerbose)

	helloPath := filepath.Join(tempDir, "fxh-hello")
	srcFile := helloPath + ".go"
	if err := os.WriteFile(srcFile, []byte(helloSource), 0644); err != nil {
		t.Fatalf("Failed to write fxh-hello source: %v", err)
	}
	build := exec.Command("go", "build", "-o", helloPath, srcFile)
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("Failed to compile fxh-hello: %v", err)
	}

	fxhPath := filepath.Join(tempDir, "fxh")
	build = exec.Command("go", "build", "-o", fxhPath, "../fxh")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("Failed to compile fxh binary: %v", err)
	}

	dataDir := filepath.Join(tempDir, "data")
	fxh := exec.Command(fxhPath, "-data-dir", dataDir, "-v", "hello", "world")
	fxh.Dir = tempDir
	fxh.Env = []string{
		"PATH=" + tempDir + string(os.PathListSeparator) + os.Getenv("PATH"),
		"FXHUB_BASE_CURRENCY=eur",
	}
	var stdout, stderr bytes.Buffer
	fxh.Stdout = &stdout
	fxh.Stderr = &stderr
	if err := fxh.Run(); err != nil {
		t.Fatalf("fxh command failed: %v\nStdout: %s\nStderr: %s", err, stdout.String(), stderr.String())
	}

	output := stdout.String()
	for _, want := range []string{
		EnvDataDir + "=" + dataDir,
		EnvBaseCurrency + "=EUR",
		EnvVerbose + "=true",
		"args [world]",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, but got:\n%s", want, output)
		}
	}
}
