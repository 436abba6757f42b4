package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
)

const (
	EnvConfigFile   = "FXHUB_CONFIG"
	EnvDataDir      = "FXHUB_DATA_DIR"
	EnvBaseCurrency = "FXHUB_BASE_CURRENCY"
	EnvVerbose      = "FXHUB_VERBOSE"
)

// RunExtension attempts to find and execute an external fxh-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found or executed.
func RunExtension(env *Env, subcommand string, args []string) (bool, int) {
	name := "fxh-" + subcommand

	lp, err := exec.LookPath(name)
	if err != nil {
		log.Printf("external command %q not found in PATH: %v", name, err)
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// Pass the resolved configuration as environment variables.
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, EnvConfigFile+"="+*configFile)
	cmd.Env = append(cmd.Env, EnvDataDir+"="+env.Config.DataDir)
	cmd.Env = append(cmd.Env, EnvBaseCurrency+"="+env.Config.Base())
	cmd.Env = append(cmd.Env, EnvVerbose+"="+strconv.FormatBool(*Verbose))

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
