package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
)

// Environment variables passed to extensions.
const (
	EnvStore    = "MARG_STORE"
	EnvSettings = "MARG_SETTINGS"
	EnvRaw      = "MARG_RAW"
)

// RunExtension attempts to find and execute an external marg-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
//
// The global flags are passed to the extension as environment variables, so
// that it can open the same store.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "marg-" + subcommand

	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		log.Printf("External command %q not found in PATH: %v", externalCmdName, err)
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, EnvStore+"="+*storeLocation)
	cmd.Env = append(cmd.Env, EnvSettings+"="+*settingsFile)
	cmd.Env = append(cmd.Env, EnvRaw+"="+strconv.FormatBool(*rawOutput))

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", externalCmdName, err)
		return true, 1
	}
	return true, 0
}
