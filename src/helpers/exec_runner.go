package helpers

import (
	"context"
	"os/exec"
)

// -----------------------------------------------------------------------------

// ExecRunner runs external commands with exec. It is the production
// implementation of interfaces.ICommandRunner.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// -----------------------------------------------------------------------------

// Run executes the command in dir and returns combined stdout/stderr.
func (r *ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}
