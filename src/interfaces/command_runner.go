package interfaces

import "context"

// ICommandRunner executes run-to-completion external commands.
// The bootstrap shells out through this so tests can substitute a mock.
type ICommandRunner interface {
	// Run executes name with args in dir and returns combined output.
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}
