package antjob

import (
	"context"
	"errors"
	"io"
	"os/exec"

	"github.com/rotisserie/eris"
)

// RunCommand launches the assembled command, streams its combined output
// through the annotator into the sink and blocks until the process ends.
// It returns the exit code of the process; a process that couldn't be spawned
// or streamed is reported as an error instead. No timeout is enforced here.
// Cancelling the context kills the process and unblocks the call right away,
// even while surviving descendants keep the output pipe open.
func RunCommand(ctx context.Context, cmd *Command, sink io.Writer) (int, error) {
	annotator := NewAnnotator(sink)
	defer func() {
		flushErr := annotator.ForceEOL()
		if flushErr != nil {
			log(ctx).Warn().Err(flushErr).Msg("failed to flush the console annotator")
		}
	}()

	proc := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	proc.Dir = cmd.Dir
	proc.Env = EnvSlice(cmd.Env)
	proc.Stdout = annotator
	proc.Stderr = annotator

	err := proc.Start()
	if err != nil {
		return -1, eris.Wrapf(err, "failed to launch %s", cmd.Argv[0])
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- proc.Wait() }()

	select {
	case <-ctx.Done():
		// The process itself is killed on cancellation, but Wait stays blocked
		// until every descendant that inherited the output pipe has exited.
		// Don't wait for them.
		return -1, eris.Wrap(ctx.Err(), "the build was cancelled")
	case err = <-waitCh:
	}

	if err != nil {
		if ctx.Err() != nil {
			return -1, eris.Wrap(ctx.Err(), "the build was cancelled")
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}

		return -1, eris.Wrap(err, "failed while waiting for the build process")
	}

	return 0, nil
}
