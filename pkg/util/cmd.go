/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package util

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/pkg/errors"
)

// DefaultCommandTimeout bounds a single metric command invocation so that a
// hanging command can never block the collection loop past a phase
// transition.
const DefaultCommandTimeout = 30 * time.Second

// RunCommand executes a shell command line and returns its stdout. Pipes and
// other shell syntax are allowed, the line is handed to "sh -c". A non-zero
// exit or an expired timeout yields an error carrying the captured stderr.
func RunCommand(command string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return stdout.String(), errors.Errorf("command timed out after %s: %s", timeout, command)
	}
	if err != nil {
		return stdout.String(), errors.Wrapf(err, "command failed: %s, stderr: %s", command, stderr.String())
	}
	return stdout.String(), nil
}
