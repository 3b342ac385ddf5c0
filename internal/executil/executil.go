// Package executil wraps external binary invocation (ifupdown2, ip,
// bridge, tc, iptables, FRR reload) for the applier and the SDN
// drivers. Grounded on orbstack-swift-nio's scon/util/exec.go — the
// only subprocess-invocation style anywhere in the pack — generalized
// to carry a context.Context (so the applier's cancellation-at-
// Validated boundary, §5, can bound a hung subprocess) and to return a
// structured model.ExecError instead of a formatted string.
package executil

import (
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/pve-project/pve-network-go/internal/model"
)

// Runner invokes external binaries; production code uses
// *CommandRunner, tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, err error)
}

// CommandRunner runs real subprocesses via os/exec.
type CommandRunner struct{}

// Run executes name with args, returning its stdout on success.
// A non-zero exit becomes a *model.ExecError carrying stderr verbatim.
func (CommandRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	if ctx.Err() != nil {
		return "", model.NewError(model.KindCancelled, name+" cancelled", ctx.Err())
	}

	exitCode := -1
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	}
	return "", errors.Wrap(&model.ExecError{
		Command:  name,
		Args:     args,
		ExitCode: exitCode,
		Stderr:   stderr.String(),
	}, "exec")
}
