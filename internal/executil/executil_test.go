package executil_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pve-project/pve-network-go/internal/executil"
	"github.com/pve-project/pve-network-go/internal/model"
)

func TestRunSucceeds(t *testing.T) {
	var r executil.CommandRunner
	out, err := r.Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
}

func TestRunNonZeroExitIsExecError(t *testing.T) {
	var r executil.CommandRunner
	_, err := r.Run(context.Background(), "false")
	require.Error(t, err)
	var execErr *model.ExecError
	require.ErrorAs(t, err, &execErr)
	assert.NotEqual(t, 0, execErr.ExitCode)
}
