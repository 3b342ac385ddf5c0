// Package drivertest is a reusable conformance suite every ZoneDriver
// and ControllerDriver implementation must pass. Adapted from
// original_source/pve-network-rs/crates/net-test/src/contract_tests.rs
// the same way internal/ipam/contracttest adapts it for allocators:
// re-expressed as a table of behavioral assertions run against any
// constructed driver, rather than the Rust suite's Perl-vs-Rust diff.
package drivertest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pve-project/pve-network-go/internal/model"
	"github.com/pve-project/pve-network-go/internal/sdn/drivers"
)

// RunZoneDriver exercises the shared ZoneDriver invariants: Render is
// deterministic given the same inputs, and a valid config produces at
// least one non-empty artifact.
func RunZoneDriver(t *testing.T, driver drivers.ZoneDriver, zone *model.Zone, vnets []*model.VNet) {
	t.Run("ValidateAcceptsTheFixture", func(t *testing.T) {
		require.NoError(t, driver.Validate(zone, vnets))
	})

	t.Run("RenderProducesNonEmptyArtifacts", func(t *testing.T) {
		artifacts, err := driver.Render(zone, vnets)
		require.NoError(t, err)
		assert.NotEmpty(t, artifacts)
		for name, content := range artifacts {
			assert.NotEmpty(t, content, "artifact %q should not be empty", name)
		}
	})

	t.Run("RenderIsDeterministic", func(t *testing.T) {
		first, err := driver.Render(zone, vnets)
		require.NoError(t, err)
		second, err := driver.Render(zone, vnets)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

// RunControllerDriver exercises the shared ControllerDriver invariants.
func RunControllerDriver(t *testing.T, driver drivers.ControllerDriver, ctrl *model.Controller) {
	t.Run("ValidateAcceptsTheFixture", func(t *testing.T) {
		require.NoError(t, driver.Validate(ctrl))
	})

	t.Run("RenderProducesNonEmptyArtifacts", func(t *testing.T) {
		artifacts, err := driver.Render(ctrl)
		require.NoError(t, err)
		assert.NotEmpty(t, artifacts)
		for name, content := range artifacts {
			assert.NotEmpty(t, content, "artifact %q should not be empty", name)
		}
	})

	t.Run("RenderIsDeterministic", func(t *testing.T) {
		first, err := driver.Render(ctrl)
		require.NoError(t, err)
		second, err := driver.Render(ctrl)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
