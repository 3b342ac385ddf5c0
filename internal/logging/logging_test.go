package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pve-project/pve-network-go/internal/logging"
)

func TestNewBuildsLoggerAtDefaultLevel(t *testing.T) {
	log, err := logging.New(logging.Options{})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := logging.New(logging.Options{Level: "not-a-level"})
	assert.Error(t, err)
}

func TestNewDevelopmentModeBuilds(t *testing.T) {
	log, err := logging.New(logging.Options{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNopDiscardsWithoutPanicking(t *testing.T) {
	log := logging.Nop()
	log.Infow("discarded", "key", "value")
}
