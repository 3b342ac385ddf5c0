package containernet_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pve-project/pve-network-go/internal/containernet"
)

type recordingHook struct {
	name string
	log  *[]string
}

func (h recordingHook) Name() string { return h.name }
func (h recordingHook) OnLifecycleEvent(container string, event containernet.LifecycleEvent, interfaces int) error {
	*h.log = append(*h.log, h.name+":"+string(event))
	return nil
}
func (h recordingHook) OnConfigChange(container string, oldCount, newCount int) error {
	return nil
}

type failingHook struct{}

func (failingHook) Name() string { return "failing" }
func (failingHook) OnLifecycleEvent(container string, event containernet.LifecycleEvent, interfaces int) error {
	return errors.New("boom")
}
func (failingHook) OnConfigChange(container string, oldCount, newCount int) error { return errors.New("boom") }

func TestRegisterAndListHooks(t *testing.T) {
	h := containernet.NewHooks()
	var log []string
	h.Register("logger", recordingHook{name: "logger", log: &log})

	assert.Contains(t, h.List(), "logger")
	h.Unregister("logger")
	assert.NotContains(t, h.List(), "logger")
}

func TestRunLifecycleLogsEachHookAndOneFailureDoesNotStopOthers(t *testing.T) {
	h := containernet.NewHooks()
	var log []string
	h.Register("logger", recordingHook{name: "logger", log: &log})
	h.Register("failing", failingHook{})

	h.RunLifecycle("100", containernet.EventContainerStarted, 2)

	assert.Contains(t, log, "logger:ContainerStarted")

	history := h.History("100")
	require.Len(t, history, 2)

	var sawFailure, sawSuccess bool
	for _, exec := range history {
		switch exec.HookName {
		case "failing":
			sawFailure = exec.Result == containernet.ResultFailed
		case "logger":
			sawSuccess = exec.Result == containernet.ResultSuccess
		}
	}
	assert.True(t, sawFailure)
	assert.True(t, sawSuccess)
}

func TestStatsAggregatesPerHook(t *testing.T) {
	h := containernet.NewHooks()
	var log []string
	h.Register("logger", recordingHook{name: "logger", log: &log})

	for i := 0; i < 3; i++ {
		h.RunLifecycle("100", containernet.EventContainerStarted, 1)
	}

	stats := h.Stats()
	loggerStats, ok := stats["logger"]
	require.True(t, ok)
	assert.Equal(t, 3, loggerStats.TotalExecutions)
	assert.Equal(t, 3, loggerStats.SuccessfulExecutions)
	assert.Equal(t, 0, loggerStats.FailedExecutions)
}

func TestClearHistoryScopedToContainer(t *testing.T) {
	h := containernet.NewHooks()
	var log []string
	h.Register("logger", recordingHook{name: "logger", log: &log})

	h.RunLifecycle("100", containernet.EventContainerStarted, 1)
	h.RunLifecycle("101", containernet.EventContainerStarted, 1)

	h.ClearHistory("100")
	assert.Empty(t, h.History("100"))
	assert.Len(t, h.History("101"), 1)
}
