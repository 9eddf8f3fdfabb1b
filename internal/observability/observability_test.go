package observability_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagflow/dagflow/internal/observability"
)

func TestEventBusUnconditionalSubscribe(t *testing.T) {
	bus := observability.NewEventBus(nil)
	var got map[string]any
	bus.Subscribe(observability.EventTaskStarted, func(payload map[string]any) {
		got = payload
	})
	bus.Emit(observability.EventTaskStarted, map[string]any{"node": "square:1"})
	assert.Equal(t, "square:1", got["node"])
}

func TestEventBusFilteredSubscribe(t *testing.T) {
	bus := observability.NewEventBus(nil)
	var fired int
	err := bus.SubscribeFiltered(observability.EventTaskFailed, `"critical" in task.tags`, func(payload map[string]any) {
		fired++
	})
	require.NoError(t, err)

	bus.Emit(observability.EventTaskFailed, map[string]any{
		"task": map[string]any{"tags": []any{"io"}},
	})
	assert.Equal(t, 0, fired)

	bus.Emit(observability.EventTaskFailed, map[string]any{
		"task": map[string]any{"tags": []any{"critical"}},
	})
	assert.Equal(t, 1, fired)
}

func TestEventBusSwallowsHandlerPanic(t *testing.T) {
	var lines []string
	bus := observability.NewEventBus(func(line string) {
		lines = append(lines, line)
	})
	bus.Subscribe("x", func(map[string]any) { panic("boom") })
	assert.NotPanics(t, func() {
		bus.Emit("x", map[string]any{})
	})
	assert.Len(t, lines, 1)
}

func TestMetricsCollectorCounters(t *testing.T) {
	m := observability.NewMetricsCollector(100)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncTasksSucceeded()
			m.ObserveTaskDuration(10 * time.Millisecond)
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, int64(5), snap.TasksSucceeded)
	assert.Greater(t, snap.DurationP50Ms, 0.0)
}
