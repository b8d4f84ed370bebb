package handlers

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trailmark/routeplanner/internal/dispatcher"
	"github.com/trailmark/routeplanner/internal/engine"
	"github.com/trailmark/routeplanner/internal/logging"
	"github.com/trailmark/routeplanner/internal/store"
	"github.com/trailmark/routeplanner/pkg/core"
)

type straightRouter struct{}

func (straightRouter) ComputeRoute(_ context.Context, wps []core.Point) ([]core.Point, error) {
	return append([]core.Point(nil), wps...), nil
}

type logEntry struct {
	function, data, level string
}

func newTestService(t *testing.T) (*Service, *dispatcher.Dispatcher, *store.Store, *[]logEntry) {
	t.Helper()
	st := store.New(straightRouter{})
	t.Cleanup(st.Close)

	svc := NewService(Dependencies{Store: st, LogManager: logging.NewSlogManager()})
	var (
		mu   sync.Mutex
		logs []logEntry
	)
	svc.writeLogFunc = func(functionName, data, level string) {
		mu.Lock()
		defer mu.Unlock()
		logs = append(logs, logEntry{functionName, data, level})
	}

	d, err := dispatcher.New(slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(d.Close)
	svc.Register(d)
	return svc, d, st, &logs
}

func dispatch(t *testing.T, d *dispatcher.Dispatcher, cmd string, args ...string) (any, error) {
	t.Helper()
	return d.Dispatch(context.Background(), dispatcher.Event{Command: cmd, Args: args})
}

func mustDispatch(t *testing.T, d *dispatcher.Dispatcher, cmd string, args ...string) any {
	t.Helper()
	res, err := dispatch(t, d, cmd, args...)
	require.NoError(t, err, cmd)
	return res
}

func TestRegister_AllIntents(t *testing.T) {
	_, d, _, _ := newTestService(t)
	for _, cmd := range []string{
		"route.create", "route.activate", "route.detail.open", "route.detail.close",
		"route.edit", "route.save", "route.cancel", "route.delete", "route.attr",
		"segment.activate", "segment.add", "segment.delete", "segment.mode",
		"segment.reverse", "segment.split", "segment.recalculate",
		"waypoint.add", "waypoint.insert", "waypoint.move", "waypoint.delete",
	} {
		assert.True(t, d.HasHandler(cmd), cmd)
	}
	assert.True(t, d.HasHandler(StoreEventCommand))
}

func TestEditSession(t *testing.T) {
	_, d, st, logs := newTestService(t)

	id := mustDispatch(t, d, "route.create")
	assert.Equal(t, 1, id)
	require.NotEmpty(t, *logs)
	assert.Equal(t, "route.create", (*logs)[0].function)

	mustDispatch(t, d, "waypoint.add", "48.0,8.0")
	mustDispatch(t, d, "waypoint.add", "48.0,8.2")
	mustDispatch(t, d, "waypoint.insert", "48.0,8.1", "1")
	mustDispatch(t, d, "route.attr", "name", "Westweg")
	mustDispatch(t, d, "route.attr", "type", "bicycle")
	mustDispatch(t, d, "route.attr", "color", "Blue")
	mustDispatch(t, d, "segment.add", "manual")
	mustDispatch(t, d, "waypoint.add", "48.0,8.2")
	mustDispatch(t, d, "waypoint.add", "48.1,8.2")
	mustDispatch(t, d, "segment.split", "0", "1")
	mustDispatch(t, d, "waypoint.move", "2", "1", "48.2,8.2")

	saved := mustDispatch(t, d, "route.save")
	assert.Equal(t, 1, saved)
	assert.Equal(t, store.ViewingDetail, st.State())

	r, err := st.Route(1)
	require.NoError(t, err)
	assert.Equal(t, "Westweg", r.Attributes.Name)
	assert.Equal(t, core.RouteTypeBicycle, r.Attributes.RouteType)
	assert.Equal(t, core.ColorBlue, r.Attributes.Color)
	require.Len(t, r.Segments, 3)
	assert.Equal(t, core.ModeManual, r.Segments[2].Mode)
	assert.Equal(t, core.Point{Lat: 48.2, Lon: 8.2}, r.Segments[2].Waypoints[1])
}

func TestDetailAndDelete(t *testing.T) {
	_, d, st, _ := newTestService(t)

	mustDispatch(t, d, "route.create")
	mustDispatch(t, d, "waypoint.add", "1,1")
	mustDispatch(t, d, "waypoint.add", "1,2")
	mustDispatch(t, d, "route.save")
	mustDispatch(t, d, "route.detail.close")
	mustDispatch(t, d, "route.detail.open", "1")
	mustDispatch(t, d, "route.edit")
	mustDispatch(t, d, "segment.mode", "0", "manual")
	mustDispatch(t, d, "segment.reverse", "0")
	mustDispatch(t, d, "route.cancel")
	assert.Equal(t, store.ViewingDetail, st.State())

	r, err := st.Route(1)
	require.NoError(t, err)
	assert.Equal(t, core.ModeRouting, r.Segments[0].Mode, "cancel restored")

	mustDispatch(t, d, "route.delete", "1")
	assert.Empty(t, st.Routes())
}

func TestSaveWithoutValidSegmentLogsWarning(t *testing.T) {
	_, d, _, logs := newTestService(t)

	mustDispatch(t, d, "route.create")
	_, err := dispatch(t, d, "route.save")
	assert.ErrorIs(t, err, store.ErrNoValidSegments)

	last := (*logs)[len(*logs)-1]
	assert.Equal(t, "WARN", last.level)
	assert.Equal(t, "route.save", last.function)
}

func TestArgumentErrors(t *testing.T) {
	_, d, _, _ := newTestService(t)
	mustDispatch(t, d, "route.create")

	tests := []struct {
		cmd  string
		args []string
		want error
	}{
		{"waypoint.add", nil, ErrMissingArgs},
		{"waypoint.add", []string{"north"}, ErrInvalidArg},
		{"waypoint.move", []string{"0", "x", "1,1"}, ErrInvalidArg},
		{"segment.mode", []string{"0", "teleport"}, ErrInvalidArg},
		{"segment.add", []string{"teleport"}, ErrInvalidArg},
		{"route.attr", []string{"name"}, ErrMissingArgs},
		{"route.attr", []string{"height", "3"}, ErrUnknownAttribute},
		{"route.attr", []string{"type", "skiing"}, ErrInvalidArg},
		{"route.activate", []string{"one"}, ErrInvalidArg},
		{"segment.split", []string{"0", "5"}, engine.ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			_, err := dispatch(t, d, tt.cmd, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAttributeNeedsEditing(t *testing.T) {
	_, d, _, _ := newTestService(t)
	_, err := dispatch(t, d, "route.attr", "name", "x")
	assert.ErrorIs(t, err, store.ErrInvalidState)
}

func TestQuotedAndKeyValueArgs(t *testing.T) {
	_, d, st, _ := newTestService(t)
	id := mustDispatch(t, d, "route.create")

	mustDispatch(t, d, "waypoint.add", `"48.0,8.0"`)
	mustDispatch(t, d, "waypoint.add", " 48.0,8.1 ")
	mustDispatch(t, d, "route.attr", `name="The ""Ridge"""`)
	mustDispatch(t, d, "route.attr", `"ref"`, `"E1"`)
	mustDispatch(t, d, "route.save")

	r, err := st.Route(id.(int))
	require.NoError(t, err)
	assert.Equal(t, `The "Ridge"`, r.Attributes.Name)
	assert.Equal(t, "E1", r.Attributes.Ref)
	assert.Len(t, r.Segments[0].Waypoints, 2)
}

func TestInsertWithoutPositionUsesNearest(t *testing.T) {
	_, d, st, _ := newTestService(t)

	mustDispatch(t, d, "route.create")
	mustDispatch(t, d, "segment.mode", "0", "manual")
	mustDispatch(t, d, "waypoint.add", "0,0")
	mustDispatch(t, d, "waypoint.add", "0,2")
	mustDispatch(t, d, "waypoint.insert", "0.1,1")

	r, err := st.Route(1)
	require.NoError(t, err)
	assert.Equal(t, []core.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 2}}, r.Segments[0].Waypoints)
}

func TestForward_RecordsStoreEvents(t *testing.T) {
	svc, d, _, logs := newTestService(t)
	ctx, stop := context.WithCancel(context.Background())
	done := svc.Forward(ctx, d)

	mustDispatch(t, d, "route.create")
	mustDispatch(t, d, "waypoint.add", "1,1")
	mustDispatch(t, d, "waypoint.add", "1,2")
	mustDispatch(t, d, "route.save")

	stop()
	require.NoError(t, <-done)
	d.Close()

	var events []logEntry
	for _, l := range *logs {
		if l.function == StoreEventCommand {
			events = append(events, l)
		}
	}
	require.NotEmpty(t, events)
	assert.Contains(t, events, logEntry{StoreEventCommand, "route.created route=1 state=browsing", "INFO"})
	assert.Equal(t, "DEBUG", events[len(events)-1].level)
}

func TestForward_StopsWhenStoreCloses(t *testing.T) {
	svc, d, st, _ := newTestService(t)
	done := svc.Forward(context.Background(), d)

	st.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("forwarding did not stop")
	}
}

func TestRecordStoreEvent_NeedsArgs(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.RecordStoreEvent(context.Background(), dispatcher.Event{Command: StoreEventCommand, Args: []string{"route.updated"}})
	assert.ErrorIs(t, err, ErrMissingArgs)
}
