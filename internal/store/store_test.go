package store

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trailmark/routeplanner/internal/engine"
	"github.com/trailmark/routeplanner/internal/format"
	"github.com/trailmark/routeplanner/internal/routing"
	"github.com/trailmark/routeplanner/pkg/core"
)

// routerFunc adapts a function to routing.Router.
type routerFunc func(ctx context.Context, wps []core.Point) ([]core.Point, error)

func (f routerFunc) ComputeRoute(ctx context.Context, wps []core.Point) ([]core.Point, error) {
	return f(ctx, wps)
}

// straightRouter returns the waypoints unchanged as the path.
var straightRouter = routerFunc(func(_ context.Context, wps []core.Point) ([]core.Point, error) {
	out := make([]core.Point, len(wps))
	copy(out, wps)
	return out, nil
})

func p(lat, lon float64) core.Point {
	return core.Point{Lat: lat, Lon: lon}
}

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	return newStoreWith(t, straightRouter, opts...)
}

func newStoreWith(t *testing.T, router routing.Router, opts ...Option) *Store {
	t.Helper()
	s := New(router, opts...)
	t.Cleanup(s.Close)
	return s
}

// savedRoute creates and saves a route with one routing segment.
func savedRoute(t *testing.T, s *Store, name string, wps ...core.Point) int {
	t.Helper()
	ctx := context.Background()
	id, err := s.CreateRoute()
	require.NoError(t, err)
	for _, wp := range wps {
		require.NoError(t, s.AddWaypoint(ctx, wp))
	}
	attrs := core.DefaultAttributes()
	attrs.Name = name
	require.NoError(t, s.SetAttributes(attrs))
	require.NoError(t, s.SaveEditing())
	require.NoError(t, s.CloseDetail())
	return id
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "browsing", Browsing.String())
	assert.Equal(t, "editing", Editing.String())
	assert.Equal(t, "viewing-detail", ViewingDetail.String())
	assert.Equal(t, "State(7)", State(7).String())
}

func TestCreateRoute(t *testing.T) {
	s := newStore(t)

	id, err := s.CreateRoute()
	require.NoError(t, err)
	assert.Equal(t, Editing, s.State())

	active, ok := s.ActiveRouteID()
	assert.True(t, ok)
	assert.Equal(t, id, active)

	idx, ok := s.ActiveSegmentIndex()
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	r, err := s.Route(id)
	require.NoError(t, err)
	require.Len(t, r.Segments, 1)
	assert.Equal(t, core.ModeRouting, r.Segments[0].Mode)

	_, err = s.CreateRoute()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSaveEditing_RequiresValidSegment(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.CreateRoute()
	require.NoError(t, err)
	require.NoError(t, s.AddWaypoint(ctx, p(0, 0)))

	assert.ErrorIs(t, s.SaveEditing(), ErrNoValidSegments)
	assert.Equal(t, Editing, s.State())

	require.NoError(t, s.AddWaypoint(ctx, p(0, 1)))
	require.NoError(t, s.AddNewSegment(core.ModeManual))
	require.NoError(t, s.SaveEditing())
	assert.Equal(t, ViewingDetail, s.State())

	id, _ := s.ActiveRouteID()
	r, err := s.Route(id)
	require.NoError(t, err)
	assert.Len(t, r.Segments, 1, "empty trailing segment stripped on save")
}

func TestCancelEditing_RestoresExistingRoute(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	id := savedRoute(t, s, "A", p(0, 0), p(0, 1))

	before, err := s.Route(id)
	require.NoError(t, err)

	require.NoError(t, s.ActivateRoute(id))
	attrs := before.Attributes
	attrs.Name = "B"
	require.NoError(t, s.SetAttributes(attrs))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 2)))
	assert.True(t, s.HasChanges())

	require.NoError(t, s.CancelEditing())
	assert.Equal(t, ViewingDetail, s.State())

	after, err := s.Route(id)
	require.NoError(t, err)
	assert.Equal(t, "A", after.Attributes.Name)
	require.Len(t, after.Segments, 1)
	assert.Equal(t, before.Segments[0].Waypoints, after.Segments[0].Waypoints)
	assert.Equal(t, before.Segments[0].Geometry, after.Segments[0].Geometry)
}

func TestCancelEditing_DeletesNewRoute(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.CreateRoute()
	require.NoError(t, err)
	require.NoError(t, s.AddWaypoint(ctx, p(0, 0)))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 1)))

	require.NoError(t, s.CancelEditing())
	assert.Equal(t, Browsing, s.State())
	_, err = s.Route(id)
	assert.ErrorIs(t, err, ErrRouteNotFound)
	assert.Empty(t, s.Routes())

	_, ok := s.ActiveRouteID()
	assert.False(t, ok)
}

func TestHasChanges_CountsSegmentsBeingDrawn(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	id := savedRoute(t, s, "A", p(0, 0), p(0, 1))

	require.NoError(t, s.ActivateRoute(id))
	assert.False(t, s.HasChanges())

	require.NoError(t, s.AddNewSegment(core.ModeManual))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 5)))
	assert.True(t, s.HasChanges(), "new waypoint counts even before the segment is valid")
}

func TestHasChanges_Epsilon(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	id := savedRoute(t, s, "A", p(0, 0), p(0, 1))
	require.NoError(t, s.ActivateRoute(id))

	require.NoError(t, s.MoveWaypoint(ctx, 0, 0, p(0, 1e-7)))
	assert.False(t, s.HasChanges(), "sub-epsilon drift")

	require.NoError(t, s.MoveWaypoint(ctx, 0, 0, p(0.5, 0)))
	assert.True(t, s.HasChanges())
}

func TestSetActiveSegment_DiscardsAbandonedSegment(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.CreateRoute()
	require.NoError(t, err)
	require.NoError(t, s.AddWaypoint(ctx, p(0, 0)))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 1)))
	require.NoError(t, s.AddNewSegment(core.ModeManual))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 2)))

	r, _ := s.Route(id)
	require.Len(t, r.Segments, 2)

	require.NoError(t, s.SetActiveSegment(0))
	r, _ = s.Route(id)
	assert.Len(t, r.Segments, 1)
	idx, _ := s.ActiveSegmentIndex()
	assert.Equal(t, 0, idx)
}

func TestSetActiveSegment_ClampsAfterRemoval(t *testing.T) {
	s := newStore(t)

	id, err := s.CreateRoute()
	require.NoError(t, err)
	require.NoError(t, s.SetActiveSegment(3))

	r, _ := s.Route(id)
	require.Len(t, r.Segments, 1, "fresh segment substituted")
	assert.Empty(t, r.Segments[0].Waypoints)
	idx, _ := s.ActiveSegmentIndex()
	assert.Equal(t, 0, idx)
}

func TestAddNewSegment_DiscardsInvalidActive(t *testing.T) {
	s := newStore(t)

	id, err := s.CreateRoute()
	require.NoError(t, err)
	require.NoError(t, s.AddNewSegment(core.ModeManual))

	r, _ := s.Route(id)
	require.Len(t, r.Segments, 1)
	assert.Equal(t, core.ModeManual, r.Segments[0].Mode)
}

func TestDeleteSegment(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.CreateRoute()
	require.NoError(t, err)
	require.NoError(t, s.AddWaypoint(ctx, p(0, 0)))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 1)))

	require.NoError(t, s.DeleteSegment(0))
	r, _ := s.Route(id)
	require.Len(t, r.Segments, 1, "route never segment-less while editing")
	assert.Empty(t, r.Segments[0].Waypoints)
	assert.Equal(t, core.ModeRouting, r.Segments[0].Mode)

	assert.ErrorIs(t, s.DeleteSegment(5), engine.ErrIndexOutOfRange)
}

func TestDeleteSegment_KeepsActiveSegment(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.CreateRoute()
	require.NoError(t, err)
	require.NoError(t, s.AddWaypoint(ctx, p(0, 0)))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 1)))
	require.NoError(t, s.AddNewSegment(core.ModeManual))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 1)))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 2)))

	require.NoError(t, s.DeleteSegment(0))
	idx, _ := s.ActiveSegmentIndex()
	assert.Equal(t, 0, idx)
}

func TestSplitSegment_ShiftsActiveIndex(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.CreateRoute()
	require.NoError(t, err)
	for _, wp := range []core.Point{p(0, 0), p(0, 1), p(0, 2)} {
		require.NoError(t, s.AddWaypoint(ctx, wp))
	}
	require.NoError(t, s.AddNewSegment(core.ModeManual))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 2)))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 3)))

	require.NoError(t, s.SplitSegment(ctx, 0, 1))
	r, _ := s.Route(id)
	require.Len(t, r.Segments, 3)
	idx, _ := s.ActiveSegmentIndex()
	assert.Equal(t, 2, idx)
	assert.Equal(t, core.ModeManual, r.Segments[idx].Mode)
}

func TestInsertWaypointNear(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.CreateRoute()
	require.NoError(t, err)
	require.NoError(t, s.SetSegmentMode(ctx, 0, core.ModeManual))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 0)))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 2)))

	require.NoError(t, s.InsertWaypointNear(ctx, p(0.1, 1)))
	r, _ := s.Route(id)
	assert.Equal(t, []core.Point{p(0, 0), p(0, 1), p(0, 2)}, r.Segments[0].Waypoints)
}

func TestSetSegmentMode_UnknownMode(t *testing.T) {
	s := newStore(t)
	_, err := s.CreateRoute()
	require.NoError(t, err)
	assert.ErrorIs(t, s.SetSegmentMode(context.Background(), 0, core.Mode("teleport")), core.ErrUnknownMode)
}

func TestEditRequiresEditing(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	assert.ErrorIs(t, s.AddWaypoint(ctx, p(0, 0)), ErrInvalidState)
	assert.ErrorIs(t, s.SaveEditing(), ErrInvalidState)
	assert.ErrorIs(t, s.CancelEditing(), ErrInvalidState)
	assert.ErrorIs(t, s.SetActiveSegment(0), ErrInvalidState)
	assert.ErrorIs(t, s.StartEditingFromDetail(), ErrInvalidState)
	assert.False(t, s.HasChanges())
}

func TestDetailView(t *testing.T) {
	s := newStore(t)
	id := savedRoute(t, s, "A", p(0, 0), p(0, 1))

	require.NoError(t, s.OpenDetail(id))
	assert.Equal(t, ViewingDetail, s.State())
	assert.ErrorIs(t, s.OpenDetail(99), ErrRouteNotFound)

	require.NoError(t, s.StartEditingFromDetail())
	assert.Equal(t, Editing, s.State())
	require.NoError(t, s.SaveEditing())

	require.NoError(t, s.CloseDetail())
	assert.Equal(t, Browsing, s.State())
	assert.ErrorIs(t, s.CloseDetail(), ErrInvalidState)
}

func TestDeleteRoute(t *testing.T) {
	s := newStore(t)
	a := savedRoute(t, s, "A", p(0, 0), p(0, 1))
	b := savedRoute(t, s, "B", p(1, 0), p(1, 1))

	require.NoError(t, s.OpenDetail(a))
	require.NoError(t, s.DeleteRoute(a))
	assert.Equal(t, Browsing, s.State())

	routes := s.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, b, routes[0].ID)
	assert.ErrorIs(t, s.DeleteRoute(a), ErrRouteNotFound)
}

func TestRoutesReturnsCopies(t *testing.T) {
	s := newStore(t)
	id := savedRoute(t, s, "A", p(0, 0), p(0, 1))

	r, err := s.Route(id)
	require.NoError(t, err)
	r.Segments[0].Waypoints[0] = p(9, 9)
	r.Attributes.Name = "changed"

	again, err := s.Route(id)
	require.NoError(t, err)
	assert.Equal(t, p(0, 0), again.Segments[0].Waypoints[0])
	assert.Equal(t, "A", again.Attributes.Name)
}

func TestRoutingFailureKeepsWaypoint(t *testing.T) {
	ctx := context.Background()
	failing := routerFunc(func(context.Context, []core.Point) ([]core.Point, error) {
		return nil, routing.ErrRoutingFailed
	})
	s := New(failing)
	defer s.Close()

	id, err := s.CreateRoute()
	require.NoError(t, err)
	require.NoError(t, s.AddWaypoint(ctx, p(0, 0)))
	err = s.AddWaypoint(ctx, p(0, 1))
	assert.ErrorIs(t, err, routing.ErrRoutingFailed)

	r, _ := s.Route(id)
	assert.Len(t, r.Segments[0].Waypoints, 2)
	assert.Empty(t, r.Segments[0].Geometry)
}

func TestWaypointLimit(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, WithMaxWaypoints(2))

	_, err := s.CreateRoute()
	require.NoError(t, err)
	require.NoError(t, s.AddWaypoint(ctx, p(0, 0)))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 1)))
	assert.ErrorIs(t, s.AddWaypoint(ctx, p(0, 2)), engine.ErrWaypointLimit)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, WithMaxWaypoints(3))

	legacy := format.ImportedRoute{
		Attributes: core.Attributes{Name: "legacy"},
		Flat: []core.ModedPoint{
			{Point: p(0, 0), Mode: core.ModeRouting},
			{Point: p(0, 1), Mode: core.ModeRouting},
			{Point: p(0, 2), Mode: core.ModeRouting},
			{Point: p(0, 3), Mode: core.ModeRouting},
			{Point: p(0, 4), Mode: core.ModeManual},
		},
	}
	segmented := format.ImportedRoute{
		Attributes: core.Attributes{Name: "segmented"},
		Segments: []*core.Segment{
			{Mode: core.ModeManual, Waypoints: []core.Point{p(1, 0), p(1, 1)}},
			{Mode: core.ModeRouting, Waypoints: []core.Point{p(1, 1)}},
		},
	}
	empty := format.ImportedRoute{Flat: []core.ModedPoint{{Point: p(2, 2), Mode: core.ModeRouting}}}

	ids, err := s.Import(ctx, []format.ImportedRoute{legacy, segmented, empty})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	r, err := s.Route(ids[0])
	require.NoError(t, err)
	assert.Equal(t, "legacy", r.Title())
	assert.Equal(t, core.RouteTypeHiking, r.Attributes.RouteType)
	require.Len(t, r.Segments, 3)
	assert.Equal(t, []core.Point{p(0, 0), p(0, 1), p(0, 2)}, r.Segments[0].Geometry)
	assert.Equal(t, []core.Point{p(0, 2), p(0, 3)}, r.Segments[1].Waypoints)
	assert.Equal(t, core.ModeManual, r.Segments[2].Mode)

	r, err = s.Route(ids[1])
	require.NoError(t, err)
	require.Len(t, r.Segments, 1, "invalid imported segment stripped")
	assert.Equal(t, r.Segments[0].Waypoints, r.Segments[0].Geometry)
}

func TestImport_NotWhileEditing(t *testing.T) {
	s := newStore(t)
	_, err := s.CreateRoute()
	require.NoError(t, err)
	_, err = s.Import(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSearch(t *testing.T) {
	s := newStore(t)
	savedRoute(t, s, "Westweg", p(0, 0), p(0, 1))
	savedRoute(t, s, "Ostweg", p(1, 0), p(1, 1))
	savedRoute(t, s, "Rheinsteig", p(2, 0), p(2, 1))

	got := s.Search(Filter{Query: "WEG"})
	require.Len(t, got, 2)
	assert.Equal(t, "Westweg", got[0].Attributes.Name)
	assert.Equal(t, "Ostweg", got[1].Attributes.Name)

	assert.Len(t, s.Search(Filter{}), 3)
	assert.Empty(t, s.Search(Filter{RouteType: core.RouteTypeBicycle}))
	assert.Len(t, s.Search(Filter{Query: "steig", RouteType: core.RouteTypeHiking}), 1)
}

type identityProjector struct{}

func (identityProjector) Project(pt core.Point) (float64, float64) {
	return pt.Lon, pt.Lat
}

func TestRoutesAt(t *testing.T) {
	s := newStore(t)
	far := savedRoute(t, s, "far", p(0.5, 0), p(0.5, 1))
	near := savedRoute(t, s, "near", p(0.1, 0), p(0.1, 1))

	hits := s.RoutesAt(p(0, 0.5), 1, identityProjector{})
	require.Len(t, hits, 2)
	assert.Equal(t, near, hits[0].Route.ID)
	assert.Equal(t, far, hits[1].Route.ID)

	assert.Empty(t, s.RoutesAt(p(5, 5), 1, identityProjector{}))
}

func TestSubscribe(t *testing.T) {
	s := newStore(t)
	events, stop := s.Subscribe()

	id, err := s.CreateRoute()
	require.NoError(t, err)

	var got []Event
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case evt := <-events:
			got = append(got, evt)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	assert.Equal(t, Event{Type: RouteCreated, RouteID: id, State: Browsing}, got[0])
	assert.Equal(t, Event{Type: StateChanged, RouteID: id, State: Editing}, got[1])

	stop()
	_, open := <-events
	assert.False(t, open)
}

func TestCloseClosesSubscribers(t *testing.T) {
	s := New(straightRouter)
	events, _ := s.Subscribe()
	s.Close()
	_, open := <-events
	assert.False(t, open)

	late, _ := s.Subscribe()
	_, open = <-late
	assert.False(t, open)
}

func TestStaleResultIsNotAnError(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	slow := routerFunc(func(_ context.Context, wps []core.Point) ([]core.Point, error) {
		started <- struct{}{}
		<-release
		return wps, nil
	})
	s := New(slow)
	defer s.Close()

	_, err := s.CreateRoute()
	require.NoError(t, err)
	require.NoError(t, s.SetSegmentMode(ctx, 0, core.ModeManual))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 0)))
	require.NoError(t, s.SetSegmentMode(ctx, 0, core.ModeRouting))

	done := make(chan error, 1)
	go func() { done <- s.AddWaypoint(ctx, p(0, 1)) }()
	<-started

	// the user abandons the segment while routing is in flight
	require.NoError(t, s.DeleteSegment(0))
	close(release)

	select {
	case err := <-done:
		assert.False(t, errors.Is(err, engine.ErrStaleResult))
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("edit did not finish")
	}
}

func TestSetSegmentMode_SupersededConversionFails(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	slow := routerFunc(func(_ context.Context, wps []core.Point) ([]core.Point, error) {
		started <- struct{}{}
		<-release
		return wps, nil
	})
	s := New(slow)
	defer s.Close()

	id, err := s.CreateRoute()
	require.NoError(t, err)
	require.NoError(t, s.SetSegmentMode(ctx, 0, core.ModeManual))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 0)))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 1)))

	done := make(chan error, 1)
	go func() { done <- s.SetSegmentMode(ctx, 0, core.ModeRouting) }()
	<-started

	require.NoError(t, s.AddWaypoint(ctx, p(0, 2)))
	close(release)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, engine.ErrConversionSuperseded)
	case <-time.After(time.Second):
		t.Fatal("mode change did not finish")
	}
	r, err := s.Route(id)
	require.NoError(t, err)
	assert.Equal(t, core.ModeManual, r.Segments[0].Mode)
	assert.Len(t, r.Segments[0].Waypoints, 3)
}

func TestDeleteSegment_ReleasesContinuitySnap(t *testing.T) {
	ctx := context.Background()
	offset := routerFunc(func(_ context.Context, wps []core.Point) ([]core.Point, error) {
		out := make([]core.Point, len(wps))
		copy(out, wps)
		out[0].Lat += 0.001
		return out, nil
	})
	s := newStoreWith(t, offset)

	id, err := s.CreateRoute()
	require.NoError(t, err)
	require.NoError(t, s.SetSegmentMode(ctx, 0, core.ModeManual))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 0)))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 1)))
	require.NoError(t, s.AddNewSegment(core.ModeRouting))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 1)))
	require.NoError(t, s.AddWaypoint(ctx, p(0, 2)))

	r, _ := s.Route(id)
	require.Equal(t, p(0.001, 1), r.Segments[0].Geometry[1], "snapped to routed start")

	require.NoError(t, s.DeleteSegment(1))
	r, _ = s.Route(id)
	require.Len(t, r.Segments, 1)
	assert.Equal(t, r.Segments[0].Waypoints, r.Segments[0].Geometry)
}

func TestDropStale(t *testing.T) {
	boom := errors.New("boom")

	assert.NoError(t, dropStale(nil))
	assert.NoError(t, dropStale(engine.ErrStaleResult))
	assert.NoError(t, dropStale(errors.Join(engine.ErrStaleResult)))
	assert.Same(t, boom, dropStale(boom))

	err := dropStale(errors.Join(engine.ErrStaleResult, boom))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, engine.ErrStaleResult)
}

// statusHandler reads the store status for every record, as a context log
// handler would.
type statusHandler struct {
	store *Store
	seen  []Status
}

func (h *statusHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *statusHandler) Handle(context.Context, slog.Record) error {
	if h.store != nil {
		h.seen = append(h.seen, h.store.Status())
	}
	return nil
}
func (h *statusHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *statusHandler) WithGroup(string) slog.Handler      { return h }

func TestStatus_ReadableFromLogHandler(t *testing.T) {
	h := &statusHandler{}
	s := New(straightRouter, WithLogger(slog.New(h)))
	t.Cleanup(s.Close)
	h.store = s

	assert.Equal(t, Status{State: Browsing}, s.Status())

	id := savedRoute(t, s, "Ridge", p(0, 0), p(0, 1))
	assert.Equal(t, Status{State: Browsing}, s.Status())
	assert.NotEmpty(t, h.seen)

	require.NoError(t, s.OpenDetail(id))
	assert.Equal(t, Status{State: ViewingDetail, RouteID: id}, s.Status())

	require.NoError(t, s.ActivateRoute(id))
	assert.Equal(t, Status{State: Editing, RouteID: id}, s.Status())
}
