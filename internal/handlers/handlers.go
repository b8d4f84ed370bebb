package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/trailmark/routeplanner/internal/dispatcher"
	"github.com/trailmark/routeplanner/internal/geo"
	"github.com/trailmark/routeplanner/internal/logging"
	"github.com/trailmark/routeplanner/internal/store"
	"github.com/trailmark/routeplanner/internal/util"
	"github.com/trailmark/routeplanner/pkg/core"
)

var (
	// ErrMissingArgs is returned when an intent has too few arguments.
	ErrMissingArgs = errors.New("missing arguments")
	// ErrInvalidArg is returned when an argument cannot be parsed.
	ErrInvalidArg = errors.New("invalid argument")
	// ErrUnknownAttribute is returned by route.attr for unknown keys.
	ErrUnknownAttribute = errors.New("unknown attribute")
)

// StoreEventCommand carries store change notifications from Forward to
// RecordStoreEvent.
const StoreEventCommand = "store.event"

const storeEventBuffer = 64

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Store      *store.Store
	LogManager *logging.SlogManager
}

// Service translates edit intents into store calls.
type Service struct {
	deps         Dependencies
	writeLogFunc func(functionName, data, level string)
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	s := &Service{deps: deps}
	s.writeLogFunc = func(functionName, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(functionName, data, level)
		}
	}
	return s
}

func (s *Service) writeLog(functionName, data, level string) {
	s.writeLogFunc(functionName, data, level)
}

// Register binds every intent command to d.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	intents := map[string]dispatcher.HandlerFunc{
		"route.create":        s.CreateRoute,
		"route.activate":      s.ActivateRoute,
		"route.detail.open":   s.OpenDetail,
		"route.detail.close":  s.CloseDetail,
		"route.edit":          s.EditFromDetail,
		"route.save":          s.SaveRoute,
		"route.cancel":        s.CancelRoute,
		"route.delete":        s.DeleteRoute,
		"route.attr":          s.SetAttribute,
		"segment.activate":    s.ActivateSegment,
		"segment.add":         s.AddSegment,
		"segment.delete":      s.DeleteSegment,
		"segment.mode":        s.SetSegmentMode,
		"segment.reverse":     s.ReverseSegment,
		"segment.split":       s.SplitSegment,
		"segment.recalculate": s.RecalculateSegment,
		"waypoint.add":        s.AddWaypoint,
		"waypoint.insert":     s.InsertWaypoint,
		"waypoint.move":       s.MoveWaypoint,
		"waypoint.delete":     s.DeleteWaypoint,
	}
	for cmd, h := range intents {
		d.Register(cmd, h, dispatcher.Logged())
	}
	d.Register(StoreEventCommand, s.RecordStoreEvent,
		dispatcher.Buffered(storeEventBuffer),
		dispatcher.Blocking(),
	)
}

func requireArgs(e dispatcher.Event, n int) error {
	if len(e.Args) < n {
		return fmt.Errorf("%w: %s needs %d, got %d", ErrMissingArgs, e.Command, n, len(e.Args))
	}
	return nil
}

func intArg(e dispatcher.Event, i int) (int, error) {
	v, err := strconv.Atoi(util.Unquote(e.Args[i]))
	if err != nil {
		return 0, fmt.Errorf("%w: %s arg %d: %w", ErrInvalidArg, e.Command, i, err)
	}
	return v, nil
}

func pointArg(e dispatcher.Event, i int) (core.Point, error) {
	p, err := geo.ParsePoint(util.Unquote(e.Args[i]))
	if err != nil {
		return core.Point{}, fmt.Errorf("%w: %s arg %d: %w", ErrInvalidArg, e.Command, i, err)
	}
	return p, nil
}

func modeArg(e dispatcher.Event, i int) (core.Mode, error) {
	m, err := core.ParseMode(util.Unquote(e.Args[i]))
	if err != nil {
		return "", fmt.Errorf("%w: %s arg %d: %w", ErrInvalidArg, e.Command, i, err)
	}
	return m, nil
}

// withID runs fn with the route id from the first argument.
func withID(e dispatcher.Event, fn func(id int) error) (any, error) {
	if err := requireArgs(e, 1); err != nil {
		return nil, err
	}
	id, err := intArg(e, 0)
	if err != nil {
		return nil, err
	}
	return id, fn(id)
}

// CreateRoute handles route.create and returns the new id.
func (s *Service) CreateRoute(_ context.Context, e dispatcher.Event) (any, error) {
	id, err := s.deps.Store.CreateRoute()
	if err != nil {
		return nil, err
	}
	s.writeLog(e.Command, fmt.Sprintf("created route %d", id), "INFO")
	return id, nil
}

// ActivateRoute handles route.activate <id>.
func (s *Service) ActivateRoute(_ context.Context, e dispatcher.Event) (any, error) {
	return withID(e, s.deps.Store.ActivateRoute)
}

// OpenDetail handles route.detail.open <id>.
func (s *Service) OpenDetail(_ context.Context, e dispatcher.Event) (any, error) {
	return withID(e, s.deps.Store.OpenDetail)
}

// CloseDetail handles route.detail.close.
func (s *Service) CloseDetail(_ context.Context, _ dispatcher.Event) (any, error) {
	return nil, s.deps.Store.CloseDetail()
}

// EditFromDetail handles route.edit.
func (s *Service) EditFromDetail(_ context.Context, _ dispatcher.Event) (any, error) {
	return nil, s.deps.Store.StartEditingFromDetail()
}

// SaveRoute handles route.save.
func (s *Service) SaveRoute(_ context.Context, e dispatcher.Event) (any, error) {
	if err := s.deps.Store.SaveEditing(); err != nil {
		s.writeLog(e.Command, err.Error(), "WARN")
		return nil, err
	}
	id, _ := s.deps.Store.ActiveRouteID()
	return id, nil
}

// CancelRoute handles route.cancel.
func (s *Service) CancelRoute(_ context.Context, _ dispatcher.Event) (any, error) {
	return nil, s.deps.Store.CancelEditing()
}

// DeleteRoute handles route.delete <id>.
func (s *Service) DeleteRoute(_ context.Context, e dispatcher.Event) (any, error) {
	return withID(e, s.deps.Store.DeleteRoute)
}

// SetAttribute handles route.attr <key> <value> (or key=value) on the route
// being edited.
func (s *Service) SetAttribute(_ context.Context, e dispatcher.Event) (any, error) {
	key, value, err := attrArgs(e)
	if err != nil {
		return nil, err
	}
	id, ok := s.deps.Store.ActiveRouteID()
	if !ok {
		return nil, store.ErrInvalidState
	}
	r, err := s.deps.Store.Route(id)
	if err != nil {
		return nil, err
	}

	attrs := r.Attributes
	switch key {
	case "name":
		attrs.Name = value
	case "ref":
		attrs.Ref = value
	case "symbol":
		attrs.Symbol = value
	case "wikidata":
		attrs.Wikidata = value
	case "customData":
		attrs.CustomData = value
	case "customColor":
		attrs.CustomColor = value
	case "color":
		attrs.Color, attrs.CustomColor = core.ParseColor(value)
	case "type":
		rt, err := core.ParseRouteType(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArg, err)
		}
		attrs.RouteType = rt
	case "network":
		n, err := core.ParseNetwork(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArg, err)
		}
		attrs.Network = n
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, key)
	}
	return nil, s.deps.Store.SetAttributes(attrs)
}

// attrArgs accepts either "<key> <value>" or a single "key=value" argument.
func attrArgs(e dispatcher.Event) (string, string, error) {
	if err := requireArgs(e, 1); err != nil {
		return "", "", err
	}
	if len(e.Args) >= 2 {
		return util.Unquote(e.Args[0]), util.Unquote(e.Args[1]), nil
	}
	key, value, ok := util.SplitKeyValue(e.Args[0])
	if !ok {
		return "", "", fmt.Errorf("%w: %s needs a key and a value", ErrMissingArgs, e.Command)
	}
	return key, value, nil
}

// ActivateSegment handles segment.activate <index>.
func (s *Service) ActivateSegment(_ context.Context, e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 1); err != nil {
		return nil, err
	}
	idx, err := intArg(e, 0)
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Store.SetActiveSegment(idx)
}

// AddSegment handles segment.add [mode]. The mode defaults to routing.
func (s *Service) AddSegment(_ context.Context, e dispatcher.Event) (any, error) {
	mode := core.ModeRouting
	if len(e.Args) > 0 {
		m, err := modeArg(e, 0)
		if err != nil {
			return nil, err
		}
		mode = m
	}
	return nil, s.deps.Store.AddNewSegment(mode)
}

// DeleteSegment handles segment.delete <index>.
func (s *Service) DeleteSegment(_ context.Context, e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 1); err != nil {
		return nil, err
	}
	idx, err := intArg(e, 0)
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Store.DeleteSegment(idx)
}

// SetSegmentMode handles segment.mode <index> <mode>.
func (s *Service) SetSegmentMode(ctx context.Context, e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 2); err != nil {
		return nil, err
	}
	idx, err := intArg(e, 0)
	if err != nil {
		return nil, err
	}
	mode, err := modeArg(e, 1)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Store.SetSegmentMode(ctx, idx, mode); err != nil {
		s.writeLog(e.Command, err.Error(), "WARN")
		return nil, err
	}
	return nil, nil
}

// ReverseSegment handles segment.reverse <index>.
func (s *Service) ReverseSegment(ctx context.Context, e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 1); err != nil {
		return nil, err
	}
	idx, err := intArg(e, 0)
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Store.ReverseSegment(ctx, idx)
}

// SplitSegment handles segment.split <index> <waypoint>.
func (s *Service) SplitSegment(ctx context.Context, e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 2); err != nil {
		return nil, err
	}
	idx, err := intArg(e, 0)
	if err != nil {
		return nil, err
	}
	at, err := intArg(e, 1)
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Store.SplitSegment(ctx, idx, at)
}

// RecalculateSegment handles segment.recalculate <index>.
func (s *Service) RecalculateSegment(ctx context.Context, e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 1); err != nil {
		return nil, err
	}
	idx, err := intArg(e, 0)
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Store.RecalculateSegment(ctx, idx)
}

// AddWaypoint handles waypoint.add <lat,lon> on the active segment.
func (s *Service) AddWaypoint(ctx context.Context, e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 1); err != nil {
		return nil, err
	}
	p, err := pointArg(e, 0)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Store.AddWaypoint(ctx, p); err != nil {
		s.writeLog(e.Command, err.Error(), "WARN")
		return nil, err
	}
	return nil, nil
}

// InsertWaypoint handles waypoint.insert <lat,lon> [at]. Without a position
// the waypoint goes where the active segment passes closest.
func (s *Service) InsertWaypoint(ctx context.Context, e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 1); err != nil {
		return nil, err
	}
	p, err := pointArg(e, 0)
	if err != nil {
		return nil, err
	}
	if len(e.Args) < 2 {
		return nil, s.deps.Store.InsertWaypointNear(ctx, p)
	}
	at, err := intArg(e, 1)
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Store.InsertWaypoint(ctx, at, p)
}

// MoveWaypoint handles waypoint.move <segment> <waypoint> <lat,lon>.
func (s *Service) MoveWaypoint(ctx context.Context, e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 3); err != nil {
		return nil, err
	}
	idx, err := intArg(e, 0)
	if err != nil {
		return nil, err
	}
	at, err := intArg(e, 1)
	if err != nil {
		return nil, err
	}
	p, err := pointArg(e, 2)
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Store.MoveWaypoint(ctx, idx, at, p)
}

// DeleteWaypoint handles waypoint.delete <segment> <waypoint>.
func (s *Service) DeleteWaypoint(ctx context.Context, e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 2); err != nil {
		return nil, err
	}
	idx, err := intArg(e, 0)
	if err != nil {
		return nil, err
	}
	at, err := intArg(e, 1)
	if err != nil {
		return nil, err
	}
	return nil, s.deps.Store.DeleteWaypoint(ctx, idx, at)
}
