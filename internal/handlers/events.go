package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/trailmark/routeplanner/internal/dispatcher"
	"github.com/trailmark/routeplanner/internal/store"
)

// Forward subscribes to the store and, from a goroutine, dispatches each
// change as a store.event intent. When ctx ends, events already delivered by
// the store are still forwarded. The returned channel yields the result once
// the store closes or ctx ends.
func (s *Service) Forward(ctx context.Context, d *dispatcher.Dispatcher) <-chan error {
	events, unsubscribe := s.deps.Store.Subscribe()
	done := make(chan error, 1)
	go func() {
		defer unsubscribe()
		done <- forward(ctx, d, events)
	}()
	return done
}

func forward(ctx context.Context, d *dispatcher.Dispatcher, events <-chan store.Event) error {
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			if err := dispatchStoreEvent(ctx, d, evt); err != nil {
				return err
			}
		case <-ctx.Done():
			return drain(context.WithoutCancel(ctx), d, events)
		}
	}
}

func drain(ctx context.Context, d *dispatcher.Dispatcher, events <-chan store.Event) error {
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			if err := dispatchStoreEvent(ctx, d, evt); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func dispatchStoreEvent(ctx context.Context, d *dispatcher.Dispatcher, evt store.Event) error {
	_, err := d.Dispatch(ctx, dispatcher.Event{
		Command: StoreEventCommand,
		Args:    []string{string(evt.Type), strconv.Itoa(evt.RouteID), evt.State.String()},
	})
	if errors.Is(err, dispatcher.ErrClosed) {
		return nil
	}
	return err
}

// RecordStoreEvent handles store.event <type> <route> <state> by writing the
// change to the session log.
func (s *Service) RecordStoreEvent(_ context.Context, e dispatcher.Event) (any, error) {
	if err := requireArgs(e, 3); err != nil {
		return nil, err
	}
	level := "DEBUG"
	switch store.EventType(e.Args[0]) {
	case store.RouteCreated, store.RouteDeleted:
		level = "INFO"
	}
	s.writeLog(e.Command, fmt.Sprintf("%s route=%s state=%s", e.Args[0], e.Args[1], e.Args[2]), level)
	return nil, nil
}
