package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/trailmark/routeplanner/internal/dispatcher"
	"github.com/trailmark/routeplanner/internal/format"
	"github.com/trailmark/routeplanner/internal/geo"
	"github.com/trailmark/routeplanner/internal/handlers"
	"github.com/trailmark/routeplanner/internal/logging"
	"github.com/trailmark/routeplanner/internal/store"
	"github.com/trailmark/routeplanner/pkg/core"
)

var errUsage = errors.New("wrong number of arguments")

// Intent is one line of a replay script.
type Intent struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

func run(ctx context.Context, args []string) error {
	cmd, rest := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "version":
		fmt.Println(AppName, CurrentVersion, BuildDate)
		return nil
	case "convert":
		if len(rest) != 2 {
			return errUsage
		}
		return convert(ctx, rest[0], rest[1])
	case "export":
		if len(rest) < 2 || len(rest) > 3 {
			return errUsage
		}
		kind := ""
		if len(rest) == 3 {
			kind = rest[2]
		}
		return export(ctx, rest[0], rest[1], kind)
	case "replay":
		if len(rest) != 3 {
			return errUsage
		}
		return replay(ctx, rest[0], rest[1], rest[2])
	case "info":
		if len(rest) != 1 {
			return errUsage
		}
		return info(ctx, os.Stdout, rest[0])
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// load imports a route file into a fresh store. Routes whose geometry could
// not be fully computed are kept and reported.
func load(ctx context.Context, path string) (*store.Store, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	imported, err := format.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	st, closeStore, err := newStore()
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	ids, err := st.Import(ctx, imported)
	if err != nil {
		Logger.Warn("Some routes imported with errors", "path", path, "error", err)
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	Logger.Info("Imported routes", "path", path, "routes", len(ids), "duration", time.Since(start))
	return st, closeStore, nil
}

func convert(ctx context.Context, in, out string) error {
	st, closeStore, err := load(ctx, in)
	if err != nil {
		return err
	}
	defer closeStore()
	return writeFile(out, func(w io.Writer) error {
		return encodeJSON(w, out, st.Routes())
	})
}

func encodeJSON(w io.Writer, path string, routes []*core.Route) error {
	return format.EncodeJSON(w, routes, format.JSONOptions{
		Gzip:      strings.HasSuffix(strings.ToLower(path), ".gz"),
		Indent:    true,
		Generator: AppName + "/" + CurrentVersion,
	})
}

// exportKind picks the output format from an explicit name or the file
// extension.
func exportKind(kind, path string) string {
	if kind != "" {
		return strings.ToLower(kind)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson":
		return "geojson"
	case ".kml":
		return "kml"
	default:
		return "json"
	}
}

func export(ctx context.Context, in, out, kind string) error {
	st, closeStore, err := load(ctx, in)
	if err != nil {
		return err
	}
	defer closeStore()
	routes := st.Routes()

	switch exportKind(kind, out) {
	case "geojson":
		return writeFile(out, func(w io.Writer) error { return format.EncodeGeoJSON(w, routes) })
	case "kml":
		name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		return writeFile(out, func(w io.Writer) error { return format.EncodeKML(w, name, routes) })
	case "json":
		return writeFile(out, func(w io.Writer) error { return encodeJSON(w, out, routes) })
	default:
		return fmt.Errorf("unknown export format %q", kind)
	}
}

func replay(ctx context.Context, in, script, out string) error {
	st, closeStore, err := load(ctx, in)
	if err != nil {
		return err
	}
	defer closeStore()

	d, err := dispatcher.New(logging.NewIntentLogger(zeroLogger("dispatcher")))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	defer d.Close()
	svc := handlers.NewService(handlers.Dependencies{Store: st, LogManager: SlogManager})
	svc.Register(d)

	forwardCtx, stopForward := context.WithCancel(ctx)
	forwarded := svc.Forward(forwardCtx, d)
	defer func() {
		stopForward()
		if err := <-forwarded; err != nil {
			Logger.Warn("Store event forwarding stopped", "error", err)
		}
	}()

	f, err := os.Open(script)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := replayIntents(ctx, d, f)
	if err != nil {
		return err
	}
	Logger.Info("Replayed intents", "script", script, "count", n)

	if st.State() == store.Editing {
		return fmt.Errorf("script ended while still editing; add route.save or route.cancel")
	}
	return writeFile(out, func(w io.Writer) error {
		return encodeJSON(w, out, st.Routes())
	})
}

// replayIntents dispatches each non-empty line of r. It stops at the first
// failing intent.
func replayIntents(ctx context.Context, d *dispatcher.Dispatcher, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	line, count := 0, 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var in Intent
		if err := json.Unmarshal([]byte(text), &in); err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := d.Dispatch(ctx, dispatcher.Event{Command: in.Command, Args: in.Args}); err != nil {
			return count, fmt.Errorf("line %d: %s: %w", line, in.Command, err)
		}
		count++
	}
	return count, scanner.Err()
}

func info(ctx context.Context, w io.Writer, in string) error {
	st, closeStore, err := load(ctx, in)
	if err != nil {
		return err
	}
	defer closeStore()
	printRoutes(w, st.Routes())
	return nil
}

func printRoutes(w io.Writer, routes []*core.Route) {
	for _, r := range routes {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d segments\t%.2f km\n",
			r.ID, r.Title(), r.Attributes.RouteType, len(r.ValidSegments()), geo.RouteLengthMeters(r)/1000)
	}
	fmt.Fprintf(w, "%d routes\n", len(routes))
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
