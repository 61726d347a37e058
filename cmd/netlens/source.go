package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/unkn0wn-root/netlens/internal/capture"
	"github.com/unkn0wn-root/netlens/internal/telemetry"
)

type headerFlags []string

func (h *headerFlags) String() string {
	return strings.Join(*h, ", ")
}

func (h *headerFlags) Set(v string) error {
	if _, _, err := parseHeaderFlag(v); err != nil {
		return err
	}
	*h = append(*h, v)
	return nil
}

func parseHeaderFlag(v string) (string, string, error) {
	name, value, ok := strings.Cut(v, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid header %q: expected \"Name: value\"", v)
	}
	return name, strings.TrimSpace(value), nil
}

type sourceOptions struct {
	harPath  string
	harEntry int
	recordID string
	url      string
	method   string
	data     string
	headers  []string
	timeout  time.Duration
}

// loadRecord resolves the record to inspect: a HAR entry, a live request, or
// a capture from the store, in that order.
func loadRecord(
	ctx context.Context,
	opts sourceOptions,
	store *capture.Store,
	inst telemetry.Instrumenter,
) (*capture.Record, error) {
	switch {
	case opts.harPath != "":
		return loadHAREntry(opts.harPath, opts.harEntry)
	case opts.url != "":
		return captureRequest(ctx, opts, store, inst)
	case opts.recordID != "":
		return store.Get(opts.recordID)
	default:
		rec, err := store.Latest()
		if errors.Is(err, capture.ErrNotFound) {
			return nil, fmt.Errorf("no captures in %s; use -url or -har", store.Path())
		}
		return rec, err
	}
}

func loadHAREntry(path string, entry int) (*capture.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	recs, err := capture.LoadHAR(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if entry < 0 || entry >= len(recs) {
		return nil, fmt.Errorf("%s: entry %d out of range (%d entries)", path, entry, len(recs))
	}
	return recs[entry], nil
}

// captureRequest sends one request through the recorder. A transport failure
// still yields the captured record so the error can be inspected.
func captureRequest(
	ctx context.Context,
	opts sourceOptions,
	store *capture.Store,
	inst telemetry.Instrumenter,
) (*capture.Record, error) {
	var captured *capture.Record
	sink := capture.SinkFunc(func(rec *capture.Record) error {
		captured = rec
		if store == nil {
			return nil
		}
		if err := store.Append(rec); err != nil {
			log.Printf("capture store append error: %v", err)
			return err
		}
		return nil
	})

	method := strings.ToUpper(strings.TrimSpace(opts.method))
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if opts.data != "" {
		body = strings.NewReader(opts.data)
	}
	req, err := http.NewRequestWithContext(ctx, method, opts.url, body)
	if err != nil {
		return nil, err
	}
	for _, raw := range opts.headers {
		name, value, err := parseHeaderFlag(raw)
		if err != nil {
			return nil, err
		}
		req.Header.Add(name, value)
	}

	client := &http.Client{
		Transport: capture.NewRecorder(nil, sink, inst),
		Timeout:   opts.timeout,
	}
	resp, err := client.Do(req)
	if err != nil {
		if captured != nil {
			return captured, nil
		}
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)
	if captured == nil {
		return nil, errors.New("request was not captured")
	}
	return captured, nil
}

// printDiff writes the diff from the stored capture id to rec. Equal
// captures print a single note instead of an empty diff.
func printDiff(w io.Writer, store *capture.Store, id string, rec *capture.Record) error {
	base, err := store.Get(strings.TrimSpace(id))
	if err != nil {
		return err
	}
	out, err := capture.Diff(context.Background(), base, rec)
	if err != nil {
		return err
	}
	if out == "" {
		out = fmt.Sprintf("captures %s and %s are identical\n", base.ID, rec.ID)
	}
	_, err = io.WriteString(w, out)
	return err
}
