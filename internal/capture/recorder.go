package capture

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/netlens/internal/telemetry"
)

const defaultMaxBodyBytes = 1 << 20

// Recorder is an http.RoundTripper that captures every exchange it carries
// into a Record and hands it to Sink.
type Recorder struct {
	Base         http.RoundTripper
	Sink         Sink
	Telemetry    telemetry.Instrumenter
	MaxBodyBytes int64

	now func() time.Time
}

func NewRecorder(base http.RoundTripper, sink Sink, inst telemetry.Instrumenter) *Recorder {
	return &Recorder{Base: base, Sink: sink, Telemetry: inst}
}

func (rc *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	base := rc.Base
	if base == nil {
		base = http.DefaultTransport
	}
	inst := rc.Telemetry
	if inst == nil {
		inst = telemetry.Noop()
	}
	now := rc.now
	if now == nil {
		now = time.Now
	}

	rec := &Record{
		ID:             uuid.NewString(),
		Method:         req.Method,
		URL:            req.URL.String(),
		RequestHeaders: FromHTTP(req.Header),
	}

	ctx, span := inst.Start(req.Context(), req)
	out := req.WithContext(ctx)
	if req.Body != nil && req.Body != http.NoBody {
		sent, body, err := rc.drain(req.Body)
		if err != nil {
			// RoundTrip must close the request body, even on errors.
			_ = req.Body.Close()
			span.End(telemetry.Result{Err: err, RecordID: rec.ID})
			return nil, err
		}
		out.Body = body
		rec.DataSent = sent
		rec.GQLOperation = DetectGQL(sent)
	}

	rec.StartTime = now()
	resp, err := base.RoundTrip(out)
	rec.EndTime = now()

	if err != nil {
		rec.Error = err.Error()
		span.End(telemetry.Result{Err: err, RecordID: rec.ID, Duration: rec.Duration()})
		rc.emit(rec)
		return nil, err
	}

	rec.Status = resp.StatusCode
	rec.ResponseHeaders = FromHTTP(resp.Header)
	rec.ResponseContentType = resp.Header.Get("Content-Type")
	if resp.Body != nil {
		got, body, derr := rc.drain(resp.Body)
		if derr != nil {
			rec.Error = derr.Error()
		}
		resp.Body = body
		rec.Response = got
		rec.ResponseSize = len(got)
	}

	span.End(telemetry.Result{
		StatusCode:   rec.Status,
		RecordID:     rec.ID,
		ResponseSize: rec.ResponseSize,
		Duration:     rec.Duration(),
	})
	rc.emit(rec)
	return resp, nil
}

func (rc *Recorder) emit(rec *Record) {
	if rc.Sink == nil {
		return
	}
	// capture is best effort and never fails the caller's request
	_ = rc.Sink.Append(rec)
}

// drain reads up to the body cap for the record and returns a replacement
// body that still yields the complete stream to the caller.
func (rc *Recorder) drain(body io.ReadCloser) (string, io.ReadCloser, error) {
	limit := rc.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	var buf bytes.Buffer
	_, err := io.Copy(&buf, io.LimitReader(body, limit))
	captured := buf.String()
	rest := io.MultiReader(bytes.NewReader(buf.Bytes()), body)
	return captured, readCloser{Reader: rest, Closer: body}, err
}

type readCloser struct {
	io.Reader
	io.Closer
}
