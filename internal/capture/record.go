package capture

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("capture: record not found")

// BodyLoader fetches a response body that was not captured eagerly.
type BodyLoader func(ctx context.Context) (string, error)

// Record is one captured request/response exchange.
type Record struct {
	ID                  string        `json:"id"`
	Method              string        `json:"method"`
	URL                 string        `json:"url"`
	Status              int           `json:"status"`
	StartTime           time.Time     `json:"startTime"`
	EndTime             time.Time     `json:"endTime"`
	DataSent            string        `json:"dataSent,omitempty"`
	RequestHeaders      Headers       `json:"requestHeaders"`
	ResponseHeaders     Headers       `json:"responseHeaders"`
	ResponseContentType string        `json:"responseContentType,omitempty"`
	ResponseSize        int           `json:"responseSize,omitempty"`
	Response            string        `json:"response,omitempty"`
	GQLOperation        *GQLOperation `json:"gqlOperation,omitempty"`
	Error               string        `json:"error,omitempty"`

	loader BodyLoader
}

func (r *Record) SetBodyLoader(fn BodyLoader) {
	r.loader = fn
}

func (r *Record) IsQuery() bool {
	return r != nil && r.GQLOperation != nil
}

func (r *Record) Duration() time.Duration {
	if r == nil || r.StartTime.IsZero() || r.EndTime.IsZero() {
		return 0
	}
	d := r.EndTime.Sub(r.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// RequestBody returns the sent body, pretty printed when it is JSON.
// Query documents travel as escaped JSON strings, so query mode unescapes
// newlines and quotes to keep them readable.
func (r *Record) RequestBody(query bool) string {
	if r == nil {
		return ""
	}
	body := FormatBody(r.DataSent, "application/json")
	if query {
		body = strings.NewReplacer(`\n`, "\n", `\"`, `"`).Replace(body)
	}
	return body
}

func (r *Record) ResponseBody(ctx context.Context) (string, error) {
	if r == nil {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw := r.Response
	if r.loader != nil {
		body, err := r.loader(ctx)
		if err != nil {
			return "", err
		}
		raw = body
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return FormatBody(raw, r.ResponseContentType), nil
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	cp.RequestHeaders = r.RequestHeaders.Clone()
	cp.ResponseHeaders = r.ResponseHeaders.Clone()
	if r.GQLOperation != nil {
		op := *r.GQLOperation
		cp.GQLOperation = &op
	}
	return &cp
}
