package telemetry

import (
	"context"
	"crypto/tls"
	"net/http/httptrace"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PhaseKind names one step of an HTTP exchange.
type PhaseKind string

const (
	PhaseDNS     PhaseKind = "dns"
	PhaseConnect PhaseKind = "connect"
	PhaseTLS     PhaseKind = "tls"
	PhaseServer  PhaseKind = "server"
)

const phaseEvent = "netlens.capture.phase"

type Phase struct {
	Kind   PhaseKind
	Start  time.Time
	End    time.Time
	Addr   string
	Reused bool
	Err    string
}

func (p Phase) Duration() time.Duration {
	if p.Start.IsZero() || p.End.IsZero() {
		return 0
	}
	return p.End.Sub(p.Start)
}

// phases collects timings from httptrace callbacks, which the transport
// may fire from more than one goroutine.
type phases struct {
	mu     sync.Mutex
	open   map[PhaseKind]*Phase
	done   []Phase
	reused bool
	now    func() time.Time
}

func (p *phases) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *phases) begin(kind PhaseKind, addr string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open == nil {
		p.open = make(map[PhaseKind]*Phase)
	}
	p.open[kind] = &Phase{Kind: kind, Start: p.clock(), Addr: addr}
}

func (p *phases) finish(kind PhaseKind, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ph, ok := p.open[kind]
	if !ok {
		return
	}
	delete(p.open, kind)
	ph.End = p.clock()
	ph.Reused = p.reused
	if err != nil {
		ph.Err = err.Error()
	}
	p.done = append(p.done, *ph)
}

func (p *phases) attach(ctx context.Context) context.Context {
	return httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) { p.begin(PhaseDNS, info.Host) },
		DNSDone:  func(info httptrace.DNSDoneInfo) { p.finish(PhaseDNS, info.Err) },
		ConnectStart: func(_, addr string) {
			p.begin(PhaseConnect, addr)
		},
		ConnectDone: func(_, _ string, err error) { p.finish(PhaseConnect, err) },
		TLSHandshakeStart: func() {
			p.begin(PhaseTLS, "")
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) { p.finish(PhaseTLS, err) },
		GotConn: func(info httptrace.GotConnInfo) {
			p.mu.Lock()
			p.reused = info.Reused
			p.mu.Unlock()
		},
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			p.begin(PhaseServer, "")
			if info.Err != nil {
				p.finish(PhaseServer, info.Err)
			}
		},
		GotFirstResponseByte: func() { p.finish(PhaseServer, nil) },
	})
}

// snapshot returns the finished phases in completion order.
func (p *phases) snapshot() []Phase {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Phase(nil), p.done...)
}

func (p *phases) record(span trace.Span) {
	for _, ph := range p.snapshot() {
		attrs := []attribute.KeyValue{
			attribute.String("netlens.phase", string(ph.Kind)),
			attribute.Int64("netlens.phase.duration_ms", ph.Duration().Milliseconds()),
		}
		if ph.Addr != "" {
			attrs = append(attrs, attribute.String("netlens.phase.addr", ph.Addr))
		}
		if ph.Reused {
			attrs = append(attrs, attribute.Bool("netlens.phase.reused", true))
		}
		if ph.Err != "" {
			attrs = append(attrs, attribute.String("netlens.phase.error", ph.Err))
		}
		span.AddEvent(phaseEvent, trace.WithAttributes(attrs...), trace.WithTimestamp(ph.End))
	}
}
