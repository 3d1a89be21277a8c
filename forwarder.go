package odns

import (
	"context"
	"expvar"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/sync/semaphore"
)

// Defaults for forwarding questions upstream.
const (
	DefaultForwardTimeout        = time.Second
	DefaultMaxConcurrentForwards = 256
)

// ForwardOutcome holds the answers collected by one forwarded question. Err is
// set if the upstream resolver failed, timed out or returned an error code, in
// which case Answers holds whatever was received, possibly nothing.
type ForwardOutcome struct {
	Answers []dns.RR
	Err     error
}

// Forwarder sends individual questions to an upstream resolver. The number of
// questions in flight is limited process-wide, and every forward is bounded
// by a fixed timeout.
type Forwarder struct {
	id       string
	resolver Resolver
	timeout  time.Duration
	sem      *semaphore.Weighted
	metrics  *ForwarderMetrics
}

type ForwarderOptions struct {
	// Time to wait for the upstream resolver. Defaults to 1s.
	Timeout time.Duration

	// Maximum number of questions being forwarded at the same time, across
	// all requests. Further forwards wait for a free slot.
	MaxConcurrent int64
}

type ForwarderMetrics struct {
	// Count of forwarded questions.
	query *expvar.Int
	// Count of failed forwards, by error type.
	err *expvar.Map
	// Number of forwards currently in flight.
	inflight *expvar.Int
}

// NewForwarder returns a forwarder for the given upstream resolver.
func NewForwarder(id string, resolver Resolver, opt ForwarderOptions) *Forwarder {
	if opt.Timeout == 0 {
		opt.Timeout = DefaultForwardTimeout
	}
	if opt.MaxConcurrent <= 0 {
		opt.MaxConcurrent = DefaultMaxConcurrentForwards
	}
	return &Forwarder{
		id:       id,
		resolver: resolver,
		timeout:  opt.Timeout,
		sem:      semaphore.NewWeighted(opt.MaxConcurrent),
		metrics: &ForwarderMetrics{
			query:    getVarInt("forwarder", id, "query"),
			err:      getVarMap("forwarder", id, "error"),
			inflight: getVarInt("forwarder", id, "inflight"),
		},
	}
}

// Forward sends exactly the given question upstream and blocks until a
// response arrives, the timeout elapses or the upstream resolver fails.
func (f *Forwarder) Forward(ctx context.Context, question dns.Question, ci ClientInfo) ForwardOutcome {
	q := new(dns.Msg)
	q.Id = dns.Id()
	q.RecursionDesired = true
	q.Question = []dns.Question{question}
	log := logger(f.id, q, ci)

	// The timeout covers waiting for a free slot as well as the exchange.
	tctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.sem.Acquire(tctx, 1); err != nil {
		f.metrics.err.Add("acquire", 1)
		return f.expired(ctx, q)
	}
	f.metrics.query.Add(1)
	f.metrics.inflight.Add(1)

	type result struct {
		a   *dns.Msg
		err error
	}
	done := make(chan result, 1)

	// The slot is only released once the upstream exchange actually ends, not
	// when the caller stops waiting for it.
	go func() {
		defer func() {
			f.metrics.inflight.Add(-1)
			f.sem.Release(1)
		}()
		log.WithField("resolver", f.resolver.String()).Debug("forwarding query")
		a, err := f.resolver.Resolve(q, ci)
		done <- result{a, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-tctx.Done():
		return f.expired(ctx, q)
	}

	if r.err != nil {
		if _, ok := r.err.(QueryTimeoutError); ok {
			f.metrics.err.Add("timeout", 1)
		} else {
			f.metrics.err.Add("resolve", 1)
		}
		return ForwardOutcome{Err: r.err}
	}
	if r.a == nil {
		f.metrics.err.Add("drop", 1)
		return ForwardOutcome{Err: QueryTimeoutError{q}}
	}
	out := ForwardOutcome{Answers: r.a.Answer}
	if r.a.Rcode != dns.RcodeSuccess {
		f.metrics.err.Add("rcode", 1)
		out.Err = UpstreamError{query: q, rcode: r.a.Rcode}
	}
	return out
}

// Outcome of a forward that stopped waiting, either because the parent context
// was canceled or because the timeout elapsed.
func (f *Forwarder) expired(ctx context.Context, q *dns.Msg) ForwardOutcome {
	if err := ctx.Err(); err != nil {
		f.metrics.err.Add("canceled", 1)
		return ForwardOutcome{Err: err}
	}
	f.metrics.err.Add("timeout", 1)
	return ForwardOutcome{Err: QueryTimeoutError{q}}
}

func (f *Forwarder) String() string {
	return f.id
}
