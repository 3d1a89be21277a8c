package odns

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestForwarderAnswers(t *testing.T) {
	upstream := &TestResolver{ResolveFunc: answerA("192.0.2.1")}
	f := NewForwarder("test-fwd", upstream, ForwarderOptions{})

	question := dns.Question{Name: "example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET}
	out := f.Forward(context.Background(), question, ClientInfo{})
	require.NoError(t, out.Err)
	require.Len(t, out.Answers, 1)
	require.Equal(t, "example.com.", out.Answers[0].Header().Name)

	// Exactly the given question is sent upstream
	require.Equal(t, []dns.Question{question}, upstream.Questions())
}

func TestForwarderTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	upstream := &TestResolver{
		ResolveFunc: func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
			<-release
			return nil, errors.New("too late")
		},
	}
	f := NewForwarder("test-fwd-timeout", upstream, ForwarderOptions{Timeout: 100 * time.Millisecond})

	start := time.Now()
	out := f.Forward(context.Background(), dns.Question{Name: "example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET}, ClientInfo{})
	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	require.IsType(t, QueryTimeoutError{}, out.Err)
	require.Empty(t, out.Answers)
}

func TestForwarderErrors(t *testing.T) {
	question := dns.Question{Name: "example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET}

	// Transport failure
	failing := &TestResolver{
		ResolveFunc: func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
			return nil, errors.New("connection refused")
		},
	}
	out := NewForwarder("test-fwd-err", failing, ForwarderOptions{}).Forward(context.Background(), question, ClientInfo{})
	require.Error(t, out.Err)
	require.Empty(t, out.Answers)

	// Error response code
	nxdomain := &TestResolver{
		ResolveFunc: func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
			return responseWithCode(q, dns.RcodeNameError), nil
		},
	}
	out = NewForwarder("test-fwd-nx", nxdomain, ForwarderOptions{}).Forward(context.Background(), question, ClientInfo{})
	require.IsType(t, UpstreamError{}, out.Err)
	require.Empty(t, out.Answers)
}

func TestForwarderConcurrencyLimit(t *testing.T) {
	var (
		inflight, peak int32
		mu             sync.Mutex
	)
	upstream := &TestResolver{
		ResolveFunc: func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
			n := atomic.AddInt32(&inflight, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&inflight, -1)
			return answerA("192.0.2.1")(q, ci)
		},
	}
	f := NewForwarder("test-fwd-limit", upstream, ForwarderOptions{MaxConcurrent: 2})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := f.Forward(context.Background(), dns.Question{Name: "example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET}, ClientInfo{})
			require.NoError(t, out.Err)
		}()
	}
	wg.Wait()
	require.Equal(t, 10, upstream.HitCount())
	require.LessOrEqual(t, peak, int32(2))
}

func TestForwarderTimeoutWhileSaturated(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	upstream := &TestResolver{
		ResolveFunc: func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
			<-release
			return nil, errors.New("too late")
		},
	}
	f := NewForwarder("test-fwd-saturated", upstream, ForwarderOptions{
		Timeout:       200 * time.Millisecond,
		MaxConcurrent: 1,
	})

	// All but one of these wait for the only slot, which is never freed in time
	var wg sync.WaitGroup
	latency := make([]time.Duration, 4)
	outcomes := make([]ForwardOutcome, 4)
	for i := range latency {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := time.Now()
			outcomes[i] = f.Forward(context.Background(), dns.Question{Name: "example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET}, ClientInfo{})
			latency[i] = time.Since(start)
		}(i)
	}
	wg.Wait()

	for i := range latency {
		require.IsType(t, QueryTimeoutError{}, outcomes[i].Err)
		require.GreaterOrEqual(t, latency[i], 200*time.Millisecond)
		require.Less(t, latency[i], 400*time.Millisecond)
	}
	require.Equal(t, 1, upstream.HitCount())
}

func TestForwarderCanceled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	upstream := &TestResolver{
		ResolveFunc: func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
			<-release
			return nil, errors.New("too late")
		},
	}
	f := NewForwarder("test-fwd-canceled", upstream, ForwarderOptions{Timeout: 5 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	out := f.Forward(ctx, dns.Question{Name: "example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET}, ClientInfo{})
	require.Equal(t, context.Canceled, out.Err)
}
