package odns

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestTruncateRetry(t *testing.T) {
	var truncate bool
	primary := &TestResolver{
		ResolveFunc: func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
			a := new(dns.Msg)
			a.SetReply(q)
			a.Truncated = truncate
			return a, nil
		},
	}
	secondary := &TestResolver{ResolveFunc: answerA("192.0.2.1")}
	r := NewTruncateRetry("test-tr", primary, secondary)

	q := new(dns.Msg)
	q.SetQuestion("example.com.", dns.TypeA)

	// Complete response, no retry
	_, err := r.Resolve(q, ClientInfo{})
	require.NoError(t, err)
	require.Equal(t, 1, primary.HitCount())
	require.Equal(t, 0, secondary.HitCount())

	// Truncated, the same query goes to the retry resolver
	truncate = true
	a, err := r.Resolve(q, ClientInfo{})
	require.NoError(t, err)
	require.False(t, a.Truncated)
	require.Len(t, a.Answer, 1)
	require.Equal(t, 2, primary.HitCount())
	require.Equal(t, 1, secondary.HitCount())
}
