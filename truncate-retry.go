package odns

import (
	"fmt"

	"github.com/miekg/dns"
)

// TruncateRetry repeats a query on a second resolver when the first one
// returns a truncated response. Used to fall back from UDP to TCP when
// forwarding upstream.
type TruncateRetry struct {
	id            string
	resolver      Resolver
	retryResolver Resolver
}

var _ Resolver = &TruncateRetry{}

// NewTruncateRetry returns a new instance of a truncate-retry resolver.
func NewTruncateRetry(id string, resolver, retryResolver Resolver) *TruncateRetry {
	return &TruncateRetry{
		id:            id,
		resolver:      resolver,
		retryResolver: retryResolver,
	}
}

// Resolve a DNS query with the primary resolver. Truncated responses are
// discarded and the query is sent to the retry resolver instead.
func (r *TruncateRetry) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	a, err := r.resolver.Resolve(q, ci)
	if err != nil || a == nil {
		return a, err
	}
	if a.Truncated {
		logger(r.id, q, ci).WithField("resolver", r.retryResolver.String()).Debug("truncated response, retrying")
		return r.retryResolver.Resolve(q, ci)
	}
	return a, nil
}

func (r *TruncateRetry) String() string {
	return fmt.Sprintf("TruncateRetry(%s->%s)", r.resolver, r.retryResolver)
}
