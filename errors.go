package odns

import (
	"fmt"

	"github.com/miekg/dns"
)

// QueryTimeoutError is returned when a query times out.
type QueryTimeoutError struct {
	query *dns.Msg
}

func (e QueryTimeoutError) Error() string {
	return fmt.Sprintf("query for '%s' timed out", qName(e.query))
}

// UpstreamError is returned when the upstream resolver answers with a
// response code other than NOERROR.
type UpstreamError struct {
	query *dns.Msg
	rcode int
}

func (e UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded to '%s' with %s", qName(e.query), rcodeString(e.rcode))
}
