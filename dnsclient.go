package odns

import (
	"expvar"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// DNSClient represents a simple DNS resolver for UDP or TCP. Every query
// uses its own exchange with the upstream server, connections aren't reused.
type DNSClient struct {
	id       string
	endpoint string
	net      string
	client   *dns.Client
	metrics  *DNSClientMetrics
}

var _ Resolver = &DNSClient{}

type DNSClientOptions struct {
	// Time to wait for a response. Defaults to 1s.
	Timeout time.Duration
}

type DNSClientMetrics struct {
	// Count of queries sent upstream.
	query *expvar.Int
	// Count of failed exchanges, keyed by error type.
	err *expvar.Map
}

// NewDNSClient returns a new instance of DNSClient which is a plain DNS resolver.
// Port 53 is assumed when the endpoint doesn't specify one.
func NewDNSClient(id, endpoint, network string, opt DNSClientOptions) (*DNSClient, error) {
	switch network {
	case "udp", "tcp":
	default:
		return nil, fmt.Errorf("unsupported protocol '%s'", network)
	}
	endpoint = AddressWithDefault(endpoint, PlainDNSPort)
	if _, _, err := net.SplitHostPort(endpoint); err != nil {
		return nil, err
	}
	if opt.Timeout == 0 {
		opt.Timeout = time.Second
	}
	client := &dns.Client{
		Net:     network,
		Timeout: opt.Timeout,
	}
	return &DNSClient{
		id:       id,
		net:      network,
		endpoint: endpoint,
		client:   client,
		metrics: &DNSClientMetrics{
			query: getVarInt("client", id, "query"),
			err:   getVarMap("client", id, "error"),
		},
	}, nil
}

// Resolve a DNS query.
func (d *DNSClient) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	logger(d.id, q, ci).WithField("resolver", d.endpoint).WithField("protocol", d.net).Debug("querying upstream resolver")
	d.metrics.query.Add(1)
	a, _, err := d.client.Exchange(q, d.endpoint)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			d.metrics.err.Add("timeout", 1)
			return nil, QueryTimeoutError{q}
		}
		d.metrics.err.Add("exchange", 1)
		return nil, err
	}
	return a, nil
}

func (d *DNSClient) String() string {
	return fmt.Sprintf("DNS(%s/%s)", d.endpoint, d.net)
}
