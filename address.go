package odns

import (
	"net"
)

// PlainDNSPort is the port assumed for upstream and listen addresses without one.
var PlainDNSPort = "53"

// AddressWithDefault appends the default port to addr if it doesn't have one.
// IPv6 literals need to be given in brackets, e.g. "[::1]".
func AddressWithDefault(addr, defaultPort string) string {
	if addr == "" {
		return addr
	}
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	host := addr
	if len(host) > 1 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}
	return net.JoinHostPort(host, defaultPort)
}
