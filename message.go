package odns

import (
	"strconv"

	"github.com/miekg/dns"
)

// Return the query name from a DNS query.
func qName(q *dns.Msg) string {
	if len(q.Question) == 0 {
		return ""
	}
	return q.Question[0].Name
}

// Returns the string representation of the query type.
func qType(q *dns.Msg) string {
	if len(q.Question) == 0 {
		return ""
	}
	return dns.TypeToString[q.Question[0].Qtype]
}

// Return the result code name from a DNS response.
func rCode(r *dns.Msg) string {
	return rcodeString(r.Rcode)
}

func rcodeString(rcode int) string {
	if result, ok := dns.RcodeToString[rcode]; ok {
		return result
	}
	return strconv.Itoa(rcode)
}

// Returns a SERVFAIL answer for a query.
func servfail(q *dns.Msg) *dns.Msg {
	return responseWithCode(q, dns.RcodeServerFailure)
}

// Returns a FORMERR answer for a query.
func formerr(q *dns.Msg) *dns.Msg {
	return responseWithCode(q, dns.RcodeFormatError)
}

// Returns a REFUSED answer for a query.
func refused(q *dns.Msg) *dns.Msg {
	return responseWithCode(q, dns.RcodeRefused)
}

// Build a response for a query with the given responce code.
func responseWithCode(q *dns.Msg, rcode int) *dns.Msg {
	a := new(dns.Msg)
	a.SetRcode(q, rcode)
	return a
}

// Builds an empty NOERROR reply that echoes every question of the query.
// dns.Msg.SetReply only copies the first one.
func reply(q *dns.Msg) *dns.Msg {
	a := new(dns.Msg)
	a.SetReply(q)
	a.Question = append([]dns.Question(nil), q.Question...)
	a.RecursionAvailable = q.RecursionDesired
	return a
}
