package odns

import (
	"net"
	"sync"

	"github.com/miekg/dns"
)

// TestResolver is a configurable resolver used in tests. By default it replies
// with an empty NOERROR response.
type TestResolver struct {
	ResolveFunc func(*dns.Msg, ClientInfo) (*dns.Msg, error)

	mu        sync.Mutex
	hitCount  int
	questions []dns.Question
}

var _ Resolver = &TestResolver{}

func (r *TestResolver) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	r.mu.Lock()
	r.hitCount++
	r.questions = append(r.questions, q.Question...)
	r.mu.Unlock()
	if r.ResolveFunc != nil {
		return r.ResolveFunc(q, ci)
	}
	a := new(dns.Msg)
	a.SetReply(q)
	return a, nil
}

func (r *TestResolver) HitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hitCount
}

// Questions returns all questions received so far.
func (r *TestResolver) Questions() []dns.Question {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dns.Question(nil), r.questions...)
}

func (r *TestResolver) String() string {
	return "TestResolver()"
}

// Answers A queries with a fixed address.
func answerA(ip string) func(*dns.Msg, ClientInfo) (*dns.Msg, error) {
	return func(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
		a := new(dns.Msg)
		a.SetReply(q)
		a.Answer = []dns.RR{
			&dns.A{
				Hdr: dns.RR_Header{
					Name:   q.Question[0].Name,
					Rrtype: dns.TypeA,
					Class:  dns.ClassINET,
					Ttl:    300,
				},
				A: net.ParseIP(ip),
			},
		}
		return a, nil
	}
}
