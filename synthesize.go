package odns

import (
	"github.com/miekg/dns"
)

// Synthesize builds the answers of a rule for a question, in the order the
// records are defined in the rule. Every answer is named after the question.
// Redirect records (CNAME) are returned as-is and additionally produce a
// question for an A lookup of the alias target, which the caller is expected
// to resolve.
func Synthesize(q dns.Question, rule *Rule) ([]dns.RR, []dns.Question) {
	var (
		answers []dns.RR
		pending []dns.Question
	)
	for _, rec := range rule.Records {
		answers = append(answers, rec.Materialize(q.Name, q.Qclass))
		if target := rec.Target(); target != "" {
			pending = append(pending, dns.Question{
				Name:   target,
				Qtype:  dns.TypeA,
				Qclass: dns.ClassINET,
			})
		}
	}
	return answers, pending
}
