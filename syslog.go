package odns

import (
	"fmt"
	"strings"

	syslog "github.com/RackSec/srslog"
	"github.com/miekg/dns"
)

// Syslog passes every query on unmodified and logs queries and/or the
// answers of the response to syslog.
type Syslog struct {
	id       string
	writer   *syslog.Writer
	resolver Resolver
	opt      SyslogOptions
}

var _ Resolver = &Syslog{}

type SyslogOptions struct {
	// "udp", "tcp", "unix". Defaults to the local syslog server if empty.
	Network string

	// Remote address, defaults to local syslog server
	Address string

	// Priority value as per https://pkg.go.dev/log/syslog#Priority
	Priority int

	// Syslog tag
	Tag string

	// Log requests and/or responses
	LogRequest  bool
	LogResponse bool
}

// NewSyslog returns a new instance of a Syslog query logger.
func NewSyslog(id string, resolver Resolver, opt SyslogOptions) (*Syslog, error) {
	writer, err := syslog.Dial(opt.Network, opt.Address, syslog.Priority(opt.Priority), opt.Tag)
	if err != nil {
		return nil, err
	}
	return &Syslog{
		id:       id,
		writer:   writer,
		resolver: resolver,
		opt:      opt,
	}, nil
}

// Resolve passes a DNS query through unmodified. Query details are sent via syslog.
func (r *Syslog) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	if r.opt.LogRequest {
		for _, question := range q.Question {
			r.write(q, ci, fmt.Sprintf("id=%s qid=%d type=query client=%s qtype=%s qname=%s",
				r.id, q.Id, ci.SourceIP, dns.TypeToString[question.Qtype], question.Name))
		}
	}

	a, err := r.resolver.Resolve(q, ci)
	if err != nil || a == nil || !r.opt.LogResponse {
		return a, err
	}
	if a.Rcode != dns.RcodeSuccess {
		r.write(q, ci, fmt.Sprintf("id=%s qid=%d type=answer qname=%s rcode=%s", r.id, q.Id, qName(q), rCode(a)))
		return a, err
	}
	for i, rr := range a.Answer {
		s := strings.ReplaceAll(rr.String(), "\t", " ")
		r.write(q, ci, fmt.Sprintf("id=%s qid=%d type=answer answer-num=%d/%d qname=%s answer=%q",
			r.id, q.Id, i+1, len(a.Answer), qName(q), s))
	}
	return a, err
}

func (r *Syslog) write(q *dns.Msg, ci ClientInfo, msg string) {
	if _, err := r.writer.Write([]byte(msg)); err != nil {
		logger(r.id, q, ci).WithError(err).Error("failed to send syslog")
	}
}

// Close the connection to the syslog server.
func (r *Syslog) Close() error {
	return r.writer.Close()
}

func (r *Syslog) String() string {
	return r.id
}
