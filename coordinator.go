package odns

import (
	"context"
	"expvar"
	"fmt"
	"strings"
	"sync"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"
)

// Coordinator answers queries from a rule table and forwards everything not
// covered by a rule upstream. Each question of a query is handled
// independently, all forwards run concurrently, and the response is only
// built once every one of them has completed. Failed forwards simply
// contribute no answers.
type Coordinator struct {
	id        string
	rules     *RuleTable
	forwarder *Forwarder
	opt       CoordinatorOptions
	metrics   *CoordinatorMetrics
}

var _ Resolver = &Coordinator{}

// Maximum number of aliases synthesized locally for one question. Targets
// beyond that are forwarded upstream.
const maxChaseDepth = 8

type CoordinatorOptions struct {
	// Resolve alias targets against the rule table before forwarding them.
	// Targets without a matching rule are still forwarded.
	ChaseLocal bool
}

type CoordinatorMetrics struct {
	// Count of queries.
	query *expvar.Int
	// Count of questions answered by a rule.
	local *expvar.Int
	// Count of questions forwarded upstream, including alias targets.
	forward *expvar.Int
	// Count of forwards that failed.
	forwardErr *expvar.Int
}

// NewCoordinator returns a coordinator for the rule table. Questions that
// aren't matched by a rule, and alias targets, are sent to the forwarder.
func NewCoordinator(id string, rules *RuleTable, forwarder *Forwarder, opt CoordinatorOptions) *Coordinator {
	return &Coordinator{
		id:        id,
		rules:     rules,
		forwarder: forwarder,
		opt:       opt,
		metrics: &CoordinatorMetrics{
			query:      getVarInt("coordinator", id, "query"),
			local:      getVarInt("coordinator", id, "local"),
			forward:    getVarInt("coordinator", id, "forward"),
			forwardErr: getVarInt("coordinator", id, "forward-error"),
		},
	}
}

// Resolve all questions in the query and return a single response holding the
// answers for all of them. The order of answers across questions is not
// defined.
func (c *Coordinator) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	if len(q.Question) == 0 {
		return formerr(q), nil
	}
	c.metrics.query.Add(1)

	var (
		g       errgroup.Group
		answers answerSet
	)
	for _, question := range q.Question {
		c.resolveQuestion(&g, &answers, question, ci, nil)
	}

	// Forward tasks never return an error, failures only mean fewer answers.
	_ = g.Wait()

	a := reply(q)
	a.Answer = answers.list()
	logger(c.id, q, ci).WithField("answers", len(a.Answer)).Debug("responding")
	return a, nil
}

// Handles one question, either from a rule or by forwarding it. Forwards are
// started in the group. chain holds the alias names already synthesized for
// this question when chasing aliases locally.
func (c *Coordinator) resolveQuestion(g *errgroup.Group, answers *answerSet, question dns.Question, ci ClientInfo, chain []string) {
	rule, ok := c.rules.Match(question.Name)
	if !ok {
		c.forward(g, answers, question, ci)
		return
	}
	c.metrics.local.Add(1)
	local, pending := Synthesize(question, rule)
	answers.add(local...)

	chain = append(chain, strings.ToLower(question.Name))
	for _, target := range pending {
		if c.opt.ChaseLocal && len(chain) < maxChaseDepth {
			if _, ok := c.rules.Match(target.Name); ok {
				if inChain(chain, target.Name) {
					// Alias loop in the rules, stop here.
					continue
				}
				c.resolveQuestion(g, answers, target, ci, chain[:len(chain):len(chain)])
				continue
			}
		}
		c.forward(g, answers, target, ci)
	}
}

func (c *Coordinator) forward(g *errgroup.Group, answers *answerSet, question dns.Question, ci ClientInfo) {
	c.metrics.forward.Add(1)
	g.Go(func() error {
		out := c.forwarder.Forward(context.Background(), question, ci)
		if out.Err != nil {
			c.metrics.forwardErr.Add(1)
			Log.WithError(out.Err).WithField("id", c.id).WithField("qname", question.Name).Debug("forward failed")
		}
		answers.add(out.Answers...)
		return nil
	})
}

func (c *Coordinator) String() string {
	return fmt.Sprintf("Coordinator(%s)", c.id)
}

func inChain(chain []string, name string) bool {
	name = strings.ToLower(name)
	for _, n := range chain {
		if n == name {
			return true
		}
	}
	return false
}

// Answers of one request, appended to concurrently by its forwards.
type answerSet struct {
	mu      sync.Mutex
	answers []dns.RR
}

func (s *answerSet) add(rr ...dns.RR) {
	if len(rr) == 0 {
		return
	}
	s.mu.Lock()
	s.answers = append(s.answers, rr...)
	s.mu.Unlock()
}

func (s *answerSet) list() []dns.RR {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dns.RR(nil), s.answers...)
}
