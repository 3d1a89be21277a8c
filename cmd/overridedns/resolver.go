package main

import (
	"fmt"
	"net"
	"time"

	odns "github.com/folbricht/overridedns"
	"github.com/pkg/errors"
)

// Default upstream resolver if none is configured.
const defaultUpstream = "8.8.8.8:53"

// Compiles the rules from the config, keeping their order.
func instantiateRules(rules []rule) (*odns.RuleTable, error) {
	var compiled []*odns.Rule
	for i, r := range rules {
		var records []odns.RecordSpec
		for _, rec := range r.Records {
			spec, err := odns.NewRecordSpec(rec.Type, rec.Value, rec.TTL)
			if err != nil {
				return nil, errors.Wrapf(err, "rule %d '%s'", i, r.Name)
			}
			records = append(records, spec)
		}
		cr, err := odns.NewRule(r.Match, r.Name, records...)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %d '%s'", i, r.Name)
		}
		compiled = append(compiled, cr)
	}
	return odns.NewRuleTable(compiled...), nil
}

// Instantiates the upstream resolver, plus a TCP fallback for truncated UDP
// responses if enabled.
func instantiateUpstream(u upstream) (odns.Resolver, time.Duration, error) {
	var (
		timeout time.Duration
		err     error
	)
	if u.Timeout != "" {
		timeout, err = time.ParseDuration(u.Timeout)
		if err != nil {
			return nil, 0, errors.Wrap(err, "invalid upstream timeout")
		}
	}
	if u.Address == "" {
		u.Address = defaultUpstream
	}
	if u.Protocol == "" {
		u.Protocol = "udp"
	}
	opt := odns.DNSClientOptions{Timeout: timeout}
	client, err := odns.NewDNSClient("upstream", u.Address, u.Protocol, opt)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "failed to parse upstream '%s'", u.Address)
	}
	if !u.TruncateRetry || u.Protocol != "udp" {
		return client, timeout, nil
	}
	tcp, err := odns.NewDNSClient("upstream-tcp", u.Address, "tcp", opt)
	if err != nil {
		return nil, 0, err
	}
	return odns.NewTruncateRetry("upstream-truncate-retry", client, tcp), timeout, nil
}

// Instantiates an odns.Listener from a listener config.
func instantiateListener(id string, l listener, resolver odns.Resolver) (odns.Listener, error) {
	var opt odns.ListenOptions
	for _, s := range l.AllowedNet {
		_, n, err := net.ParseCIDR(s)
		if err != nil {
			return nil, errors.Wrapf(err, "listener '%s'", id)
		}
		opt.AllowedNet = append(opt.AllowedNet, n)
	}
	switch l.Protocol {
	case "udp", "tcp":
		return odns.NewDNSListener(id, l.Address, l.Protocol, opt, resolver), nil
	default:
		return nil, fmt.Errorf("unsupported protocol '%s' for listener '%s'", l.Protocol, id)
	}
}
