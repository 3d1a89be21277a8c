package odns

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
)

// DefaultTTL is used for synthesized records that don't define a TTL.
const DefaultTTL = 1800

// RecordSpec is a template for an answer record. It is bound to the query
// name when a rule matches.
type RecordSpec struct {
	Type  uint16
	Value string
	TTL   uint32

	// Parsed record with a placeholder name, copied for every answer.
	rr dns.RR
}

// NewRecordSpec parses a record template. The value is given in zone-file
// presentation format for the type, e.g. an address for A records or the
// alias target for CNAME records. A TTL of 0 means DefaultTTL.
func NewRecordSpec(typ, value string, ttl uint32) (RecordSpec, error) {
	t, ok := dns.StringToType[strings.ToUpper(typ)]
	if !ok {
		return RecordSpec{}, fmt.Errorf("unknown type '%s'", typ)
	}
	if value == "" {
		return RecordSpec{}, fmt.Errorf("no value for %s record", typ)
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	spec := RecordSpec{Type: t, Value: value, TTL: ttl}
	if spec.isRedirect() {
		spec.Value = dns.Fqdn(value)
	}
	rr, err := dns.NewRR(fmt.Sprintf(". %d IN %s %s", ttl, dns.TypeToString[t], spec.Value))
	if err != nil {
		return RecordSpec{}, errors.Wrapf(err, "invalid %s record '%s'", typ, value)
	}
	if rr == nil {
		return RecordSpec{}, fmt.Errorf("invalid %s record '%s'", typ, value)
	}
	spec.rr = rr
	return spec, nil
}

// Materialize returns a new answer record for the given name and class.
func (s RecordSpec) Materialize(name string, class uint16) dns.RR {
	rr := dns.Copy(s.rr)
	h := rr.Header()
	h.Name = dns.Fqdn(name)
	h.Class = answerClass(class)
	h.Ttl = s.TTL
	return rr
}

// Target returns the alias target for redirect records, or an empty string.
func (s RecordSpec) Target() string {
	if !s.isRedirect() {
		return ""
	}
	return s.Value
}

func (s RecordSpec) isRedirect() bool {
	return s.Type == dns.TypeCNAME
}

func (s RecordSpec) String() string {
	return fmt.Sprintf("%s %s %d", dns.TypeToString[s.Type], s.Value, s.TTL)
}

// Answers use the class of the question unless it's a meta class like ANY.
func answerClass(class uint16) uint16 {
	switch class {
	case dns.ClassINET, dns.ClassCHAOS, dns.ClassHESIOD:
		return class
	default:
		return dns.ClassINET
	}
}
