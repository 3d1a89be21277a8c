package odns

import (
	"expvar"
	"net"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

// DNSListener is a standard DNS listener for UDP or TCP.
type DNSListener struct {
	*dns.Server
	id string
}

var _ Listener = &DNSListener{}

type ListenOptions struct {
	// Network allowed to query this listener.
	AllowedNet []*net.IPNet
}

type ListenerMetrics struct {
	// Count of queries.
	query *expvar.Int
	// Count of responses by rcode.
	response *expvar.Map
	// Count of errors by type.
	err *expvar.Map
	// Count of dropped queries.
	drop *expvar.Int
}

// NewDNSListener returns an instance of either a UDP or TCP DNS listener.
func NewDNSListener(id, addr, net string, opt ListenOptions, resolver Resolver) *DNSListener {
	return &DNSListener{
		id: id,
		Server: &dns.Server{
			Addr:          AddressWithDefault(addr, PlainDNSPort),
			Net:           net,
			Handler:       listenHandler(id, net, addr, resolver, opt.AllowedNet),
			MsgAcceptFunc: acceptQuery(id),
		},
	}
}

// Start the DNS listener. Blocks until the listener is stopped or fails.
func (s DNSListener) Start() error {
	Log.WithFields(logrus.Fields{"id": s.id, "protocol": s.Net, "addr": s.Addr}).Info("starting listener")
	return s.ListenAndServe()
}

// Stop the listener.
func (s DNSListener) Stop() error {
	Log.WithFields(logrus.Fields{"id": s.id, "protocol": s.Net, "addr": s.Addr}).Info("stopping listener")
	return s.Shutdown()
}

func (s DNSListener) String() string {
	return s.id
}

// QR bit in the DNS header flags.
const headerBitQR = 1 << 15

// Like dns.DefaultMsgAcceptFunc, but queries with more than one question are
// accepted. Malformed queries are logged and dropped without a response.
func acceptQuery(id string) dns.MsgAcceptFunc {
	return func(dh dns.Header) dns.MsgAcceptAction {
		if dh.Bits&headerBitQR != 0 {
			return dns.MsgIgnore
		}
		opcode := int(dh.Bits>>11) & 0xF
		if opcode != dns.OpcodeQuery {
			return dns.MsgRejectNotImplemented
		}
		if dh.Qdcount == 0 || dh.Ancount > 1 || dh.Nscount > 1 || dh.Arcount > 2 {
			Log.WithFields(logrus.Fields{
				"id":      id,
				"qid":     dh.Id,
				"qdcount": dh.Qdcount,
				"ancount": dh.Ancount,
				"nscount": dh.Nscount,
				"arcount": dh.Arcount,
			}).Error("dropping malformed query")
			return dns.MsgIgnore
		}
		return dns.MsgAccept
	}
}

// DNS handler to forward all incoming requests to a given resolver.
func listenHandler(id, protocol, addr string, r Resolver, allowedNet []*net.IPNet) dns.HandlerFunc {
	metrics := &ListenerMetrics{
		query:    getVarInt("listener", id, "query"),
		response: getVarMap("listener", id, "response"),
		err:      getVarMap("listener", id, "error"),
		drop:     getVarInt("listener", id, "drop"),
	}
	return func(w dns.ResponseWriter, req *dns.Msg) {
		var err error

		ci := ClientInfo{
			Listener: id,
		}
		switch addr := w.RemoteAddr().(type) {
		case *net.TCPAddr:
			ci.SourceIP = addr.IP
		case *net.UDPAddr:
			ci.SourceIP = addr.IP
		}

		log := Log.WithFields(logrus.Fields{
			"id":       id,
			"client":   ci.SourceIP,
			"qname":    qName(req),
			"protocol": protocol,
			"addr":     addr,
		})
		log.Debug("received query")
		metrics.query.Add(1)

		var a *dns.Msg
		if isAllowed(allowedNet, ci.SourceIP) {
			log.WithField("resolver", r.String()).Trace("passing query to resolver")
			a, err = r.Resolve(req, ci)
			if err != nil {
				metrics.err.Add("resolve", 1)
				log.WithError(err).Error("failed to resolve")
				a = servfail(req)
			}
		} else {
			metrics.err.Add("acl", 1)
			log.Debug("refusing client ip")
			a = refused(req)
		}

		// A nil response from the resolver means "drop", close the connection
		if a == nil {
			w.Close()
			metrics.drop.Add(1)
			return
		}

		// Check the response actually fits if the query was sent over UDP. If not, respond with TC flag.
		if protocol == "udp" {
			maxSize := dns.MinMsgSize
			if edns0 := req.IsEdns0(); edns0 != nil {
				maxSize = int(edns0.UDPSize())
			}
			a.Truncate(maxSize)
		}

		metrics.response.Add(rCode(a), 1)
		if err := w.WriteMsg(a); err != nil {
			metrics.err.Add("write", 1)
			log.WithError(err).Error("failed to send response")
		}
	}
}

func isAllowed(allowedNet []*net.IPNet, ip net.IP) bool {
	if len(allowedNet) == 0 {
		return true
	}
	for _, net := range allowedNet {
		if net.Contains(ip) {
			return true
		}
	}
	return false
}
