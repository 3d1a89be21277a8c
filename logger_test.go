package odns

import (
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestLoggerFields(t *testing.T) {
	hook := test.NewLocal(Log)

	q := new(dns.Msg)
	q.SetQuestion("hello.peteris.rocks.", dns.TypeA)
	ci := ClientInfo{SourceIP: net.ParseIP("192.0.2.10"), Listener: "local-udp"}
	logger("test-logger", q, ci).Info("test")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, "test-logger", entry.Data["id"])
	require.Equal(t, "local-udp", entry.Data["listener"])
	require.Equal(t, "A", entry.Data["qtype"])
	require.Equal(t, "hello.peteris.rocks.", entry.Data["qname"])
}
