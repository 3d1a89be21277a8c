package odns

import (
	"context"
	"expvar"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Read/Write timeout in the admin server
const adminServerTimeout = 10 * time.Second

// AdminListener serves the expvar metrics over plain HTTP.
type AdminListener struct {
	httpServer *http.Server

	id   string
	addr string

	mux *http.ServeMux
}

var _ Listener = &AdminListener{}

// NewAdminListener returns an instance of an admin service listener.
func NewAdminListener(id, addr string) *AdminListener {
	l := &AdminListener{
		id:   id,
		addr: addr,
		mux:  http.NewServeMux(),
	}
	l.mux.Handle("/overridedns/vars", expvar.Handler())
	l.httpServer = &http.Server{
		Addr:         addr,
		Handler:      l.mux,
		ReadTimeout:  adminServerTimeout,
		WriteTimeout: adminServerTimeout,
	}
	return l
}

// Start the admin server.
func (s *AdminListener) Start() error {
	Log.WithFields(logrus.Fields{"id": s.id, "protocol": "http", "addr": s.addr}).Info("starting listener")
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	return s.httpServer.Serve(ln)
}

// Stop the server.
func (s *AdminListener) Stop() error {
	Log.WithFields(logrus.Fields{"id": s.id, "protocol": "http", "addr": s.addr}).Info("stopping listener")
	return s.httpServer.Shutdown(context.Background())
}

func (s *AdminListener) String() string {
	return s.id
}
