// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package diagserver exposes a service's resolved configuration over
// HTTP.  It answers diagnostic probes against the live node tree:
// whole-configuration digests, single entity records, and generated
// documentation links.  It is a read-only surface intended for
// operators and for the digest-diff tooling, not for data clients.
package diagserver

import (
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"

	"github.com/mmcclenn/go-dataservice/cache"
	"github.com/mmcclenn/go-dataservice/dataservice"
	"github.com/mmcclenn/go-dataservice/digest"
)

// digestCacheSize bounds how many per-pattern digests are kept.
const digestCacheSize = 16

// Server answers diagnostic HTTP requests for one service.
type Server struct {
	service *dataservice.Service
	digests *cache.DigestCache
	clock   clock.Clock
	router  *mux.Router
}

// New creates a diagnostic server for a service.  The service must be
// frozen before the server starts answering requests.
func New(service *dataservice.Service) *Server {
	return NewWithClock(service, clock.New())
}

// NewWithClock creates a diagnostic server with an explicit time
// source for digest generation timestamps.  Most application code
// should call New(); this entry point is intended for tests.
func NewWithClock(service *dataservice.Service, clk clock.Clock) *Server {
	srv := &Server{
		service: service,
		digests: cache.New(digestCacheSize),
		clock:   clk,
	}
	srv.router = mux.NewRouter()
	srv.PopulateRouter(srv.router)
	return srv
}

// PopulateRouter adds the diagnostic routes to an existing
// github.com/gorilla/mux router object.  This can be used, for
// instance, to place the diagnostic interface under a subpath:
//
//	r := mux.NewRouter()
//	s := r.PathPrefix("/admin").Subrouter()
//	srv.PopulateRouter(s)
func (srv *Server) PopulateRouter(r *mux.Router) {
	r.Path("/diag").Name("diag").Methods("GET", "HEAD").
		HandlerFunc(srv.Diagnostic)
	r.Path("/metrics").Name("metrics").Handler(promhttp.Handler())
}

// Middleware builds the standard middleware stack: panic recovery,
// then per-request logging tagged with a request ID.  A nil logger
// disables request logging.  Callers add their own final handler;
// Handler is the common case.
func Middleware(logger *logrus.Logger) *negroni.Negroni {
	n := negroni.New(negroni.NewRecovery())
	if logger != nil {
		n.Use(&requestLogger{logger: logger})
	}
	return n
}

// Handler wraps the server's router in the standard middleware stack.
func (srv *Server) Handler(logger *logrus.Logger) http.Handler {
	n := Middleware(logger)
	n.UseHandler(srv.router)
	return n
}

// GetRequestParams extracts the query parameters the diagnostic
// entry point understands.  Parameters not present in the request are
// absent from the result, so callers can distinguish "not given"
// from "given as empty".
func GetRequestParams(req *http.Request) map[string]string {
	params := make(map[string]string)
	query := req.URL.Query()
	for _, key := range []string{"show", "node", "name", "vocab", "data", "doc"} {
		if values, present := query[key]; present && len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

// digestFor returns the (possibly cached) digest restricted to a
// node pattern.  An empty pattern means the whole tree.
func (srv *Server) digestFor(pattern string) (*digest.Digest, error) {
	if d := srv.digests.Peek(pattern); d != nil {
		cacheHits.Inc()
	} else {
		cacheMisses.Inc()
	}
	return srv.digests.Get(pattern, srv.buildDigest)
}

func (srv *Server) buildDigest(pattern string) (*digest.Digest, error) {
	builder := digest.NewBuilderWithClock(srv.service, srv.clock)
	if pattern != "" {
		if err := builder.SetNodePattern(pattern); err != nil {
			return nil, err
		}
	}
	digestBuilds.Inc()
	return builder.Build([]string{"/"}), nil
}

// requestLogger is a negroni middleware that logs every request on
// the way in and out, correlated by a fresh UUID.
type requestLogger struct {
	logger *logrus.Logger
}

func (l *requestLogger) ServeHTTP(resp http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
	id := uuid.NewV4()
	start := time.Now()
	l.logger.WithFields(logrus.Fields{
		"request": id,
		"method":  req.Method,
		"url":     req.URL.String(),
	}).Debug("Request")

	next(resp, req)

	l.logger.WithFields(logrus.Fields{
		"request":  id,
		"duration": time.Since(start),
	}).Debug("Response")
}
