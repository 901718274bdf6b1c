// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"

	"github.com/mmcclenn/go-dataservice/dataservice"
	"github.com/mmcclenn/go-dataservice/diagserver"
)

// HTTP serves a data service's operations and diagnostics.
type HTTP struct {
	service *dataservice.Service
	laddr   string
	logger  *logrus.Logger
}

// Serve runs an HTTP server on the specified local address.  This
// serves connections until the process exits; a setup or accept
// error is fatal.
func (h *HTTP) Serve() {
	r := mux.NewRouter()
	if h.service.Mode().Diagnostic {
		diagserver.New(h.service).PopulateRouter(r)
	} else {
		r.Path("/metrics").Handler(promhttp.Handler())
	}
	r.PathPrefix("/").HandlerFunc(h.Data)

	n := diagserver.Middleware(h.logger)
	n.UseHandler(r)

	logrus.WithFields(logrus.Fields{
		"address": h.laddr,
	}).Info("Serving HTTP")
	err := http.ListenAndServe(h.laddr, n)
	logrus.WithFields(logrus.Fields{
		"err": err,
	}).Fatal("HTTP server stopped")
}

// Data dispatches a request to the operation its node declares.  The
// node is found by URL path; its resolved role and method attributes
// select the handler function.
func (h *HTTP) Data(resp http.ResponseWriter, req *http.Request) {
	path := strings.Trim(req.URL.Path, "/")
	if path == "" {
		path = "/"
	}
	service := h.service

	if _, defined := service.Node(path); !defined {
		http.NotFound(resp, req)
		return
	}
	method, _ := service.Resolve(path, "method").(string)
	if method == "" {
		// A documentation or file node; not an operation.
		http.NotFound(resp, req)
		return
	}
	if allowed, isSet := service.Resolve(path, "allow_method").(dataservice.StringSet); isSet {
		if !allowed.Contains(req.Method) {
			http.Error(resp, "method not allowed",
				http.StatusMethodNotAllowed)
			return
		}
	}

	roleName, _ := service.Resolve(path, "role").(string)
	ops, defined := service.Role(roleName)
	if !defined {
		http.Error(resp, "no role for operation",
			http.StatusInternalServerError)
		return
	}
	op, defined := ops[method]
	if !defined {
		http.Error(resp, "role does not implement operation",
			http.StatusInternalServerError)
		return
	}

	params := make(map[string]string)
	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	result, err := op(&dataservice.Request{NodePath: path, Params: params})
	if err != nil {
		http.Error(resp, err.Error(), http.StatusInternalServerError)
		return
	}

	var body []byte
	handle := &codec.JsonHandle{}
	if err := codec.NewEncoderBytes(&body, handle).Encode(result); err != nil {
		http.Error(resp, err.Error(), http.StatusInternalServerError)
		return
	}
	resp.Header().Set("Content-Type", "application/json")
	resp.Write(body)

	if service.Mode().OneRequest {
		logrus.Info("Exiting after one request")
		os.Exit(0)
	}
}
