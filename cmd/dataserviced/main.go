// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package dataserviced runs a demonstration data service daemon.  It
// declares a small example node tree, serves its operations over
// HTTP, and exposes the diagnostic surface so the configuration can
// be probed and digested while the daemon runs.
package main

import (
	"flag"
	"io/ioutil"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/mmcclenn/go-dataservice/dataservice"
)

func main() {
	var err error

	httpBind := flag.String("http", ":6980",
		"[ip]:port for the HTTP interface")
	config := flag.String("config", "", "global configuration YAML file")
	logRequests := flag.Bool("log-requests", false, "log all requests")
	debug := flag.Bool("debug", false, "enable verbose logging")
	diagnostic := flag.Bool("diagnostic", true,
		"serve the diagnostic interface")
	oneRequest := flag.Bool("one-request", false,
		"exit after serving a single data request")
	flag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	var gConfig map[string]interface{}
	if *config != "" {
		gConfig, err = loadConfigYaml(*config)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"err": err,
			}).Fatal("Could not load YAML configuration")
			return
		}
	}

	mode := dataservice.RunMode{
		Debug:      *debug,
		Diagnostic: *diagnostic,
		OneRequest: *oneRequest,
	}
	service, err := demoService(mode, gConfig)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err,
		}).Fatal("Could not build the service configuration")
		return
	}

	var reqLogger *logrus.Logger
	if *logRequests {
		stdlog := logrus.StandardLogger()
		reqLogger = &logrus.Logger{
			Out:       stdlog.Out,
			Formatter: stdlog.Formatter,
			Hooks:     stdlog.Hooks,
			Level:     logrus.DebugLevel,
		}
	}

	h := &HTTP{service: service, laddr: *httpBind, logger: reqLogger}
	h.Serve()
}

func loadConfigYaml(filename string) (map[string]interface{}, error) {
	var result map[string]interface{}
	var err error
	var bytes []byte
	bytes, err = ioutil.ReadFile(filename)
	if err == nil {
		err = yaml.Unmarshal(bytes, &result)
	}
	return result, err
}
