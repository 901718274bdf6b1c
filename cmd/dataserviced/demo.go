// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"github.com/mmcclenn/go-dataservice/dataservice"
)

// demoService declares the example configuration the daemon serves: a
// small tree of region-listing operations with output blocks, a
// value set for optional output, and shared parameter rulesets.
// Global configuration values, if any, back attribute resolution for
// anything the tree does not set.
func demoService(mode dataservice.RunMode, gConfig map[string]interface{}) (*dataservice.Service, error) {
	s := dataservice.New("demo", "1.1")
	if err := s.SetMode(mode); err != nil {
		return nil, err
	}
	if gConfig != nil {
		if err := s.SetConfigLookup(func(key string) interface{} {
			return gConfig[key]
		}); err != nil {
			return nil, err
		}
	}

	if err := s.RegisterRole("regions", map[string]dataservice.OperationFunc{
		"list":   listRegions,
		"single": singleRegion,
	}); err != nil {
		return nil, err
	}

	if _, err := s.DefineFormat("json", map[string]interface{}{
		"content_type": "application/json",
		"title":        "JSON",
	}); err != nil {
		return nil, err
	}
	if _, err := s.DefineFormat("txt", map[string]interface{}{
		"content_type": "text/plain",
		"title":        "Plain text",
		"is_text":      true,
	}); err != nil {
		return nil, err
	}
	if _, err := s.DefineVocab("default", map[string]interface{}{
		"title":           "Default",
		"use_field_names": true,
	}); err != nil {
		return nil, err
	}

	if _, err := s.DefineBlock("basic",
		map[string]interface{}{"name": "id"},
		map[string]interface{}{"name": "name"},
	); err != nil {
		return nil, err
	}
	if _, err := s.DefineBlock("geo",
		map[string]interface{}{"name": "lng"},
		map[string]interface{}{"name": "lat"},
	); err != nil {
		return nil, err
	}
	if _, err := s.DefineSet("extras",
		map[string]interface{}{"value": "geo", "maps_to": "geo"},
	); err != nil {
		return nil, err
	}

	if _, err := s.DefineRuleset("1.1:common",
		dataservice.Rule{Param: "limit", Validator: "pos_int"},
		dataservice.Rule{Param: "offset", Validator: "pos_int"},
	); err != nil {
		return nil, err
	}
	if _, err := s.DefineRuleset("1.1:regions:list",
		dataservice.Rule{Param: "show", Validator: "string"},
		dataservice.Rule{Allow: "1.1:common"},
	); err != nil {
		return nil, err
	}
	if _, err := s.DefineRuleset("1.1:regions:single",
		dataservice.Rule{Param: "id", Validator: "string"},
	); err != nil {
		return nil, err
	}

	if err := s.DefineSpecial("limit", "limit"); err != nil {
		return nil, err
	}

	if _, err := s.DefineNode("/", map[string]interface{}{
		"title":          "Demo data service",
		"role":           "regions",
		"allow_format":   "json,txt",
		"default_format": "json",
		"doc_template":   "docs/{path}",
	}); err != nil {
		return nil, err
	}
	if _, err := s.DefineNode("regions", map[string]interface{}{
		"title":  "Regions",
		"output": "basic",
	}); err != nil {
		return nil, err
	}
	if _, err := s.DefineNode("regions/list", map[string]interface{}{
		"title":           "List regions",
		"method":          "list",
		"optional_output": "extras",
	}); err != nil {
		return nil, err
	}
	if _, err := s.DefineNode("regions/single", map[string]interface{}{
		"title":  "Single region",
		"method": "single",
	}); err != nil {
		return nil, err
	}
	if _, err := s.DefineNode("docs", map[string]interface{}{
		"title":    "Documentation",
		"file_dir": "doc/html",
	}); err != nil {
		return nil, err
	}

	s.Freeze()
	return s, nil
}

var demoRegions = []map[string]interface{}{
	{"id": "na", "name": "North America", "lng": -100.0, "lat": 45.0},
	{"id": "eu", "name": "Europe", "lng": 15.0, "lat": 50.0},
	{"id": "as", "name": "Asia", "lng": 90.0, "lat": 35.0},
}

func listRegions(req *dataservice.Request) (interface{}, error) {
	return map[string]interface{}{"records": demoRegions}, nil
}

func singleRegion(req *dataservice.Request) (interface{}, error) {
	id := req.Params["id"]
	for _, region := range demoRegions {
		if region["id"] == id {
			return map[string]interface{}{"records": []interface{}{region}}, nil
		}
	}
	return map[string]interface{}{"records": []interface{}{}}, nil
}
