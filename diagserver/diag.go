// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package diagserver

import (
	"net/http"

	"github.com/jtacoma/uritemplates"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ugorji/go/codec"
	"gopkg.in/yaml.v2"

	"github.com/mmcclenn/go-dataservice/digest"
)

// defaultDocTemplate generates documentation links for nodes that do
// not set their own doc_template attribute.
const defaultDocTemplate = "docs/{path}"

// Diagnostic is the HTTP entry point for all diagnostic probes.  The
// "show" query parameter selects the probe; further parameters
// narrow it down.  An unrecognized probe reports an error to the
// client but never takes the server down.
func (srv *Server) Diagnostic(resp http.ResponseWriter, req *http.Request) {
	params := GetRequestParams(req)
	show, present := params["show"]
	if !present {
		show = "digest"
	}
	requestCount.With(prometheus.Labels{"show": show}).Inc()

	var (
		out interface{}
		err error
	)
	switch show {
	case "digest":
		out, err = srv.digestFor(params["node"])
	case "node":
		out, err = srv.showNode(params)
	case "block", "set", "ruleset", "format", "vocab":
		out, err = srv.showCategory(show, params)
	default:
		err = UnknownDiagnostic{Value: show}
	}
	srv.sendResponse(resp, params["data"], out, err)
}

// showNode reports one node's digest record, or all node records if
// no name is given.  With the doc parameter set, the record gains a
// doc_url entry pointing at the node's documentation.
func (srv *Server) showNode(params map[string]string) (interface{}, error) {
	d, err := srv.digestFor(params["node"])
	if err != nil {
		return nil, err
	}
	name, present := params["name"]
	if !present {
		return d.Node, nil
	}
	record, present := d.Node[name]
	if !present {
		return nil, NotFound{Category: "node", Name: name}
	}
	if params["doc"] == "" {
		return record, nil
	}
	url, err := srv.docURL(name)
	if err != nil {
		return nil, err
	}
	// Cached digest records are shared; never write into one.
	annotated := make(map[string]interface{}, len(record)+1)
	for key, value := range record {
		annotated[key] = value
	}
	annotated["doc_url"] = url
	return annotated, nil
}

// showCategory reports one named record from a digest category, or
// the whole category if no name is given.
func (srv *Server) showCategory(category string, params map[string]string) (interface{}, error) {
	d, err := srv.digestFor(params["node"])
	if err != nil {
		return nil, err
	}
	var records map[string]map[string]interface{}
	switch category {
	case "block":
		records = d.Block
	case "set":
		records = d.Set
	case "ruleset":
		records = d.Ruleset
	case "format":
		records = d.DS.Format
	case "vocab":
		records = d.DS.Vocab
	}
	name, present := params["name"]
	if !present {
		return records, nil
	}
	record, present := records[name]
	if !present {
		return nil, NotFound{Category: category, Name: name}
	}
	if category == "block" && params["vocab"] != "" {
		return blockInVocab(record, params["vocab"]), nil
	}
	return record, nil
}

// blockInVocab narrows a block record to the fields carrying a
// specific vocabulary.  Fields with no vocabulary of their own are
// kept; they render the same under every vocabulary.
func blockInVocab(record map[string]interface{}, vocab string) map[string]interface{} {
	fields, _ := record["fields"].([]string)
	fieldVocab, _ := record["field_vocab"].(map[string]string)
	narrowed := []string{}
	for _, field := range fields {
		if fv := fieldVocab[field]; fv == "" || fv == vocab {
			narrowed = append(narrowed, field)
		}
	}
	return map[string]interface{}{
		"fields": narrowed,
		"vocab":  vocab,
	}
}

// docURL expands a node's documentation URI template.  The template
// comes from the node's resolved doc_template attribute, with a
// server-wide default.
func (srv *Server) docURL(path string) (string, error) {
	template, _ := srv.service.Resolve(path, "doc_template").(string)
	if template == "" {
		template = defaultDocTemplate
	}
	tmpl, err := uritemplates.Parse(template)
	if err != nil {
		return "", err
	}
	vars := map[string]interface{}{"path": path}
	if title, isString := srv.service.Resolve(path, "title").(string); isString {
		vars["title"] = title
	}
	return tmpl.Expand(vars)
}

// sendResponse renders a diagnostic result, or an error, in the
// requested data format.  YAML is the default; data=json selects
// JSON.
func (srv *Server) sendResponse(resp http.ResponseWriter, format string, out interface{}, err error) {
	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
		if errS, hasStatus := err.(statusError); hasStatus {
			status = errS.HTTPStatus()
		}
		out = map[string]interface{}{"error": err.Error()}
	}

	var (
		body        []byte
		contentType string
	)
	if format == "json" {
		contentType = "application/json"
		handle := &codec.JsonHandle{}
		err = codec.NewEncoderBytes(&body, handle).Encode(out)
	} else {
		contentType = "text/x-yaml; charset=utf-8"
		if d, isDigest := out.(*digest.Digest); isDigest {
			body, err = digest.Marshal(d)
		} else {
			body, err = yaml.Marshal(out)
		}
	}
	if err != nil {
		// The result itself would not serialize; nothing better
		// to do than a plain-text 500.
		http.Error(resp, err.Error(), http.StatusInternalServerError)
		return
	}

	resp.Header().Set("Content-Type", contentType)
	resp.WriteHeader(status)
	resp.Write(body)
}
