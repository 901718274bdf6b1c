// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package dataservice implements the configuration core of a
// data-query service.  An application declares a tree of nodes, one
// per URL path, along with the output blocks, value sets, parameter
// rulesets, response formats, and vocabularies those nodes refer to.
// The package then answers attribute queries against that tree,
// applying per-attribute inheritance and composition rules and
// memoizing every answer.
//
// Configuration is declared once at startup and then closed.  Call
// Freeze() when the last Define call has been made; after that the
// service is safe for concurrent read-only use from any number of
// goroutines.  Defining anything after resolution has begun is a
// programmer error, and the resolver does not try to detect it.
package dataservice

import (
	"sort"
	"sync"
)

// RunMode carries the global operating switches for a service
// instance.  It is plain data, set at construction time and passed
// down explicitly; there is no ambient mode state.
type RunMode struct {
	// Debug enables verbose logging in the surrounding host.
	Debug bool

	// Diagnostic enables the diagnostic query surface.
	Diagnostic bool

	// OneRequest asks the host to exit after a single request,
	// which is useful under debuggers and profilers.
	OneRequest bool
}

// Service holds one complete data-service configuration: the node
// tree plus every named entity the nodes can reference.  The zero
// value is not usable; call New.
type Service struct {
	name    string
	version string
	mode    RunMode

	registry *Registry

	nodes     map[string]*Node
	nodeOrder []string

	roles map[string]map[string]OperationFunc

	formats     map[string]*Format
	formatOrder []string
	vocabs      map[string]*Vocab
	vocabOrder  []string
	blocks      map[string]*Block
	sets        map[string]*ValueSet
	rulesets    map[string]*Ruleset
	specials    map[string]string

	rulesetPrefix string
	configValue   func(key string) interface{}

	// cacheLock guards cache.  Resolution may run from several
	// request-handling goroutines at once after the service is
	// frozen; everything else the resolver touches is immutable
	// by then.
	cacheLock sync.RWMutex
	cache     map[cacheKey]interface{}
	frozen    bool
}

// OperationFunc is the signature of a node operation handler.  The
// request carries the node path and the already-parsed query
// parameters; anything richer belongs to the HTTP host, not here.
type OperationFunc func(req *Request) (interface{}, error)

// Request is the minimal request representation the configuration
// core needs to see.  The HTTP layer constructs one of these from
// whatever its own request type is.
type Request struct {
	// NodePath names the node the request was routed to.  If
	// empty, attribute resolution treats it as the root path.
	NodePath string

	// Params holds the parsed query parameters.
	Params map[string]string
}

// New creates an empty service configuration with the given identity
// name and version.  The identity is what ties a persisted digest
// back to the service that produced it.
func New(name, version string) *Service {
	return &Service{
		name:          name,
		version:       version,
		registry:      StandardNodeAttributes(),
		nodes:         make(map[string]*Node),
		roles:         make(map[string]map[string]OperationFunc),
		formats:       make(map[string]*Format),
		vocabs:        make(map[string]*Vocab),
		blocks:        make(map[string]*Block),
		sets:          make(map[string]*ValueSet),
		rulesets:      make(map[string]*Ruleset),
		specials:      make(map[string]string),
		rulesetPrefix: "1.1:",
		cache:         make(map[cacheKey]interface{}),
	}
}

// Name returns the service identity name.
func (s *Service) Name() string { return s.name }

// Version returns the service identity version.
func (s *Service) Version() string { return s.version }

// Mode returns the run mode the service was configured with.
func (s *Service) Mode() RunMode { return s.mode }

// SetMode records the run mode.  Like every other setter this must
// happen before Freeze.
func (s *Service) SetMode(mode RunMode) error {
	if s.frozen {
		return ErrFrozen
	}
	s.mode = mode
	return nil
}

// SetRulesetPrefix changes the prefix used when deriving a ruleset
// name from a node path.  The default is "1.1:".
func (s *Service) SetRulesetPrefix(prefix string) error {
	if s.frozen {
		return ErrFrozen
	}
	s.rulesetPrefix = prefix
	return nil
}

// SetConfigLookup installs an external configuration-value source.
// When attribute resolution reaches the root of the tree without an
// answer, it consults this function before falling back to the
// built-in defaults.  A nil return means "no value".
func (s *Service) SetConfigLookup(fn func(key string) interface{}) error {
	if s.frozen {
		return ErrFrozen
	}
	s.configValue = fn
	return nil
}

// Freeze closes the definition phase.  After Freeze, every Define
// call fails with ErrFrozen, and the service may be shared freely
// between goroutines for read-only resolution.
func (s *Service) Freeze() {
	s.frozen = true
}

// Registry returns the attribute registry in use.
func (s *Service) Registry() *Registry {
	return s.registry
}

// NodePaths returns every defined node path in sorted order.
func (s *Service) NodePaths() []string {
	paths := make([]string, 0, len(s.nodes))
	for p := range s.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// NodesUnder returns, in sorted order, the path of every node at or
// below root in the path hierarchy.  The root path "/" selects every
// node.
func (s *Service) NodesUnder(root string) []string {
	var paths []string
	for _, p := range s.NodePaths() {
		if p == root || root == "/" || hasPathPrefix(p, root) {
			paths = append(paths, p)
		}
	}
	return paths
}

// Node retrieves a defined node by path.
func (s *Service) Node(path string) (*Node, bool) {
	n, ok := s.nodes[path]
	return n, ok
}

// Format retrieves a defined response format by name.
func (s *Service) Format(name string) (*Format, bool) {
	f, ok := s.formats[name]
	return f, ok
}

// FormatNames returns the names of all defined formats, in
// definition order.
func (s *Service) FormatNames() []string {
	return append([]string(nil), s.formatOrder...)
}

// Vocab retrieves a defined vocabulary by name.
func (s *Service) Vocab(name string) (*Vocab, bool) {
	v, ok := s.vocabs[name]
	return v, ok
}

// VocabNames returns the names of all defined vocabularies, in
// definition order.
func (s *Service) VocabNames() []string {
	return append([]string(nil), s.vocabOrder...)
}

// Block retrieves a defined output block by name.
func (s *Service) Block(name string) (*Block, bool) {
	b, ok := s.blocks[name]
	return b, ok
}

// Set retrieves a defined value set by name.
func (s *Service) Set(name string) (*ValueSet, bool) {
	v, ok := s.sets[name]
	return v, ok
}

// Ruleset retrieves a defined parameter ruleset by name.
func (s *Service) Ruleset(name string) (*Ruleset, bool) {
	r, ok := s.rulesets[name]
	return r, ok
}

// Specials returns the table of special parameters: a map from the
// special token to the local parameter name the host exposes it
// under.
func (s *Service) Specials() map[string]string {
	out := make(map[string]string, len(s.specials))
	for k, v := range s.specials {
		out[k] = v
	}
	return out
}

// Role returns the operation table registered for a role name.
func (s *Service) Role(name string) (map[string]OperationFunc, bool) {
	r, ok := s.roles[name]
	return r, ok
}
