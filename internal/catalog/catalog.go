// Package catalog registers the recruiting workflows by name.
//
// A [Definition] bundles what a controller needs beyond its schema: a factory
// for fresh section defaults and the branch handlers bound to caller-supplied
// [Hooks]. The [Registry] is the central lookup used by the CLI, the session
// store and the HTTP API.
//
// Workflows come from two places: the built-in definitions registered by
// [Default] (onboarding, interview-setup and candidate-interview), and
// manifest files named in the configuration ([Registry.RegisterManifests]).
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"recruitflow/internal/document"
	"recruitflow/internal/manifest"
	"recruitflow/internal/workflow"
)

// Sentinel errors for workflow lookup and registration.
var (
	// ErrUnknownWorkflow is returned when no definition is registered under a
	// name. Callers should report it as a usage error.
	ErrUnknownWorkflow = errors.New("unknown workflow")

	// ErrDuplicateWorkflow is returned when a name is registered twice.
	ErrDuplicateWorkflow = errors.New("workflow already registered")

	// ErrNoRedirect is returned by branch handlers that need to redirect when
	// the caller did not supply [Hooks.Redirect].
	ErrNoRedirect = errors.New("no redirect hook configured")
)

// Hooks connect branch handlers to the outside world.
type Hooks struct {
	// Redirect sends the user to url, e.g. the decline page.
	Redirect func(url string) error

	// Confirm asks the user a yes/no question. A nil Confirm counts as "no".
	Confirm func(prompt string) bool

	// DeclineURL is where a candidate who declines is sent.
	DeclineURL string
}

func (h Hooks) confirm(prompt string) bool {
	return h.Confirm != nil && h.Confirm(prompt)
}

// Definition describes one registered workflow.
type Definition struct {
	Name        string
	Title       string
	Description string
	Schema      *workflow.Schema

	// Defaults returns fresh section defaults for a new document. Nil means
	// the workflow has no sections.
	Defaults func() map[string]any

	// Branches binds the workflow's branch handlers to hooks. Nil means the
	// workflow has no branches.
	Branches func(Hooks) map[workflow.BranchEvent]workflow.BranchHandler

	// Source is "builtin" or the manifest path the definition was loaded from.
	Source string
}

// NewDocument creates a document holding fresh section defaults.
func (d Definition) NewDocument() document.Document {
	if d.Defaults == nil {
		return document.New(nil)
	}
	return document.New(d.Defaults())
}

// BranchEvents lists the events the workflow reacts to, sorted.
func (d Definition) BranchEvents() []workflow.BranchEvent {
	if d.Branches == nil {
		return nil
	}
	handlers := d.Branches(Hooks{})
	events := make([]workflow.BranchEvent, 0, len(handlers))
	for e := range handlers {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}

// Registry holds workflow definitions by name. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]Definition
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:   make(map[string]Definition),
		logger: slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger handed to every controller the registry creates.
func (r *Registry) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// Register adds a definition. The name must be unused and the schema set.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("workflow definition has no name")
	}
	if def.Schema == nil {
		return fmt.Errorf("workflow %s: %w", def.Name, workflow.ErrInvalidSchema)
	}
	if def.Title == "" {
		def.Title = def.Name
	}
	if def.Source == "" {
		def.Source = "builtin"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateWorkflow, def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownWorkflow, name)
	}
	return def, nil
}

// Names returns the registered workflow names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns all definitions sorted by name.
func (r *Registry) Definitions() []Definition {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.defs[name])
	}
	return defs
}

// NewController creates a controller for the named workflow with a fresh
// document and the workflow's branch handlers bound to hooks.
func (r *Registry) NewController(name string, hooks Hooks, opts ...workflow.Option) (*workflow.Controller, error) {
	def, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	logger := r.logger
	r.mu.RUnlock()

	all := []workflow.Option{workflow.WithLogger(logger.With("workflow", name))}
	if def.Branches != nil {
		all = append(all, workflow.WithBranches(def.Branches(hooks)))
	}
	all = append(all, opts...)

	c, err := workflow.NewController(def.Schema, def.NewDocument(), all...)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: %w", name, err)
	}
	return c, nil
}

// RegisterManifests loads each manifest and registers it under its name with
// empty-object section defaults. Loading stops at the first failure.
func (r *Registry) RegisterManifests(paths map[string]string) error {
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := paths[name]
		m, err := manifest.Load(path)
		if err != nil {
			return fmt.Errorf("workflow %s: %w", name, err)
		}
		schema, err := m.Schema(name)
		if err != nil {
			return err
		}
		if err := r.Register(Definition{
			Name:     name,
			Title:    name,
			Schema:   schema,
			Defaults: m.Defaults,
			Source:   path,
		}); err != nil {
			return err
		}
		r.logger.Debug("registered manifest workflow", "workflow", name, "path", path)
	}
	return nil
}

// Default returns a registry holding the built-in workflows.
func Default() *Registry {
	r := NewRegistry()
	for _, def := range []Definition{Onboarding(), InterviewSetup(), CandidateInterview()} {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

func mustSchema(s *workflow.Schema, err error) *workflow.Schema {
	if err != nil {
		panic(err)
	}
	return s
}
