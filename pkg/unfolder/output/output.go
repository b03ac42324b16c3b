// Package output renders the results of unfolder commands in several
// formats (pretty, plain, json, yaml).
//
// Formatters are kept in a registry and selected at runtime:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.FromUnfold(res, "full")); err != nil {
//	    return err
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Kind identifies the command a Report describes.
type Kind string

// Report kinds.
const (
	KindUnfold  Kind = "unfold"
	KindRefold  Kind = "refold"
	KindStatus  Kind = "status"
	KindAbandon Kind = "abandon"
	KindHistory Kind = "history"
)

// Move is one file relocation, or one that is ready to happen.
type Move struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Pending is a manifest entry left behind by a refold.
type Pending struct {
	Original string `json:"original" yaml:"original"`
	Flat     string `json:"flat" yaml:"flat"`
	Reason   string `json:"reason" yaml:"reason"`
}

// HistoryRow is one journal record.
type HistoryRow struct {
	ID        string        `json:"id" yaml:"id"`
	Time      time.Time     `json:"time" yaml:"time"`
	Operation string        `json:"operation" yaml:"operation"`
	Root      string        `json:"root" yaml:"root"`
	Files     int           `json:"files" yaml:"files"`
	Missing   int           `json:"missing" yaml:"missing"`
	Bytes     int64         `json:"bytes" yaml:"bytes"`
	Complete  bool          `json:"complete" yaml:"complete"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Report is the formatter input shared by every command.
type Report struct {
	Kind Kind `json:"kind" yaml:"kind"`

	// Root is the absolute root the command ran against.
	Root string `json:"root,omitempty" yaml:"root,omitempty"`

	// ManifestPath is the manifest location.
	ManifestPath string `json:"manifest,omitempty" yaml:"manifest,omitempty"`

	// ManifestKept reports whether the manifest still exists afterwards.
	ManifestKept bool `json:"manifest_kept" yaml:"manifest_kept"`

	// Absolute is the manifest path mode.
	Absolute bool `json:"absolute" yaml:"absolute"`

	// Strategy is the naming strategy, for unfold.
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`

	// Moves are the files moved, or for status the files ready to move.
	Moves []Move `json:"moves" yaml:"moves"`

	// Pending are the entries still waiting for a refold.
	Pending []Pending `json:"pending" yaml:"pending"`

	// Total is the number of manifest entries, for status.
	Total int `json:"total,omitempty" yaml:"total,omitempty"`

	DirsCreated int           `json:"dirs_created" yaml:"dirs_created"`
	DirsRemoved int           `json:"dirs_removed" yaml:"dirs_removed"`
	Bytes       int64         `json:"bytes" yaml:"bytes"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed"`

	// Discarded is how an abandoned manifest was disposed of.
	Discarded string `json:"discarded,omitempty" yaml:"discarded,omitempty"`

	// History holds journal records, newest first.
	History []HistoryRow `json:"history,omitempty" yaml:"history,omitempty"`

	// Warnings are shown after the summary.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Formatter is the interface that all output formatters implement.
type Formatter interface {
	// Format writes the formatted report to the buffer.
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns the names in the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
