// Package responder holds the personality registry and the built-in
// personality implementations. A personality is a named, pluggable
// capability that may produce a chat reply given conversation context.
package responder

import (
	"fmt"
	"log/slog"
	"sort"

	"chat-relay/contract"
)

// Descriptor bundles a personality's invocable capability with the
// metadata shown on selection screens. The metadata plays no role in
// protocol correctness.
type Descriptor struct {
	Name          string
	Description   string
	Intelligence  int
	Cost          int
	ContextWindow int
	MaxOutput     int
	Capability    contract.Responder
}

// Registry maps personality names to descriptors. It is built once at
// process start and never mutated afterwards, so lookups need no lock.
type Registry struct {
	descriptors map[string]Descriptor
}

// Load builds the registry from the given descriptors. When two
// descriptors declare the same name the last one wins and replaces the
// earlier registration; this mirrors how the plugin loader always
// behaved, so it is logged rather than rejected.
func Load(log *slog.Logger, descriptors ...Descriptor) *Registry {
	loaded := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		if _, ok := loaded[d.Name]; ok {
			log.Warn("Duplicate personality name, last registration wins", "name", d.Name)
		}
		loaded[d.Name] = d
		log.Info(fmt.Sprintf("Loaded personality: %s", d.Name))
	}
	return &Registry{descriptors: loaded}
}

func (r *Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

func (r *Registry) Has(name string) bool {
	_, ok := r.descriptors[name]
	return ok
}

// Names returns all registered personality names, sorted for stable
// display.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns descriptors in name order.
func (r *Registry) All() []Descriptor {
	all := make([]Descriptor, 0, len(r.descriptors))
	for _, name := range r.Names() {
		all = append(all, r.descriptors[name])
	}
	return all
}
