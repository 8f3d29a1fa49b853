package cmd

import (
	"sort"
	"sync"
)

// Registry stores commands by name and alias. It does not dispatch; adapters
// look commands up and invoke them with their own context.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
	aliases  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// Register adds c under its name and any aliases. Registering a name again
// replaces the earlier command.
func (r *Registry) Register(c Command, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[c.Name()] = c
	for _, a := range aliases {
		r.aliases[a] = c.Name()
	}
}

// Get returns the command registered under name or alias, or nil.
func (r *Registry) Get(name string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.commands[name]; ok {
		return c
	}
	if target, ok := r.aliases[name]; ok {
		return r.commands[target]
	}
	return nil
}

// GetAll returns all registered commands, sorted by name.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}

// Apply wraps every registered command with mws, keeping names and aliases.
func (r *Registry) Apply(mws ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, c := range r.commands {
		r.commands[name] = Apply(c, mws...)
	}
}
