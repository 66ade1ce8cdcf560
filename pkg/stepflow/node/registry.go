package node

import (
	"github.com/randalmurphal/stepflow/pkg/stepflow/registry"
)

// Registry maps type tags to node type implementations.
// Safe for concurrent use.
type Registry struct {
	types *registry.Registry[string, Type]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: registry.New[string, Type]()}
}

// Builtin returns a registry with the built-in node types registered.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register(PromptType{})
	r.Register(OutputType{})
	r.Register(LLMType{})
	r.Register(BranchType{})
	r.Register(SetVarType{})
	return r
}

// Register adds or replaces a node type by its Name.
func (r *Registry) Register(t Type) {
	r.types.Register(t.Name(), t)
}

// Get returns the type for a tag.
func (r *Registry) Get(name string) (Type, bool) {
	return r.types.Get(name)
}

// Has reports whether a tag is registered.
func (r *Registry) Has(name string) bool {
	return r.types.Has(name)
}

// Names returns all registered type tags.
func (r *Registry) Names() []string {
	return r.types.Keys()
}
