// Package template substitutes {{name}} placeholders in node text against a
// variable environment. Resolution is pure: the same template and variables
// always produce the same output, and resolving twice changes nothing.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderPattern matches {{name}} with optional inner whitespace.
// Names are identifiers: letter or underscore first, then word characters.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// MissingPolicy selects what happens when a placeholder has no binding.
type MissingPolicy int

const (
	// MissingError fails resolution, reporting every unbound name.
	// This is the default: silently emitting broken text toward a user or
	// an LLM is worse than failing the step.
	MissingError MissingPolicy = iota

	// MissingKeep leaves the placeholder untouched.
	MissingKeep

	// MissingEmpty replaces the placeholder with an empty string.
	MissingEmpty
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithMissingPolicy sets the unbound-variable policy.
func WithMissingPolicy(p MissingPolicy) Option {
	return func(r *Resolver) { r.missing = p }
}

// Resolver substitutes placeholders in strings.
// Safe for concurrent use after construction.
type Resolver struct {
	missing MissingPolicy
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{missing: MissingError}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve replaces every {{name}} in s with the string form of vars[name].
// Text outside placeholders, including literal braces that do not form a
// placeholder, passes through unchanged.
//
// With the MissingError policy the returned error is a
// *MissingVariableError listing every unbound name encountered.
func (r *Resolver) Resolve(s string, vars map[string]any) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		if val, ok := vars[name]; ok {
			return fmt.Sprintf("%v", val)
		}
		switch r.missing {
		case MissingKeep:
			return match
		case MissingEmpty:
			return ""
		default:
			missing = append(missing, name)
			return match
		}
	})

	if len(missing) > 0 {
		return "", &MissingVariableError{Names: missing}
	}
	return out, nil
}

// Vars returns the distinct placeholder names referenced by s, in order of
// first appearance. Useful for static inspection of a definition.
func Vars(s string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
		name := m[1]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// defaultResolver fails on unbound variables.
var defaultResolver = NewResolver()

// Resolve substitutes placeholders with the default (error-on-missing)
// resolver.
func Resolve(s string, vars map[string]any) (string, error) {
	return defaultResolver.Resolve(s, vars)
}

// MissingVariableError reports placeholders with no binding.
type MissingVariableError struct {
	// Names lists the unbound variable names, in order of appearance.
	Names []string
}

// Error implements the error interface.
func (e *MissingVariableError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("missing variable: %s", e.Names[0])
	}
	return fmt.Sprintf("missing variables: %s", strings.Join(e.Names, ", "))
}
