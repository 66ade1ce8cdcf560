package node

import (
	"sort"

	"github.com/randalmurphal/stepflow/pkg/stepflow/config"
	"github.com/randalmurphal/stepflow/pkg/stepflow/expr"
	"github.com/randalmurphal/stepflow/pkg/stepflow/template"
)

// SetVarType writes variables into the environment without emitting any
// output. String values support {{var}} templating and bare variable
// references; everything else is stored literally.
//
// Config:
//
//	variables: required; mapping of variable name -> value
type SetVarType struct{}

func (SetVarType) Name() string { return TypeSetVar }

func (SetVarType) Interactive() bool { return false }

func (SetVarType) Terminal() bool { return false }

func (SetVarType) Compile(nodeID string, cfg config.Config) (Exec, error) {
	vars := cfg.Map("variables")
	if vars == nil {
		return nil, &ConfigError{NodeID: nodeID, Field: "variables", Reason: "required; must be a mapping"}
	}
	if len(vars) == 0 {
		return nil, &ConfigError{NodeID: nodeID, Field: "variables", Reason: "must set at least one variable"}
	}

	// Sorted for deterministic evaluation order.
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	return &setVarExec{names: names, values: vars}, nil
}

type setVarExec struct {
	names  []string
	values map[string]any
}

func (e *setVarExec) Execute(ctx Context, req Request) (*Result, error) {
	updates := make(map[string]any, len(e.names))
	env := make(map[string]any, len(req.Vars)+len(updates))
	for k, v := range req.Vars {
		env[k] = v
	}

	for _, name := range e.names {
		value := e.values[name]
		if s, ok := value.(string); ok {
			if len(template.Vars(s)) > 0 {
				rendered, err := template.Resolve(s, env)
				if err != nil {
					return nil, err
				}
				value = rendered
			} else {
				value = expr.Resolve(s, env)
			}
		}
		updates[name] = value
		env[name] = value
	}

	return &Result{Outcome: OutcomeEmit, Vars: updates}, nil
}
