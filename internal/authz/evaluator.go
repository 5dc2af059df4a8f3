package authz

// Evaluator answers whether a (role, resource, action, scope) request is
// covered by the registry. It is pure and total: unknown roles, resources,
// actions or scopes simply evaluate to false.
type Evaluator struct {
	registry *Registry
}

// NewEvaluator constructs an Evaluator over the given registry.
func NewEvaluator(registry *Registry) *Evaluator {
	return &Evaluator{registry: registry}
}

// Allows reports whether any grant held by role covers the request. A grant
// matches when the resource is equal, the action is equal or the grant action
// is manage, and the requested scope is ScopeNone, equal to the grant scope,
// or the grant scope is all. Overlapping grants carry no precedence; any
// single match suffices.
func (e *Evaluator) Allows(role Role, resource string, action Action, scope Scope) bool {
	if e == nil {
		return false
	}
	for _, grant := range e.registry.Grants(role) {
		if grant.Resource != resource {
			continue
		}
		if grant.Action != action && grant.Action != ActionManage {
			continue
		}
		if scope != ScopeNone && grant.Scope != scope && grant.Scope != ScopeAll {
			continue
		}
		return true
	}
	return false
}
