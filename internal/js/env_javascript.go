// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package js

import (
	"gopkg.polyfront.org/frontend.go/internal/ast"
)

// binding is one block-scoped or parameter binding.
type binding struct {
	name string
	kind ast.ResolutionKind
}

// env is the scope environment threaded through lowering. It is passed in
// and returned out of every lowering call that can introduce bindings; the
// caller must continue with the returned value and discard the one it passed
// in, which is what makes block scoping exact for sibling statements.
//
// locals holds block-scoped bindings and parameters, newest first, so the
// first match implements nearest-enclosing-scope shadowing. vars is the
// enclosing function's mutable set of function-scoped (`var`) binding names;
// it is shared by every env within one function and copied on entry to a
// nested function so inner declarations never leak outward.
type env struct {
	locals []binding
	vars   map[string]bool
}

func newEnv() env {
	return env{vars: map[string]bool{}}
}

// withLocal returns an extended environment; the receiver is unchanged.
func (e env) withLocal(name string, kind ast.ResolutionKind) env {
	locals := make([]binding, 0, len(e.locals)+1)
	locals = append(locals, binding{name: name, kind: kind})
	locals = append(locals, e.locals...)
	return env{locals: locals, vars: e.vars}
}

// addVar registers a function-scoped binding. Visible for the remainder of
// the enclosing function regardless of block depth, hence the mutation.
func (e env) addVar(name string) {
	e.vars[name] = true
}

// enterFunction begins a nested function scope: parameters become bindings
// and the function-scoped set is copied so the inner function's vars stay
// its own. Enclosing block-scoped bindings remain visible (closure).
func (e env) enterFunction(params []string) env {
	inner := env{locals: e.locals, vars: make(map[string]bool, len(e.vars))}
	for name := range e.vars {
		inner.vars[name] = true
	}
	for _, p := range params {
		inner = inner.withLocal(p, ast.ResolvedParameter)
	}
	return inner
}

// lookup classifies an identifier. The order is load-bearing: block-scoped
// bindings and parameters shadow function-scoped ones, and any binding
// shadows the host-environment special forms checked by the caller.
func (e env) lookup(name string) ast.ResolutionKind {
	for _, b := range e.locals {
		if b.name == name {
			return b.kind
		}
	}
	if e.vars[name] {
		return ast.ResolvedLocal
	}
	return ast.Unresolved
}

// specialForms are the host-environment pseudo-identifiers recognized when
// an identifier is bound nowhere. A local or parameter binding with one of
// these names shadows the special form.
var specialForms = map[string]ast.SpecialKind{
	"arguments": ast.SpecialArguments,
	"require":   ast.SpecialRequire,
	"exports":   ast.SpecialExports,
	"module":    ast.SpecialModule,
	"eval":      ast.SpecialEval,
}
