// © 2026 Polyfront Authors
//
// SPDX-License-Identifier: Apache-2.0

package iter

import (
	"context"

	"gopkg.polyfront.org/frontend.go/internal/lang"
	"gopkg.polyfront.org/frontend.go/internal/optional"
)

// NewSlice converts a slice of values into an Iterator implementation. This
// is how pre-lexed token lists enter the parsing pipeline.
func NewSlice[T any](vs []T) lang.Iterator[T] {
	return &iteratorSlice[T]{slice: vs, offset: -1}
}

type iteratorSlice[T any] struct {
	slice  []T
	offset int
}

func (it *iteratorSlice[T]) Next(ctx context.Context) optional.Optional[T] {
	it.offset = it.offset + 1
	if it.offset >= len(it.slice) {
		return optional.None[T]()
	}
	return optional.Some(it.slice[it.offset])
}

func (it *iteratorSlice[T]) Close(ctx context.Context) error {
	return nil
}

// NewFilter wraps an iterator so that only values passing the filter are
// returned. Parsers use this to discard tokens with no grammatical
// significance (whitespace, comments) without the lexer having to know which
// grammar is being parsed.
func NewFilter[T any](it lang.Iterator[T], f lang.Filter[T]) lang.Iterator[T] {
	return &iteratorFilter[T]{iter: it, filter: f}
}

type iteratorFilter[T any] struct {
	iter   lang.Iterator[T]
	filter lang.Filter[T]
}

func (it *iteratorFilter[T]) Next(ctx context.Context) optional.Optional[T] {
	for {
		v := it.iter.Next(ctx)
		if !v.IsPresent() {
			return v
		}
		if it.filter.Keep(ctx, v.Value()) {
			return v
		}
	}
}

func (it *iteratorFilter[T]) Close(ctx context.Context) error {
	return it.iter.Close(ctx)
}

// NewMapper wraps an iterator with a stateful rewrite function. The function
// receives each upstream value and returns zero or more replacement values;
// replacements are yielded before the next upstream value is requested. The
// newline-coalescing stage of the Scala token stream is built on this.
func NewMapper[T any](it lang.Iterator[T], f func(ctx context.Context, v optional.Optional[T]) []T) lang.Iterator[T] {
	return &iteratorMapper[T]{iter: it, mapper: f}
}

type iteratorMapper[T any] struct {
	iter    lang.Iterator[T]
	mapper  func(ctx context.Context, v optional.Optional[T]) []T
	pending []T
	done    bool
}

func (it *iteratorMapper[T]) Next(ctx context.Context) optional.Optional[T] {
	for {
		if len(it.pending) > 0 {
			v := it.pending[0]
			it.pending = it.pending[1:]
			return optional.Some(v)
		}
		if it.done {
			return optional.None[T]()
		}
		up := it.iter.Next(ctx)
		if !up.IsPresent() {
			it.done = true
		}
		it.pending = it.mapper(ctx, up)
	}
}

func (it *iteratorMapper[T]) Close(ctx context.Context) error {
	return it.iter.Close(ctx)
}

// NewLookahead wraps an iterator in a Lookahead implementation to enable
// non-destructive peeking at the next n values.
func NewLookahead[T any](it lang.Iterator[T], n uint8) lang.Lookahead[T] {
	return &lookahead[T]{iter: it, n: n}
}

type lookahead[T any] struct {
	iter  lang.Iterator[T]
	n     uint8
	peeks []optional.Optional[T]
}

func (look *lookahead[T]) init(ctx context.Context) {
	if look.peeks == nil {
		look.peeks = make([]optional.Optional[T], look.n+1)
		for x := 0; x <= int(look.n); x = x + 1 {
			look.peeks[x] = look.iter.Next(ctx)
		}
	}
}

func (look *lookahead[T]) Next(ctx context.Context) optional.Optional[T] {
	if look.peeks == nil {
		look.init(ctx)
		return look.peeks[0]
	}
	copy(look.peeks, look.peeks[1:])
	look.peeks[len(look.peeks)-1] = look.iter.Next(ctx)
	return look.peeks[0]
}

func (look *lookahead[T]) Close(ctx context.Context) error {
	return look.iter.Close(ctx)
}

func (look *lookahead[T]) Lookahead(ctx context.Context, n uint8) optional.Optional[T] {
	if look.peeks == nil {
		look.init(ctx)
	}
	if n > look.n {
		return optional.None[T]()
	}
	return look.peeks[n]
}

// FilterFunc adapts a plain function to the Filter interface. Use like:
//
//	FilterFunc[T](func(ctx context.Context, val T) bool { return true })
type FilterFunc[T any] func(ctx context.Context, val T) bool

func (f FilterFunc[T]) Keep(ctx context.Context, val T) bool {
	return f(ctx, val)
}
