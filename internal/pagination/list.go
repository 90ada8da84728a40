// Package pagination accumulates items from page-numbered list endpoints
// that signal continuation with a "next" link.
package pagination

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/apartment-mgmt/resident/pkg/logger"
)

// Page is one response of a list endpoint.
type Page[T any] struct {
	Count   int     `json:"count,omitempty"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

func (p Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

// Identifiable items carry a stable unique id used for de-duplication.
type Identifiable interface {
	Identity() int64
}

type FetchFunc[T any] func(ctx context.Context, page int) (Page[T], error)

// Error is returned by LoadNext when a fetch fails. Message is meant for
// the resident; Err is the underlying cause.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Option func(*options)

type options struct {
	message string
	log     *slog.Logger
}

// WithErrorMessage sets the message reported when a page cannot be loaded.
func WithErrorMessage(msg string) Option {
	return func(o *options) { o.message = msg }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

const firstPage = 1

// List is the accumulator behind one list view. It is safe for concurrent
// use; overlapping LoadNext calls do not queue, the later ones return at once.
type List[T Identifiable] struct {
	fetch FetchFunc[T]
	opts  options

	mu        sync.Mutex
	items     []T
	seen      map[int64]struct{}
	page      int
	exhausted bool
	loading   bool
	gen       uint64
	lastErr   error
}

func New[T Identifiable](fetch FetchFunc[T], opts ...Option) *List[T] {
	o := options{message: "Unable to load the list."}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Component("pagination")
	}
	return &List[T]{
		fetch: fetch,
		opts:  o,
		seen:  make(map[int64]struct{}),
		page:  firstPage,
	}
}

// LoadNext fetches the next page and merges it. It returns nil without
// fetching when a fetch is already running or the list is exhausted.
// On failure accumulated items and the page counter stay as they were.
func (l *List[T]) LoadNext(ctx context.Context) error {
	l.mu.Lock()
	if l.loading || l.exhausted {
		l.mu.Unlock()
		return nil
	}
	l.loading = true
	page, gen := l.page, l.gen
	l.mu.Unlock()

	res, err := l.fetch(ctx, page)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.gen {
		// Reset ran while we were fetching; this result belongs to the old list.
		return nil
	}
	l.loading = false

	if err != nil {
		l.lastErr = &Error{Message: l.opts.message, Err: err}
		l.opts.log.WarnContext(ctx, "load page failed", slog.Int("page", page), slog.Any("err", err))
		return l.lastErr
	}
	l.lastErr = nil

	added := 0
	for _, item := range res.Results {
		id := item.Identity()
		if _, dup := l.seen[id]; dup {
			continue
		}
		l.seen[id] = struct{}{}
		l.items = append(l.items, item)
		added++
	}

	if res.HasNext() {
		l.page++
	} else {
		l.exhausted = true
	}

	l.opts.log.DebugContext(ctx, "page loaded",
		slog.Int("page", page),
		slog.Int("received", len(res.Results)),
		slog.Int("added", added),
		slog.Bool("exhausted", l.exhausted),
	)
	return nil
}

// LoadAll calls LoadNext until the list is exhausted or a fetch fails.
func (l *List[T]) LoadAll(ctx context.Context) error {
	for !l.Exhausted() {
		if err := ctx.Err(); err != nil {
			return err
		}
		before := l.Page()
		if err := l.LoadNext(ctx); err != nil {
			return err
		}
		if l.Page() == before && !l.Exhausted() {
			// another caller holds the in-flight fetch
			return nil
		}
	}
	return nil
}

// Reset returns the list to its initial state, for pull-to-refresh.
func (l *List[T]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = nil
	l.seen = make(map[int64]struct{})
	l.page = firstPage
	l.exhausted = false
	l.loading = false
	l.lastErr = nil
	l.gen++
}

// Items returns a copy of the accumulated items in fetch order.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Page is the page number the next LoadNext will request.
func (l *List[T]) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

func (l *List[T]) Exhausted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.exhausted
}

func (l *List[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Err is the error of the last completed fetch, nil after a success.
func (l *List[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}
