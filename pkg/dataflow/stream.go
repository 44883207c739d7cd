package dataflow

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Header carries stream metadata. A producing node attaches it at most once,
// before its first item.
type Header struct {
	Title string
	Meta  map[string]string
}

// Stream is an ordered sequence of items of one type with a single producer
// and a single consumer. The end marker is the closed underlying channel.
//
// A nil *Stream is a valid, permanently empty input: Pull returns
// end-of-stream immediately and Title returns the empty string. Aborted
// upstream nodes and absent inputs are therefore indistinguishable from
// emptiness, never from failure.
type Stream[T any] struct {
	name  string
	items chan T

	headerOnce sync.Once
	headerSet  chan struct{}
	header     Header

	aborted atomic.Bool
}

func newStream[T any](name string) *Stream[T] {
	return &Stream[T]{
		name:      name,
		items:     make(chan T),
		headerSet: make(chan struct{}),
	}
}

// Name returns the declared node name owning this stream.
func (s *Stream[T]) Name() string {
	if s == nil {
		return ""
	}

	return s.name
}

// Pull returns the next item of the stream. It blocks until the producer has
// pushed an item or finished; ok is false once the stream has ended.
func (s *Stream[T]) Pull(ctx context.Context) (item T, ok bool, err error) {
	if s == nil {
		return item, false, nil
	}
	select {
	case <-ctx.Done():
		return item, false, errors.Wrap(ctx.Err(), s.name)
	case item, ok = <-s.items:
		return item, ok, nil
	}
}

// Header blocks until the producer has set the stream header or the stream
// has completed without one.
func (s *Stream[T]) Header(ctx context.Context) (Header, error) {
	if s == nil {
		return Header{}, nil
	}
	select {
	case <-ctx.Done():
		return Header{}, errors.Wrap(ctx.Err(), s.name)
	case <-s.headerSet:
		return s.header, nil
	}
}

// Title is shorthand for the header title.
func (s *Stream[T]) Title(ctx context.Context) (string, error) {
	h, err := s.Header(ctx)
	if err != nil {
		return "", err
	}

	return h.Title, nil
}

// Aborted reports whether the producing node terminated with ErrAbort. It is
// meaningful once the stream has ended; a nil stream counts as absent.
func (s *Stream[T]) Aborted() bool {
	if s == nil {
		return true
	}

	return s.aborted.Load()
}

func (s *Stream[T]) setHeader(h Header) error {
	set := false
	s.headerOnce.Do(func() {
		s.header = h
		close(s.headerSet)
		set = true
	})
	if !set {
		return errors.Wrap(ErrHeaderSet, s.name)
	}

	return nil
}

// finish ends the stream. A stream without a header releases Header waiters
// here with the zero header.
func (s *Stream[T]) finish(aborted bool) {
	if aborted {
		s.aborted.Store(true)
	}
	s.headerOnce.Do(func() {
		close(s.headerSet)
	})
	close(s.items)
}

// PullAll retrieves exactly one item from each stream, for streams known to
// carry a single aggregate item. Streams that end without an item, aborted
// ones included, are skipped.
func PullAll[T any](ctx context.Context, streams ...*Stream[T]) ([]T, error) {
	items := make([]T, 0, len(streams))
	for _, s := range streams {
		item, ok, err := s.Pull(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}
