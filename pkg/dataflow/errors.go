package dataflow

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrGraphMustBeSet = errors.New("graph must be set")
	ErrMergeInputs    = errors.New("merge requires at least two inputs")
	ErrSplitTotal     = errors.New("split requires at least one output")
	ErrHeaderSet      = errors.New("header already set")
	ErrHeaderLate     = errors.New("header must be set before the first item")
	ErrNoArtifactDir  = errors.New("graph has no artifact directory")
	ErrArtifactExists = errors.New("artifact already allocated")
)

// ErrAbort terminates a node with no output stream. It signals intentional
// absence, not a fault: the graph run does not fail and dependents observe
// an empty, valid input.
var ErrAbort = errors.New("node aborted")

type errorChans struct {
	mu   sync.Mutex
	list []*errorChan
}

func (ec *errorChans) add(errChan *errorChan) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.list = append(ec.list, errChan)
}

type errorChan struct {
	c    <-chan error
	name string
}

func newErrorChan(name string, c <-chan error) *errorChan {
	return &errorChan{
		c:    c,
		name: name,
	}
}

// mergeErrors merges multiple channels of errors.
// Based on https://blog.golang.org/pipelines.
func mergeErrors(cs ...*errorChan) <-chan error {
	var wg sync.WaitGroup
	// The output channel must have capacity for one error per node channel so
	// that no node goroutine blocks even if Run returns early.
	out := make(chan error, len(cs))

	output := func(c *errorChan) {
		defer wg.Done()
		if c.c == nil {
			return
		}
		for n := range c.c {
			out <- errors.Wrap(n, c.name)
		}
	}
	wg.Add(len(cs))
	for _, c := range cs {
		go output(c)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
