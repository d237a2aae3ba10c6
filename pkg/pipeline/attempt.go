package pipeline

import (
	"context"
	"sync"
)

// Attempt is one running recognition
type Attempt struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	state  State
	result Result
}

// ID identifies the attempt in logs and results
func (a *Attempt) ID() string {
	return a.id
}

// Done is closed when the attempt reaches a terminal state
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// State returns the stage the attempt has reached
func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Result waits for the attempt to finish and returns its outcome
func (a *Attempt) Result() Result {
	<-a.done
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Cancel abandons the attempt. Any recognition result that arrives later
// is discarded.
func (a *Attempt) Cancel() {
	a.cancel()
}

func (a *Attempt) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

func (a *Attempt) finish(res Result) {
	a.mu.Lock()
	a.result = res
	a.mu.Unlock()
	close(a.done)
}
