package prompt

import "sync"

// asyncPrintQueueSize bounds how many pending messages Print will buffer.
// Print never blocks: once this many messages are pending, further ones are
// dropped until the queue is drained. The bound is generous enough that a
// background goroutine logging occasional progress loses nothing, while
// still bounding memory if nobody drains the queue.
const asyncPrintQueueSize = 256

// asyncPrint is a thread-safe side channel that lets other goroutines print
// output above the prompt while ReadLine is blocked waiting for terminal
// input. A push both enqueues the message and signals wake so the blocked
// read in ReadLine's loop returns early to drain it, the same way the
// teacher's SIGWINCH handling interrupts the read loop for a resize.
type asyncPrint struct {
	mu       sync.Mutex
	messages []string
	wake     chan struct{}
}

func (a *asyncPrint) init() {
	a.wake = make(chan struct{}, 1)
}

// push enqueues a message and signals the wake channel. It drops the
// message only if the queue has grown past asyncPrintQueueSize, which can
// only happen if nobody is calling ReadLine to drain it.
func (a *asyncPrint) push(msg string) {
	a.mu.Lock()
	if len(a.messages) < asyncPrintQueueSize {
		a.messages = append(a.messages, msg)
	}
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// drain returns and clears all pending messages.
func (a *asyncPrint) drain() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.messages) == 0 {
		return nil
	}
	msgs := a.messages
	a.messages = nil
	return msgs
}
