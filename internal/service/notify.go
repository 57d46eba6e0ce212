package service

import "sync"

// notifier fans out change notifications to subscribers. Consumers (the
// view layer) re-render on every mutation; there is no partial-update
// contract, so the callback carries no payload.
type notifier struct {
	mu   sync.Mutex
	subs map[int]func()
	next int
}

// Subscribe registers fn to run after every successful mutation and
// returns an unsubscribe function.
func (n *notifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *notifier) notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
