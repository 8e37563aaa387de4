package session

import (
	"sync/atomic"

	"github.com/brensch/snekarena/game"
)

// Subscribe returns a channel receiving every published snapshot, starting
// with the current one, and a function that unsubscribes and closes it.
func (s *Session) Subscribe() (<-chan game.Snapshot, func()) {
	ch := make(chan game.Snapshot, s.cfg.SubscriberBuffer)
	ch <- s.Snapshot()

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once atomic.Bool
	cancel := func() {
		if !once.CompareAndSwap(false, true) {
			return
		}
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
		close(ch)
	}
	return ch, cancel
}

// Subscribers is the number of open subscriptions.
func (s *Session) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

// Dropped counts snapshots not delivered because a subscriber was full.
func (s *Session) Dropped() int64 {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return s.dropped
}

// publish never blocks: a full subscriber skips this snapshot.
func (s *Session) publish(snap game.Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			s.dropped++
		}
	}
}
