package eventbus

import "sync"

// progressBufferSize bounds the per-subscriber progress buffer; once full,
// the oldest buffered progress event is dropped to make room for the
// newest, preferring timely over complete delivery.
const progressBufferSize = 32

// reliableSignalBuffer is sized 1: it only needs to wake the dispatcher,
// which then drains the full pending queue in one pass.
const reliableSignalBuffer = 1

type subscriber struct {
	out             chan Event
	progressCh      chan Event
	reliableStaging chan Event

	mu      sync.Mutex
	pending []Event
	signal  chan struct{}

	done chan struct{}
}

func newSubscriber() *subscriber {
	s := &subscriber{
		out:             make(chan Event, progressBufferSize),
		progressCh:      make(chan Event, progressBufferSize),
		reliableStaging: make(chan Event),
		signal:          make(chan struct{}, reliableSignalBuffer),
		done:            make(chan struct{}),
	}
	go s.runReliableDispatch()
	go s.runFanIn()
	return s
}

// runReliableDispatch drains the unbounded pending queue, one event at a
// time, into a bounded staging channel that runFanIn merges into out.
// Appending to pending never blocks the publisher; only this goroutine's
// own forwarding may block, which is fine since it isn't on the manager's
// call stack.
func (s *subscriber) runReliableDispatch() {
	for {
		select {
		case <-s.signal:
			for {
				s.mu.Lock()
				if len(s.pending) == 0 {
					s.mu.Unlock()
					break
				}
				ev := s.pending[0]
				s.pending = s.pending[1:]
				s.mu.Unlock()

				select {
				case s.reliableStaging <- ev:
				case <-s.done:
					return
				}
			}
		case <-s.done:
			return
		}
	}
}

// runFanIn merges the reliable staging channel and the bounded progress
// channel into the single channel a subscriber reads from.
func (s *subscriber) runFanIn() {
	for {
		select {
		case ev := <-s.reliableStaging:
			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		case ev := <-s.progressCh:
			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *subscriber) publishReliable(ev Event) {
	s.mu.Lock()
	s.pending = append(s.pending, ev)
	s.mu.Unlock()
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber) publishProgress(ev Event) {
	select {
	case s.progressCh <- ev:
		return
	default:
	}
	// Buffer is full: drop the oldest buffered progress event to make
	// room for the newest.
	select {
	case <-s.progressCh:
	default:
	}
	select {
	case s.progressCh <- ev:
	default:
	}
}

func (s *subscriber) close() {
	close(s.done)
}

// Bus delivers events to every current subscriber. Publish never blocks:
// status-change, error, and queue events are queued without bound; progress
// events use a small drop-oldest ring per subscriber.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscriber
	next int
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Subscription is a handle a caller uses to read events and unsubscribe.
type Subscription struct {
	id     int
	bus    *Bus
	events <-chan Event
}

// Events returns the channel this subscription receives events on.
func (s *Subscription) Events() <-chan Event { return s.events }

// Unsubscribe stops delivery and releases the subscription's resources.
func (s *Subscription) Unsubscribe() { s.bus.unsubscribe(s.id) }

// Subscribe registers a new listener. A host that subscribes late — or
// re-subscribes after dropping its previous handle — sees only events
// published after this call; it should request a queue snapshot if it
// needs current state.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	sub := newSubscriber()
	b.subs[id] = sub
	return &Subscription{id: id, bus: b, events: sub.out}
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	sub, ok := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()
	if ok {
		sub.close()
	}
}

// Publish delivers ev to every current subscriber. If no one is listening,
// the event is simply dropped — observers must re-subscribe on startup and
// request a snapshot if they need current state.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if ev.Kind == KindProgress {
			sub.publishProgress(ev)
		} else {
			sub.publishReliable(ev)
		}
	}
}
