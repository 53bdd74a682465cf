// Package status broadcasts the most recent job status to any number of observers.
package status

import (
	"sync"

	"github.com/yokitheyo/hordegen/internal/domain"
)

// Publisher delivers the latest ProcessStatus to every current subscriber.
// Each subscriber owns a one-slot mailbox that is overwritten on every update,
// so a slow reader only ever sees the newest value.
type Publisher struct {
	mu          sync.Mutex
	subscribers map[uint64]chan domain.ProcessStatus
	nextID      uint64
	latest      domain.ProcessStatus
	hasLatest   bool
	closed      bool
}

func NewPublisher() *Publisher {
	return &Publisher{
		subscribers: make(map[uint64]chan domain.ProcessStatus),
	}
}

// Update publishes s to all subscribers. With no subscribers the value is dropped
// and any previously delivered value is forgotten.
func (p *Publisher) Update(s domain.ProcessStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if len(p.subscribers) == 0 {
		p.forget()
		return
	}

	p.latest = s
	p.hasLatest = true
	for _, mailbox := range p.subscribers {
		overwrite(mailbox, s)
	}
}

// Subscribe returns a live stream of statuses starting from the latest delivered
// value, and a function that ends the subscription. The stream is closed only by
// unsubscribing or by Close.
func (p *Publisher) Subscribe() (<-chan domain.ProcessStatus, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mailbox := make(chan domain.ProcessStatus, 1)
	if p.closed {
		close(mailbox)
		return mailbox, func() {}
	}

	if p.hasLatest {
		mailbox <- p.latest
	}

	id := p.nextID
	p.nextID++
	p.subscribers[id] = mailbox

	var once sync.Once
	return mailbox, func() {
		once.Do(func() { p.unsubscribe(id) })
	}
}

// Latest returns the status most recently delivered to the current subscribers, if any.
func (p *Publisher) Latest() (domain.ProcessStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.hasLatest
}

// Subscribers reports the number of active subscriptions.
func (p *Publisher) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subscribers)
}

// Close ends every subscription. Later updates are ignored.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	for id, mailbox := range p.subscribers {
		close(mailbox)
		delete(p.subscribers, id)
	}
}

func (p *Publisher) unsubscribe(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if mailbox, ok := p.subscribers[id]; ok {
		close(mailbox)
		delete(p.subscribers, id)
	}
	if len(p.subscribers) == 0 {
		p.forget()
	}
}

// forget drops the retained value once nobody is listening.
func (p *Publisher) forget() {
	p.latest = domain.ProcessStatus{}
	p.hasLatest = false
}

// overwrite replaces whatever is pending in the mailbox with s.
// Callers hold p.mu, so no other sender can refill the slot in between.
func overwrite(mailbox chan domain.ProcessStatus, s domain.ProcessStatus) {
	select {
	case <-mailbox:
	default:
	}
	mailbox <- s
}
