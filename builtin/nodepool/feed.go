// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nodepool

import (
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/event"
)

// maxPendingBatches bounds the event batches waiting for slow subscribers.
const maxPendingBatches = 4096

// eventFeed publishes events off the operation path. Batches are sent in the
// order they were queued by a single goroutine, started with the first subscription.
type eventFeed struct {
	feed  event.Feed
	scope event.SubscriptionScope

	start   sync.Once
	stop    sync.Once
	running atomic.Bool
	mu      sync.Mutex
	queue   [][]*Event
	wake    chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

func newEventFeed() *eventFeed {
	return &eventFeed{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (f *eventFeed) subscribe(ch chan<- *Event) event.Subscription {
	sub := f.scope.Track(f.feed.Subscribe(ch))
	f.start.Do(func() {
		f.running.Store(true)
		f.wg.Add(1)
		go f.loop()
	})
	return sub
}

// publish queues a batch and returns at once.
func (f *eventFeed) publish(events []*Event) {
	if len(events) == 0 || !f.running.Load() {
		return
	}
	f.mu.Lock()
	if len(f.queue) >= maxPendingBatches {
		f.mu.Unlock()
		for _, ev := range events {
			metricEventsDropped().AddWithLabel(1, map[string]string{"kind": string(ev.Kind)})
		}
		logger.Warn("event subscribers lagging, events dropped", "events", len(events))
		return
	}
	f.queue = append(f.queue, events)
	f.mu.Unlock()

	select {
	case f.wake <- struct{}{}:
	default:
	}
}

func (f *eventFeed) next() []*Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return nil
	}
	batch := f.queue[0]
	f.queue[0] = nil
	f.queue = f.queue[1:]
	return batch
}

func (f *eventFeed) loop() {
	defer f.wg.Done()

	for {
		select {
		case <-f.wake:
		case <-f.done:
			return
		}
		for batch := f.next(); batch != nil; batch = f.next() {
			for _, ev := range batch {
				f.feed.Send(ev)
			}
		}
	}
}

// close ends all subscriptions, which also releases a Send stuck on a stalled one.
func (f *eventFeed) close() {
	f.scope.Close()
	f.running.Store(false)
	f.stop.Do(func() { close(f.done) })
	f.wg.Wait()
}
