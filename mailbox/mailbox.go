/*Package mailbox provides a bounded single-slot frame mailbox.

The producer never blocks: publishing over an unconsumed frame overwrites it
and counts a drop.  Consumers block until a frame arrives or their context
ends.  At most one frame is ever in flight, so a slow consumer costs frames,
never memory.
*/
package mailbox

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/satishgsonwane/weldcam/camera"
)

// Box is a single-slot mailbox for frames.  The zero value is not usable;
// call New.
type Box struct {
	mu   sync.Mutex
	cond *sync.Cond

	// slot holds the unconsumed frame; nil means consumed
	slot *camera.Frame

	// seq increments on every publish so receivers can tell a fresh
	// frame from one they already saw
	seq uint64

	drops  uint64
	closed bool
}

// New returns an empty mailbox.
func New() *Box {
	b := &Box{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Publish places a frame in the slot, overwriting any unconsumed frame.
// It never blocks.  Publishing to a closed mailbox is a no-op.
func (b *Box) Publish(f *camera.Frame) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if b.slot != nil {
		atomic.AddUint64(&b.drops, 1)
	}
	b.slot = f
	b.seq++
	b.cond.Broadcast()
	b.mu.Unlock()
}

// Next blocks until a frame newer than the previous call is available, then
// consumes and returns it.  It returns a nil frame when the mailbox is
// closed, and ctx.Err() when the context ends first.
func (b *Box) Next(ctx context.Context) (*camera.Frame, error) {
	// wake the cond wait when the context ends
	stop := context.AfterFunc(ctx, func() {
		b.mu.Lock()
		b.cond.Broadcast()
		b.mu.Unlock()
	})
	defer stop()

	b.mu.Lock()
	defer b.mu.Unlock()
	for b.slot == nil {
		if b.closed {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.cond.Wait()
	}
	f := b.slot
	b.slot = nil
	return f, nil
}

// Drops returns how many frames were overwritten before consumption.
func (b *Box) Drops() uint64 {
	return atomic.LoadUint64(&b.drops)
}

// Close wakes all blocked receivers and makes further publishes no-ops.
// Safe to call more than once.
func (b *Box) Close() {
	b.mu.Lock()
	b.closed = true
	b.slot = nil
	b.cond.Broadcast()
	b.mu.Unlock()
}
