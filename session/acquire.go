package session

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/satishgsonwane/weldcam/camera"
)

// acquire is the grab loop for one acquisition run.  It paces itself to the
// configured frame rate, bounds each grab by the session's grab timeout,
// and publishes successful frames into the mailbox with a fresh trace ID.
//
// A grab timeout is an expected outcome for a quiet or triggered camera and
// skips the cycle.  Any other grab error is a device fault: the loop
// reports it through demote and exits.
func (s *Session) acquire(ctx context.Context, gen uint64, h camera.Handle, fps float64) {
	defer s.wg.Done()
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	lim := rate.NewLimiter(rate.Limit(fps), 1)
	for {
		if err := lim.Wait(ctx); err != nil {
			return
		}
		f, err := s.drv.GrabFrame(h, s.grabTimeout)
		if ctx.Err() != nil {
			// stopped while grabbing; whatever came back is stale
			return
		}
		if err != nil {
			if camera.IsKind(err, camera.KindTimeout) {
				continue
			}
			s.demote(gen, err)
			return
		}
		f.TraceID = uuid.NewString()
		s.box.Publish(f)
	}
}
