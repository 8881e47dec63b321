package embedding

import "context"

// semaphore bounds the number of in-flight provider-bound embedding calls.
// It only gates actual provider round-trips — cache hits never acquire it —
// so a hot cache stays fast even under a tight concurrency limit.
type semaphore struct {
	slots chan struct{}
}

func newSemaphore(n int) *semaphore {
	if n < 1 {
		n = 1
	}
	return &semaphore{slots: make(chan struct{}, n)}
}

func (s *semaphore) acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *semaphore) release() {
	<-s.slots
}
