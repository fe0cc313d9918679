package feed

import "context"

// ScrollPosition is the geometry reported by the list's scroll container.
type ScrollPosition struct {
	ScrollHeight   float64 `json:"scroll_height"`
	ScrollTop      float64 `json:"scroll_top"`
	ViewportHeight float64 `json:"viewport_height"`
}

// Remaining is the distance left to the bottom of the list.
func (p ScrollPosition) Remaining() float64 {
	return p.ScrollHeight - (p.ScrollTop + p.ViewportHeight)
}

// Progress is the part of the feed state the scroll trigger looks at.
type Progress struct {
	Offset    int
	Quantity  int
	Loading   bool
	Exhausted bool
}

// ShouldFetch reports whether a scroll to pos should request the next page.
func ShouldFetch(pos ScrollPosition, p Progress, threshold float64) bool {
	return pos.Remaining() < threshold &&
		p.Quantity > 0 &&
		p.Offset < p.Quantity &&
		!p.Loading &&
		!p.Exhausted
}

func (f *Feed) ShouldFetch(pos ScrollPosition) bool {
	f.mu.Lock()
	p := Progress{
		Offset:    f.offset,
		Quantity:  f.quantity,
		Loading:   f.loading,
		Exhausted: f.state == StateExhausted,
	}
	closed := f.closed
	f.mu.Unlock()
	return !closed && ShouldFetch(pos, p, f.threshold)
}

// OnScroll loads the next page when pos is near the bottom and more pages
// exist. It reports whether a load was requested.
func (f *Feed) OnScroll(ctx context.Context, pos ScrollPosition) bool {
	if !f.ShouldFetch(pos) {
		return false
	}
	f.LoadNextPage(ctx)
	return true
}

// Watch feeds scroll positions into OnScroll until ctx is done, positions is
// closed or the feed is closed. Only one Watch may run per feed at a time.
func (f *Feed) Watch(ctx context.Context, positions <-chan ScrollPosition) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.watching {
		f.mu.Unlock()
		return ErrAlreadyWatching
	}
	f.watching = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.watching = false
		f.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case pos, ok := <-positions:
			if !ok {
				return nil
			}
			f.OnScroll(ctx, pos)
		}
	}
}
