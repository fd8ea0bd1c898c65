package scheduler

import "context"

// ExportedExecute runs one check synchronously with ctx, as a due job would.
func (s *Scheduler) ExportedExecute(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.execute()
}
