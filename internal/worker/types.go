package worker

import "context"

// Job is a unit of background work. Jobs receive the pool's context so they
// can abort on shutdown.
type Job func(ctx context.Context) error
