package async

import (
	"context"
	"time"
)

// Job asks for one folder to be reprocessed.
type Job struct {
	Folder      string
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
