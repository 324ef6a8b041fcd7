package service

import "context"

// Job is a run-to-completion task invoked from the job runner.
type Job interface {
	Init(ctx context.Context) error
	Run(ctx context.Context) error
	CleanUp(ctx context.Context) error
}
