package dms

import "context"

// Config - ...
type Config struct {
	DSN string
}

// Repository - the named-procedure capability the import pipeline runs against.
// Implementations surface return-code/out-parameter responses as typed results,
// never as panics.
type Repository interface {
	// Reference reads.
	SelectInstruments(ctx context.Context) ([]InstrumentInfo, error)
	SelectOperators(ctx context.Context) ([]OperatorInfo, error)
	SelectErrorSolutions(ctx context.Context) ([]ErrorSolution, error)

	// Work queue. RequestCaptureTask returns NoMoreWorkID when the queue is drained.
	RequestCaptureTask(ctx context.Context) (*CaptureTask, error)
	CompleteCaptureTask(ctx context.Context, taskID int, code int, message string) error

	// ProvisionStoragePath creates the storage-path row for an instrument ahead
	// of concurrent first-time commits.
	ProvisionStoragePath(ctx context.Context, instrument string) error

	// AddNewDataset posts the commit XML. The return code and message are the
	// procedure's out-parameters; err covers transport problems only.
	AddNewDataset(ctx context.Context, doc string) (returnCode int, message string, err error)
}
