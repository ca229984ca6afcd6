package dms

// InstrumentInfo - capture configuration for one instrument, immutable once cached.
type InstrumentInfo struct {
	Name          string
	Class         string
	RawDataType   string
	CaptureMethod string
	SourcePath    string
}

// OperatorInfo - one DMS user record.
type OperatorInfo struct {
	Name     string
	Email    string
	Username string
	UserID   int
	Obsolete bool
}

// ErrorSolution - known error text and its suggested remediation.
type ErrorSolution struct {
	ErrorText string
	Solution  string
}

// CaptureTask - one row dequeued from the dataset creation work table.
// Params holds the XML-encoded parameter document as stored in the queue.
type CaptureTask struct {
	ID     int
	Params string
}

// NoMoreWorkID - sentinel returned by the request procedure when the queue is drained.
const NoMoreWorkID = 0

// Completion codes for the queue complete procedure.
const (
	CompletionSuccess = 0
	CompletionFailure = 1
	CompletionPutBack = -1
)
