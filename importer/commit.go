package importer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"golang.org/x/sync/semaphore"

	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/capture"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/dms"
	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
)

// CommitStatus - classification of the add-new-dataset procedure response.
type CommitStatus int

const (
	// Committed - the authoritative insert/update went through.
	Committed CommitStatus = iota
	// AlreadyExists - dataset already in the database; a warning, not a failure.
	AlreadyExists
	// TransientError - deadlock or rollback wording; leave the candidate
	// untouched for the next run.
	TransientError
	// HardFailure - anything else; the candidate moves to failure handling.
	HardFailure
)

func (s CommitStatus) String() string {
	switch s {
	case Committed:
		return "committed"
	case AlreadyExists:
		return "already_exists"
	case TransientError:
		return "transient_error"
	default:
		return "hard_failure"
	}
}

// CommitResult - ...
type CommitResult struct {
	Status  CommitStatus
	Message string
}

// transientTexts - procedure responses that resolve themselves on retry.
var transientTexts = []string{
	"deadlock",
	"could not serialize",
	"transaction was aborted",
	"commit was rolled back",
}

// alreadyExistsTexts - duplicate-dataset wording across backend versions.
var alreadyExistsTexts = []string{
	"already in database",
	"already exists",
}

// Importer posts validated candidates to the database. All commits share a
// fixed-size permit pool independent of validation parallelism; the procedure
// is the scarcer resource.
type Importer struct {
	repo    dms.Repository
	permits *semaphore.Weighted
	timeout time.Duration
	preview bool
}

// InitImporter - ...
func InitImporter(repo dms.Repository, permits int, timeout time.Duration, preview bool) *Importer {
	if permits < 1 {
		permits = 1
	}
	return &Importer{
		repo:    repo,
		permits: semaphore.NewWeighted(int64(permits)),
		timeout: timeout,
		preview: preview,
	}
}

// Commit builds the XML document from the candidate's final resolved fields
// (the capture subdirectory may have been rewritten during validation) and
// posts it under a permit.
func (imp *Importer) Commit(ctx context.Context, c *capture.Candidate) CommitResult {
	doc, err := c.Params().XML()
	if err != nil {
		return CommitResult{HardFailure, "building commit document: " + err.Error()}
	}
	if imp.preview {
		log.WithFields(log.Fields{
			"event":   "commit_preview",
			"dataset": c.Dataset,
		}).Info("preview mode; not committing\n", doc)
		return CommitResult{Committed, "preview: commit skipped"}
	}

	if err := imp.permits.Acquire(ctx, 1); err != nil {
		return CommitResult{TransientError, "run canceled before commit: " + err.Error()}
	}
	defer imp.permits.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, imp.timeout)
	defer cancel()
	returnCode, message, err := imp.repo.AddNewDataset(callCtx, doc)
	if err != nil {
		if isTransientSQLState(err) || containsAny(err.Error(), transientTexts) {
			return CommitResult{TransientError, err.Error()}
		}
		return CommitResult{HardFailure, err.Error()}
	}
	switch {
	case returnCode == 0 && message == "":
		return CommitResult{Committed, "dataset " + c.Dataset + " created"}
	case containsAny(message, alreadyExistsTexts):
		log.WithFields(log.Fields{
			"event":   "dataset_already_exists",
			"dataset": c.Dataset,
		}).Warn(message)
		return CommitResult{AlreadyExists, message}
	case containsAny(message, transientTexts):
		return CommitResult{TransientError, message}
	case returnCode == 0:
		return CommitResult{Committed, message}
	default:
		return CommitResult{HardFailure, message}
	}
}

// isTransientSQLState catches serialization failures and deadlocks by SQLSTATE
// before falling back to wording.
func isTransientSQLState(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func containsAny(text string, needles []string) bool {
	lowered := strings.ToLower(text)
	for _, needle := range needles {
		if strings.Contains(lowered, needle) {
			return true
		}
	}
	return false
}
