package capture

import (
	"context"
	"fmt"

	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/dms"
	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
)

// QueueSource drains the dataset creation work table one row at a time.
type QueueSource struct {
	repo    dms.Repository
	preview bool
}

// InitQueueSource - ...
func InitQueueSource(repo dms.Repository, preview bool) *QueueSource {
	return &QueueSource{repo: repo, preview: preview}
}

// Drain requests tasks until the sentinel no-work id. The request procedure
// handing out the same id twice in a row means the row is not being marked
// acquired; that is a fatal anomaly, not a retry.
func (src *QueueSource) Drain(ctx context.Context) ([]*Candidate, error) {
	var candidates []*Candidate
	lastID := dms.NoMoreWorkID
	for {
		if ctx.Err() != nil {
			return candidates, ctx.Err()
		}
		task, err := src.repo.RequestCaptureTask(ctx)
		if err != nil {
			return candidates, err
		}
		if task.ID == dms.NoMoreWorkID {
			break
		}
		if task.ID == lastID {
			return candidates, fmt.Errorf("request procedure returned task %d twice in a row", task.ID)
		}
		lastID = task.ID
		candidates = append(candidates, src.parse(task))
	}
	log.WithFields(log.Fields{
		"event": "queue_tasks_discovered",
		"count": len(candidates),
	}).Info("drained dataset creation queue")
	return candidates, nil
}

func (src *QueueSource) parse(task *dms.CaptureTask) *Candidate {
	description := fmt.Sprintf("dataset creation task %d", task.ID)
	params := &Params{}
	parseErr := params.FromXML(task.Params)
	c := NewCandidate(params, description, OriginQueue, &queueDisposer{
		repo:    src.repo,
		taskID:  task.ID,
		preview: src.preview,
	})
	if c.ParseErr == nil {
		c.ParseErr = parseErr
	}
	return c
}

// queueDisposer completes one queue row; taskID pins it to its candidate.
type queueDisposer struct {
	repo    dms.Repository
	taskID  int
	preview bool
}

func (qd *queueDisposer) Dispose(ctx context.Context, c *Candidate, d Disposition, message string) error {
	code := dms.CompletionSuccess
	switch {
	case qd.preview || d == DisposePutBack:
		// Preview consumes nothing: the row goes back to pending.
		code = dms.CompletionPutBack
	case d == DisposeRetry:
		code = dms.CompletionPutBack
	case d == DisposeFailure || d == DisposeTimeValidation:
		code = dms.CompletionFailure
	}
	err := qd.repo.CompleteCaptureTask(ctx, qd.taskID, code, message)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"event":  "queue_task_completed",
		"taskID": qd.taskID,
		"code":   code,
	}).Info(message)
	return nil
}
