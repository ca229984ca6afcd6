package orchestrator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/capture"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/dms"
	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/share"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/digest"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/importer"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/refdata"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/validate"
)

// Config - ...
type Config struct {
	Parallelism int
	BatchSize   int
	Admins      []string
}

// Deps - collaborators handed to the orchestrator; no ambient state.
type Deps struct {
	FileSource  *capture.FileSource
	QueueSource *capture.QueueSource
	Validator   *validate.Validator
	Importer    *importer.Importer
	Cache       *refdata.Cache
	Repo        dms.Repository
	Share       share.Client
	Guard       *RunGuard
	Skip        *SkipRegistry
	MailQueue   *digest.Queue
	Aggregator  *digest.Aggregator
}

// Orchestrator drives one drain-everything-and-exit run.
type Orchestrator struct {
	deps Deps
	cfg  Config

	healMu        sync.Mutex
	healAttempted bool
}

// InitOrchestrator - ...
func InitOrchestrator(deps Deps, cfg Config) *Orchestrator {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 50
	}
	return &Orchestrator{
		deps: deps,
		cfg:  cfg,
	}
}

// Run discovers all pending candidates, validates and commits them in bounded
// parallel batches, and flushes the failure digests. Cancellation granularity
// is the batch: a canceled context finishes the current batch and does not
// start the next.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.deps.Guard.Acquire(); err != nil {
		return err
	}
	defer o.deps.Guard.Release()

	candidates, err := o.discover(ctx)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		log.WithFields(log.Fields{
			"event": "no_work",
		}).Info("no candidates pending")
		return nil
	}

	// Shuffle so a contiguous run of one instrument cannot starve the rest.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	for start := 0; start < len(candidates); start += o.cfg.BatchSize {
		if ctx.Err() != nil {
			log.WithFields(log.Fields{
				"event": "run_canceled",
			}).Info("not starting the next batch")
			break
		}
		end := min(start+o.cfg.BatchSize, len(candidates))
		batch := candidates[start:end]
		if len(batch) > 1 {
			o.provisionStoragePaths(ctx, batch)
		}
		o.runBatch(ctx, batch)
	}

	sent := o.deps.Aggregator.Flush(o.deps.MailQueue)
	digestsSent.Add(float64(sent))
	for instrument, count := range o.deps.Skip.Counts() {
		log.WithFields(log.Fields{
			"event":      "instrument_skipped",
			"instrument": instrument,
			"count":      count,
		}).Info("datasets skipped this run due to network errors")
	}
	return nil
}

func (o *Orchestrator) discover(ctx context.Context) ([]*capture.Candidate, error) {
	var all []*capture.Candidate
	if o.deps.FileSource != nil {
		fromFiles, err := o.deps.FileSource.Discover(ctx)
		if err != nil {
			return nil, fmt.Errorf("trigger file discovery: %w", err)
		}
		all = append(all, fromFiles...)
	}
	if o.deps.QueueSource != nil {
		fromQueue, err := o.deps.QueueSource.Drain(ctx)
		if err != nil {
			return nil, fmt.Errorf("queue drain: %w", err)
		}
		all = append(all, fromQueue...)
	}
	return all, nil
}

// provisionStoragePaths pre-creates storage-path rows for instruments that
// appear more than once in the batch, before any validation runs. Two
// concurrent first-time inserts for a new path would otherwise race into
// duplicate rows.
func (o *Orchestrator) provisionStoragePaths(ctx context.Context, batch []*capture.Candidate) {
	counts := map[string]int{}
	names := map[string]string{}
	for _, c := range batch {
		if c.Instrument == "" {
			continue
		}
		key := toKey(c.Instrument)
		counts[key]++
		names[key] = c.Instrument
	}
	for key, count := range counts {
		if count < 2 {
			continue
		}
		if err := o.deps.Repo.ProvisionStoragePath(ctx, names[key]); err != nil {
			log.WithFields(log.Fields{
				"event":      "storage_path_provision_failed",
				"instrument": names[key],
			}).Error(err)
			continue
		}
		log.WithFields(log.Fields{
			"event":      "storage_path_provisioned",
			"instrument": names[key],
			"datasets":   count,
		}).Info("pre-resolved storage path for batch")
	}
}

func (o *Orchestrator) runBatch(ctx context.Context, batch []*capture.Candidate) {
	items := make(chan *capture.Candidate)
	var group sync.WaitGroup
	for wrk := 1; wrk <= o.cfg.Parallelism; wrk++ {
		group.Add(1)
		go func(workerID int) {
			defer group.Done()
			for c := range items {
				o.process(ctx, c, workerID)
			}
		}(wrk)
	}
	for _, c := range batch {
		items <- c
	}
	close(items)
	group.Wait()
}

// process runs one candidate end to end. Nothing escapes into the batch loop;
// a panic is logged and the remaining candidates continue.
func (o *Orchestrator) process(ctx context.Context, c *capture.Candidate, workerID int) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"event":  "candidate_panic",
				"worker": workerID,
				"source": c.SourceDescription,
			}).Error(r)
		}
	}()
	candidatesProcessed.Inc()
	res := o.deps.Validator.Validate(ctx, c)
	if res.Outcome == validate.EncounteredLogonFailure {
		res = o.selfHeal(ctx, c, res)
	}
	validationOutcomes.WithLabelValues(res.Outcome.String()).Inc()
	log.WithFields(log.Fields{
		"event":   "candidate_validated",
		"worker":  workerID,
		"source":  c.SourceDescription,
		"outcome": res.Outcome.String(),
	}).Info(res.Message)
	o.dispatch(ctx, c, res)
}

// selfHeal probes the credential subsystem at most once per run. If the
// restart succeeds the candidate is re-validated once; afterwards logon
// failures are left for the next run without further attempts.
func (o *Orchestrator) selfHeal(ctx context.Context, c *capture.Candidate, res validate.Result) validate.Result {
	o.healMu.Lock()
	attempted := o.healAttempted
	o.healAttempted = true
	o.healMu.Unlock()
	if attempted {
		return res
	}
	if err := o.deps.Share.RecoverCredentials(ctx); err != nil {
		log.WithFields(log.Fields{
			"event": "credential_recover_failed",
		}).Error(err)
		return res
	}
	return o.deps.Validator.Validate(ctx, c)
}

// dispatch is the exhaustive outcome match driving terminal handling.
func (o *Orchestrator) dispatch(ctx context.Context, c *capture.Candidate, res validate.Result) {
	switch res.Outcome {
	case validate.Success, validate.Continue:
		o.commit(ctx, c)
	case validate.SizeChanged, validate.WaitForFiles:
		// Expected to resolve itself; no notification.
		o.dispose(ctx, c, capture.DisposeRetry, res.Message)
	case validate.EncounteredNetworkError, validate.SkipInstrument:
		o.deps.Skip.Increment(c.Instrument)
		o.dispose(ctx, c, capture.DisposeRetry, res.Message)
	case validate.EncounteredLogonFailure:
		o.dispose(ctx, c, capture.DisposeRetry, res.Message)
	case validate.NoData:
		o.notify(ctx, c, "Dataset not found", res.Message)
		o.dispose(ctx, c, capture.DisposeRetry, res.Message)
	case validate.NoOperator:
		o.notify(ctx, c, "Operator not recognized", res.Message)
		o.dispose(ctx, c, capture.DisposeFailure, res.Message)
	case validate.Failed:
		o.notify(ctx, c, "Time validation error", res.Message)
		o.dispose(ctx, c, capture.DisposeTimeValidation, res.Message)
	case validate.BadXML:
		o.notify(ctx, c, "Malformed dataset description", res.Message)
		o.dispose(ctx, c, capture.DisposeFailure, res.Message)
	case validate.EncounteredError:
		o.notify(ctx, c, "Dataset validation error", res.Message)
		o.dispose(ctx, c, capture.DisposeFailure, res.Message)
	case validate.TriggerFileMissing:
		// Gone before import; silently skip.
	}
}

func (o *Orchestrator) commit(ctx context.Context, c *capture.Candidate) {
	cr := o.deps.Importer.Commit(ctx, c)
	commitResults.WithLabelValues(cr.Status.String()).Inc()
	switch cr.Status {
	case importer.Committed, importer.AlreadyExists:
		o.dispose(ctx, c, capture.DisposeSuccess, cr.Message)
	case importer.TransientError:
		log.WithFields(log.Fields{
			"event":  "commit_transient_error",
			"source": c.SourceDescription,
		}).Warn(cr.Message)
		o.dispose(ctx, c, capture.DisposeRetry, cr.Message)
	case importer.HardFailure:
		o.notify(ctx, c, "Dataset import error", cr.Message)
		o.dispose(ctx, c, capture.DisposeFailure, cr.Message)
	}
}

func (o *Orchestrator) notify(ctx context.Context, c *capture.Candidate, issueType, detail string) {
	recipients := append([]string{}, o.cfg.Admins...)
	operator := c.Operator
	if c.ResolvedOperator.Email != "" {
		recipients = append(recipients, c.ResolvedOperator.Email)
		if c.ResolvedOperator.Name != "" {
			operator = c.ResolvedOperator.Name
		}
	}
	o.deps.MailQueue.Append(&digest.Notification{
		Operator:       operator,
		Recipients:     recipients,
		Subject:        fmt.Sprintf("%s for instrument %s", issueType, c.Instrument),
		IssueType:      issueType,
		IssueDetail:    detail,
		AdditionalInfo: o.deps.Cache.GetErrorSolution(ctx, detail),
		DatasetPath:    c.Dataset,
	})
}

func (o *Orchestrator) dispose(ctx context.Context, c *capture.Candidate, d capture.Disposition, message string) {
	if err := c.Dispose(ctx, d, message); err != nil {
		log.WithFields(log.Fields{
			"event":  "disposal_failed",
			"source": c.SourceDescription,
		}).Error(err)
	}
}

func toKey(instrument string) string {
	return strings.ToLower(instrument)
}
