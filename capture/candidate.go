package capture

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/dms"
	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
)

// Origin - which source produced a candidate; decides disposal behavior.
type Origin string

const (
	OriginFile  Origin = "trigger_file"
	OriginQueue Origin = "queue"
)

// Disposition - terminal handling of a candidate after validation and commit.
type Disposition int

const (
	// DisposeSuccess - committed; file moves to the success dir, queue row
	// completes with code 0.
	DisposeSuccess Disposition = iota
	// DisposeFailure - hard failure; file moves to the failure dir, queue row
	// completes with code 1.
	DisposeFailure
	// DisposeTimeValidation - run-finish mismatch; file moves to the
	// time-validation holdoff dir, queue row completes with code 1.
	DisposeTimeValidation
	// DisposeRetry - leave untouched for the next run.
	DisposeRetry
	// DisposePutBack - return the item to pending explicitly (preview runs).
	DisposePutBack
)

// Disposer supplies origin-specific terminal handling.
type Disposer interface {
	Dispose(ctx context.Context, c *Candidate, d Disposition, message string) error
}

// Candidate - one dataset awaiting import. Created per discovery pass, mutated
// only by validation, consumed exactly once by commit; never shared across
// workers.
type Candidate struct {
	Instrument          string
	Dataset             string
	Operator            string
	CaptureShareName    string
	CaptureSubdirectory string
	// RunFinish is zero when the producer did not supply a timestamp.
	RunFinish         time.Time
	SourceDescription string
	Origin            Origin

	// TriggerPath is set for file-origin candidates.
	TriggerPath string
	// Missing marks a trigger file that vanished before it could be read.
	Missing bool
	// ParseErr records an unreadable or malformed source document.
	ParseErr error

	// Filled in by validation.
	ResolvedOperator dms.OperatorInfo
	OperatorCount    int

	// suppliedSubdirectory is the producer's value before any rewriting, so a
	// re-validation can rewrite from the same starting point.
	suppliedSubdirectory string

	disposer Disposer
}

var rootedPattern = regexp.MustCompile(`^(\\\\|[A-Za-z]:)`)

// NewCandidate builds a candidate from a parsed parameter document. A rooted
// capture subdirectory is a producer bug: it is logged and blanked, never
// honored.
func NewCandidate(p *Params, description string, origin Origin, disposer Disposer) *Candidate {
	c := &Candidate{
		Instrument:          strings.TrimSpace(p.Get(ParamInstrument)),
		Dataset:             strings.TrimSpace(p.Get(ParamDataset)),
		Operator:            strings.TrimSpace(p.Get(ParamOperator)),
		CaptureShareName:    strings.TrimSpace(p.Get(ParamShareName)),
		CaptureSubdirectory: strings.TrimSpace(p.Get(ParamSubdirectory)),
		SourceDescription:   description,
		Origin:              origin,
		disposer:            disposer,
	}
	if c.CaptureSubdirectory != "" &&
		(filepath.IsAbs(c.CaptureSubdirectory) || rootedPattern.MatchString(c.CaptureSubdirectory)) {
		log.WithFields(log.Fields{
			"event":        "rooted_capture_subdirectory",
			"source":       description,
			"subdirectory": c.CaptureSubdirectory,
		}).Error("capture subdirectory must be relative; ignoring it")
		c.CaptureSubdirectory = ""
	}
	c.suppliedSubdirectory = c.CaptureSubdirectory
	if ts, err := p.RunFinish(); err != nil {
		c.ParseErr = err
	} else {
		c.RunFinish = ts
	}
	return c
}

// SuppliedSubdirectory - the capture subdirectory as the producer supplied it,
// unaffected by share-override rewriting.
func (c *Candidate) SuppliedSubdirectory() string {
	return c.suppliedSubdirectory
}

// Params rebuilds the parameter document from the candidate's current fields.
// Validation may have rewritten the capture subdirectory; the rebuilt document
// always carries the final value.
func (c *Candidate) Params() *Params {
	p := &Params{}
	p.Set(ParamInstrument, c.Instrument)
	p.Set(ParamDataset, c.Dataset)
	p.Set(ParamOperator, c.Operator)
	p.Set(ParamShareName, c.CaptureShareName)
	p.Set(ParamSubdirectory, c.CaptureSubdirectory)
	if !c.RunFinish.IsZero() {
		p.Set(ParamRunFinish, c.RunFinish.UTC().Format(RunFinishFormat))
	}
	return p
}

// Dispose - ...
func (c *Candidate) Dispose(ctx context.Context, d Disposition, message string) error {
	if c.disposer == nil {
		return nil
	}
	return c.disposer.Dispose(ctx, c, d, message)
}
