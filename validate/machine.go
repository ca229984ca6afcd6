package validate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/capture"
	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/share"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/refdata"
)

// Capture methods. Bionet instruments need a credentialed session; fso sources
// are reachable directly.
const (
	captureMethodBionet = "secfso"
	captureMethodDirect = "fso"
)

// InstrumentSkipper answers whether an instrument was suspended earlier in the
// run. Checked before any filesystem or network work.
type InstrumentSkipper interface {
	IsSkipped(instrument string) bool
}

// Config - ...
type Config struct {
	SleepInterval      time.Duration
	TimeTolerance      time.Duration
	IgnoreSourceErrors bool
}

// Result - outcome plus the user-facing message carried into notifications.
type Result struct {
	Outcome Outcome
	Message string
}

// Validator decides, for one candidate, whether its described data is present,
// stable, and attributable to a known operator.
type Validator struct {
	cache      *refdata.Cache
	share      share.Client
	classifier *Classifier
	skipper    InstrumentSkipper

	SleepInterval      time.Duration
	TimeTolerance      time.Duration
	IgnoreSourceErrors bool

	// injected in tests
	sleep func(time.Duration)
	now   func() time.Time
}

// InitValidator - ...
func InitValidator(cache *refdata.Cache, shareCli share.Client, classifier *Classifier, skipper InstrumentSkipper, cfg Config) *Validator {
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	return &Validator{
		cache:              cache,
		share:              shareCli,
		classifier:         classifier,
		skipper:            skipper,
		SleepInterval:      cfg.SleepInterval,
		TimeTolerance:      cfg.TimeTolerance,
		IgnoreSourceErrors: cfg.IgnoreSourceErrors,
		sleep:              time.Sleep,
		now:                time.Now,
	}
}

// Validate runs the full readiness decision for one candidate. The candidate's
// resolved-operator fields and capture subdirectory may be mutated; nothing
// else is.
func (v *Validator) Validate(ctx context.Context, c *capture.Candidate) Result {
	if c.Missing {
		return Result{TriggerFileMissing, fmt.Sprintf("%s vanished before it could be read", c.SourceDescription)}
	}
	if c.ParseErr != nil {
		return Result{BadXML, fmt.Sprintf("%s could not be parsed: %v", c.SourceDescription, c.ParseErr)}
	}
	if c.Instrument == "" {
		return Result{BadXML, fmt.Sprintf("%s has no instrument name", c.SourceDescription)}
	}
	if v.skipper != nil && v.skipper.IsSkipped(c.Instrument) {
		return Result{SkipInstrument, fmt.Sprintf("instrument %s suspended for this run", c.Instrument)}
	}

	inst, found := v.cache.GetInstrument(ctx, c.Instrument)
	if !found {
		return Result{EncounteredError, instrumentDiagnostic(c.Instrument, "not found in the instrument table")}
	}
	if inst.CaptureMethod == "" {
		return Result{EncounteredError, instrumentDiagnostic(c.Instrument, "has a blank capture method")}
	}
	if inst.CaptureMethod != captureMethodBionet && inst.CaptureMethod != captureMethodDirect {
		return Result{EncounteredError, instrumentDiagnostic(c.Instrument,
			fmt.Sprintf("has unrecognized capture method %q", inst.CaptureMethod))}
	}
	if inst.SourcePath == "" {
		return Result{EncounteredError, instrumentDiagnostic(c.Instrument, "has a blank source path")}
	}

	host, shareName, rest, isUNC := splitUNC(inst.SourcePath)
	var baseDir string
	if isUNC {
		baseDir = filepath.Join(v.share.LocalPath(host, shareName), filepath.FromSlash(rest))
	} else {
		baseDir = inst.SourcePath
	}

	// A UNC source on a bionet instrument needs a credentialed session; a
	// direct server path does not.
	if inst.CaptureMethod == captureMethodBionet && isUNC {
		if err := v.share.Connect(ctx, host, shareName); err != nil {
			return v.classifyConnect(ctx, c, err)
		}
		defer v.share.Disconnect()
	}

	// A trigger file may name an alternate share. The session stays on the
	// instrument's default share; the subdirectory is rewritten relative to it
	// and the rewritten value is what commit sees. The rewrite starts from the
	// supplied value every time, so re-validating the same candidate lands on
	// the same path.
	if c.CaptureShareName != "" && isUNC && !strings.EqualFold(c.CaptureShareName, shareName) {
		rewritten := rewriteSubdirForShare(rest, c.CaptureShareName, c.SuppliedSubdirectory())
		log.WithFields(log.Fields{
			"event":        "capture_share_override",
			"instrument":   c.Instrument,
			"defaultShare": shareName,
			"captureShare": c.CaptureShareName,
			"subdirectory": rewritten,
		}).Info("rewrote capture subdirectory for alternate share")
		c.CaptureSubdirectory = rewritten
	}

	searchDir := baseDir
	if c.CaptureSubdirectory != "" {
		searchDir = filepath.Join(baseDir, filepath.FromSlash(c.CaptureSubdirectory))
	}
	match, err := locateDataset(searchDir, c.Dataset)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{EncounteredError, fmt.Sprintf("source directory %s does not exist for %s", searchDir, c.SourceDescription)}
		}
		return v.classified(err, fmt.Sprintf("reading source directory %s", searchDir))
	}

	// Operator resolution happens whether or not data was found; any open
	// share session is released first since nothing below touches it on the
	// failure path.
	if res, ok := v.resolveOperator(ctx, c); !ok {
		v.share.Disconnect()
		return res
	}

	switch match.kind {
	case kindNone:
		return Result{NoData, fmt.Sprintf("dataset %s not found at %s", c.Dataset, searchDir)}
	case kindFile:
		return v.validateFile(c, match)
	default:
		return v.validateDirectory(c, match)
	}
}

func (v *Validator) validateFile(c *capture.Candidate, match datasetMatch) Result {
	stable, err := v.fileSizeStable(match.path)
	if err != nil {
		// An auth failure during the re-check must not be reported as churn.
		if v.classifier.Classify(err) == EncounteredLogonFailure {
			return Result{EncounteredLogonFailure, err.Error()}
		}
		return v.classified(err, fmt.Sprintf("checking size stability of %s", match.path))
	}
	if !stable {
		return Result{SizeChanged, fmt.Sprintf("dataset file %s is still growing", match.name)}
	}
	if !c.RunFinish.IsZero() {
		info, err := os.Stat(match.path)
		if err != nil {
			return v.classified(err, fmt.Sprintf("reading modification time of %s", match.path))
		}
		modTime := info.ModTime().UTC()
		if modTime.Sub(c.RunFinish) > v.TimeTolerance {
			return Result{Failed, fmt.Sprintf(
				"dataset file %s was modified at %s, more than %s after the declared run finish %s",
				match.name,
				modTime.Format(capture.RunFinishFormat),
				v.TimeTolerance,
				c.RunFinish.Format(capture.RunFinishFormat))}
		}
	}
	return Result{Success, fmt.Sprintf("dataset file %s is stable", match.name)}
}

func (v *Validator) validateDirectory(c *capture.Candidate, match datasetMatch) Result {
	stable, err := v.dirSizeStable(match.path)
	if err != nil {
		if v.classifier.Classify(err) == EncounteredLogonFailure {
			return Result{EncounteredLogonFailure, err.Error()}
		}
		return v.classified(err, fmt.Sprintf("checking size stability of %s", match.path))
	}
	if !stable {
		return Result{SizeChanged, fmt.Sprintf("dataset directory %s is still growing", match.name)}
	}
	if brukerStillAcquiring(match.path, v.now()) {
		return Result{SizeChanged, fmt.Sprintf("dataset directory %s carries recent acquisition markers", match.name)}
	}
	return Result{Success, fmt.Sprintf("dataset directory %s is stable", match.name)}
}

// classifyConnect maps a share connection failure to an outcome. The
// ignore-source-errors fall-through still resolves the operator before commit
// can proceed; every other branch is terminal without file probing.
func (v *Validator) classifyConnect(ctx context.Context, c *capture.Candidate, err error) Result {
	var cerr *share.ConnectError
	if !errors.As(err, &cerr) {
		return Result{v.classifier.Classify(err), err.Error()}
	}
	switch {
	case share.IsUnexpectedNetworkError(cerr.Code):
		if v.IgnoreSourceErrors {
			log.WithFields(log.Fields{
				"event":      "instrument_source_error_ignored",
				"instrument": c.Instrument,
				"code":       cerr.Code,
			}).Warn(cerr.Error())
			if res, ok := v.resolveOperator(ctx, c); !ok {
				return res
			}
			return Result{Continue, fmt.Sprintf("instrument source errors ignored for %s; skipping source validation", c.Instrument)}
		}
		// A transient blip must not be reported as missing data; no file
		// probing after this.
		return Result{EncounteredNetworkError, cerr.Error()}
	case cerr.Code == share.CodeLogonFailure || cerr.Code == share.CodeBadPassword:
		return Result{EncounteredLogonFailure, cerr.Error()}
	default:
		return Result{EncounteredError, cerr.Error()}
	}
}

func (v *Validator) resolveOperator(ctx context.Context, c *capture.Candidate) (Result, bool) {
	op, count := v.cache.GetOperator(ctx, c.Operator)
	c.ResolvedOperator = op
	c.OperatorCount = count
	if count == 1 {
		return Result{}, true
	}
	return Result{NoOperator, op.Name}, false
}

func (v *Validator) classified(err error, context string) Result {
	return Result{v.classifier.Classify(err), fmt.Sprintf("%s: %v", context, err)}
}

func instrumentDiagnostic(instrument, problem string) string {
	return fmt.Sprintf(
		"instrument %s %s; diagnose with: select * from v_instrument_info_for_source_status where instrument = '%s'",
		instrument, problem, instrument)
}
