package validate

// Outcome - terminal/continue classification of one candidate's validation.
// The orchestrator switches exhaustively over these; adding a value without
// handling it there is a bug.
type Outcome int

const (
	// Success - data present, stable, attributable; commit it.
	Success Outcome = iota
	// Continue - source validation inconclusive but policy says proceed to
	// commit (instrument-source errors explicitly ignored).
	Continue
	// Failed - file modification time disagrees with the claimed run finish.
	Failed
	// BadXML - source document malformed or missing the instrument name.
	BadXML
	// EncounteredError - unexpected error; configuration or lookup problem.
	EncounteredError
	// WaitForFiles - reserved; nothing emits it.
	WaitForFiles
	// EncounteredLogonFailure - credentialed share rejected the bionet account.
	EncounteredLogonFailure
	// SizeChanged - dataset still growing; retry next run, no notification.
	SizeChanged
	// EncounteredNetworkError - transient network fault; suspend the instrument
	// for the rest of the run.
	EncounteredNetworkError
	// NoData - nothing matching the dataset name at the source location.
	NoData
	// SkipInstrument - instrument suspended earlier in this run.
	SkipInstrument
	// NoOperator - operator could not be resolved to a single DMS user.
	NoOperator
	// TriggerFileMissing - trigger file vanished before it could be read.
	TriggerFileMissing
)

var outcomeNames = map[Outcome]string{
	Success:                 "success",
	Continue:                "continue",
	Failed:                  "failed",
	BadXML:                  "bad_xml",
	EncounteredError:        "encountered_error",
	WaitForFiles:            "wait_for_files",
	EncounteredLogonFailure: "encountered_logon_failure",
	SizeChanged:             "size_changed",
	EncounteredNetworkError: "encountered_network_error",
	NoData:                  "no_data",
	SkipInstrument:          "skip_instrument",
	NoOperator:              "no_operator",
	TriggerFileMissing:      "trigger_file_missing",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Committable reports whether the orchestrator should hand the candidate to
// import commit.
func (o Outcome) Committable() bool {
	return o == Success || o == Continue
}
