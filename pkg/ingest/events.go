package ingest

import "github.com/bijux/atlas/pkg/atlaserr"

// Stage names one pipeline stage, used both for Event.Stage and in error
// messages so a failure can always be traced back to §4.4's six stages.
type Stage string

const (
	StagePrepare  Stage = "prepare"
	StageDecode   Stage = "decode"
	StageExtract  Stage = "extract"
	StageSort     Stage = "sort"
	StagePersist  Stage = "persist"
	StageFinalize Stage = "finalize"
)

// Event is one structured record in a run's append-only event log. Stages
// emit events instead of logging directly so a caller can render,
// aggregate, or silently drop them as it sees fit.
type Event struct {
	Stage   Stage          `json:"stage"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// EventLog accumulates Events across one ingest run.
type EventLog struct {
	events []Event
}

func (l *EventLog) emit(stage Stage, message string, fields map[string]any) {
	l.events = append(l.events, Event{Stage: stage, Message: message, Fields: fields})
}

// Events returns the accumulated log in emission order.
func (l *EventLog) Events() []Event { return l.events }

const (
	codeInvalidCoordinate = atlaserr.IngestInvalidCoordinate
	codeExceedsContig     = atlaserr.IngestExceedsContig
	codeFaiRequired       = atlaserr.IngestFaiRequired
	codeStrictMode        = atlaserr.IngestStrictMode
	codeDuplicatePolicy   = atlaserr.IngestDuplicatePolicy
	codeIO                = atlaserr.IngestIO
)

func ingestErrf(code atlaserr.Code, format string, args ...any) *atlaserr.Error {
	return atlaserr.Newf(code, format, args...)
}
