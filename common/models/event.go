package models

// JobEventType names a job state transition broadcast on the event bus.
type JobEventType string

const (
	JobEventCreated JobEventType = "created"
	JobEventRunning JobEventType = "running"
	JobEventSuccess JobEventType = "success"
	JobEventFailed  JobEventType = "failed"
)

func (t JobEventType) String() string {
	return string(t)
}

// JobEventTypeForStatus maps a terminal or running job status to its event type.
func JobEventTypeForStatus(status JobStatus) JobEventType {
	switch status {
	case JobStatusRunning:
		return JobEventRunning
	case JobStatusSuccess:
		return JobEventSuccess
	case JobStatusFailed:
		return JobEventFailed
	default:
		return JobEventCreated
	}
}

// LogChunkEventName is the SSE event type used for live step output chunks.
const LogChunkEventName = "log_chunk"

// JobEvent is broadcast whenever a job changes state.
type JobEvent struct {
	EventType   JobEventType `json:"event_type"`
	JobID       JobID        `json:"job_id"`
	ProjectName string       `json:"project_name"`
	Branch      string       `json:"branch"`
	Timestamp   Time         `json:"timestamp"`
}

// LogChunk carries one captured slice of step output to live subscribers.
type LogChunk struct {
	JobID     JobID   `json:"job_id"`
	StepType  LogType `json:"step_type"`
	Chunk     string  `json:"chunk"`
	Timestamp Time    `json:"timestamp"`
}
