package analytics

import "time"

type DataCollectorConfig struct {
	FileName      string
	CollectorType DataCollectorType
}

type DataCollectorType string

const LOG_FILE_DATA_COLLECTOR DataCollectorType = "LOG_FILE_DATA_COLLECTOR"
const CONSOLE_DATA_COLLECTOR DataCollectorType = "CONSOLE_DATA_COLLECTOR"

type ActivityKind string

const ACTIVITY_MESSAGE_RECEIVED ActivityKind = "message_received"
const ACTIVITY_INTENT_CLASSIFIED ActivityKind = "intent_classified"
const ACTIVITY_ACTION_EXECUTED ActivityKind = "action_executed"
const ACTIVITY_ACTION_FAILED ActivityKind = "action_failed"
const ACTIVITY_COMPENSATION_RUN ActivityKind = "compensation_run"
const ACTIVITY_DEAD_LETTERED ActivityKind = "dead_lettered"
const ACTIVITY_WORKFLOW_COMPLETED ActivityKind = "workflow_completed"

// Activity is one auditable step of message processing. Detail carries
// kind-specific fields (action type, intent name, error text).
type Activity struct {
	ActivityID string         `json:"activityId"`
	LeadID     string         `json:"leadId"`
	BusinessID string         `json:"businessId"`
	Kind       ActivityKind   `json:"kind"`
	Detail     map[string]any `json:"detail,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

type Collector interface {
	RecordActivity(activity Activity)
}

var collector Collector = &consoleCollector{}

func InitDataCollector(config DataCollectorConfig) error {
	switch config.CollectorType {
	case LOG_FILE_DATA_COLLECTOR:
		c, err := NewLogFileCollector(config.FileName)
		if err != nil {
			return err
		}
		collector = c
	case CONSOLE_DATA_COLLECTOR:
		collector = &consoleCollector{}
	}
	return nil
}

func RecordActivity(activity Activity) {
	if activity.Timestamp.IsZero() {
		activity.Timestamp = time.Now()
	}
	collector.RecordActivity(activity)
}
