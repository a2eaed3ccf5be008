package model

import "time"

type DeadLetterStatus string

const DEAD_LETTER_PENDING DeadLetterStatus = "PENDING"
const DEAD_LETTER_RETRIED DeadLetterStatus = "RETRIED"
const DEAD_LETTER_RESOLVED DeadLetterStatus = "RESOLVED"

type DeadLetterMessage struct {
	MessageID      string           `json:"messageId"`
	LeadID         string           `json:"leadId"`
	Payload        *AIResult        `json:"payload"`
	Error          string           `json:"error"`
	AttemptCount   int              `json:"attemptCount"`
	FirstAttemptAt time.Time        `json:"firstAttemptAt"`
	LastAttemptAt  time.Time        `json:"lastAttemptAt"`
	Status         DeadLetterStatus `json:"status"`
}

type ProcessingStatus string

const PROCESSING_SUCCESS ProcessingStatus = "SUCCESS"
const PROCESSING_FAILED ProcessingStatus = "FAILED"
const PROCESSING_RETRYING ProcessingStatus = "RETRYING"
const PROCESSING_SKIPPED ProcessingStatus = "SKIPPED"

type ProcessedMessage struct {
	MessageID   string           `json:"messageId"`
	LeadID      string           `json:"leadId"`
	Status      ProcessingStatus `json:"status"`
	ProcessedAt time.Time        `json:"processedAt"`
	ExpiresAt   time.Time        `json:"expiresAt"`
}
