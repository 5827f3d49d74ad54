package model

import "time"

// QueryMode identifies which prompt variant produced a consultation.
type QueryMode string

const (
	QueryModeMedications QueryMode = "medications"
	QueryModeManagement  QueryMode = "management"
	QueryModeCombined    QueryMode = "combined"
)

// ConsultationStatus summarizes how much of a response could be understood.
type ConsultationStatus string

const (
	ConsultationComplete ConsultationStatus = "complete"
	ConsultationPartial  ConsultationStatus = "partial"
	ConsultationFailed   ConsultationStatus = "failed"
)

// Consultation is a stored record of one recommendation request.
type Consultation struct {
	ID         string                 `json:"id" yaml:"id"`
	Mode       QueryMode              `json:"mode" yaml:"mode"`
	Profile    PatientProfile         `json:"profile" yaml:"profile"`
	Result     CombinedRecommendation `json:"result" yaml:"result"`
	Status     ConsultationStatus     `json:"status" yaml:"status"`
	Error      string                 `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMs int64                  `json:"duration_ms" yaml:"duration_ms"`
	CreatedAt  time.Time              `json:"created_at" yaml:"created_at"`
}
