package types

import "time"

// ClinicalRecord is a doctor-authored record attached to a patient. Records
// are immutable once created except for the Active flag, which only the
// authoring doctor may clear. The per-patient slice index is the external
// reference for deactivation; soft deletion keeps indices stable.
type ClinicalRecord struct {
	ContentAddress string    `json:"content_address"`
	FileName       string    `json:"file_name"`
	PatientID      SubjectID `json:"patient_id"`
	Diagnosis      string    `json:"diagnosis"`
	Treatment      string    `json:"treatment"`
	AuthorID       SubjectID `json:"author_id"`
	CreatedAt      time.Time `json:"created_at"`
	Active         bool      `json:"active"`
}

// SelfRecord is a patient-authored record. Unlike ClinicalRecord it supports
// physical removal by swap-with-last-and-truncate, so indices are only
// meaningful to the owning patient within one session.
type SelfRecord struct {
	ContentAddress string    `json:"content_address"`
	FileName       string    `json:"file_name"`
	RecordType     string    `json:"record_type"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
	Encrypted      bool      `json:"encrypted"`
}

// EventType names the registry lifecycle events.
type EventType string

const (
	EventDoctorRegistered   EventType = "DoctorRegistered"
	EventDoctorRevoked      EventType = "DoctorRevoked"
	EventPatientRegistered  EventType = "PatientRegistered"
	EventPatientDeactivated EventType = "PatientDeactivated"
)

// Event is an entry in the identity registry's append-only event journal.
type Event struct {
	Type      EventType `json:"type"`
	Subject   SubjectID `json:"subject"`
	Actor     SubjectID `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}
