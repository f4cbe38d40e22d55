package types

import "time"

// Doctor is a registered clinician. Doctors are never physically deleted;
// revocation clears Authorized and the row is retained for audit.
type Doctor struct {
	ID             SubjectID `json:"id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	License        string    `json:"license"`
	Authorized     bool      `json:"authorized"`
	RegisteredAt   time.Time `json:"registered_at"`
}

// Patient is a registered patient. Deactivation clears Active; the row is
// retained for audit.
type Patient struct {
	ID               SubjectID `json:"id"`
	Name             string    `json:"name"`
	DateOfBirth      string    `json:"date_of_birth"`
	Phone            string    `json:"phone"`
	EmergencyContact string    `json:"emergency_contact"`
	Active           bool      `json:"active"`
	RegisteredAt     time.Time `json:"registered_at"`
}

// PatientProfile is the patient-maintained contact profile, one per patient,
// upserted in place. Completed is never set by the update operation.
type PatientProfile struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Completed   bool      `json:"completed"`
	LastUpdated time.Time `json:"last_updated"`
}
