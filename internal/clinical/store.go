// Package clinical implements the clinical record store: the append-only,
// soft-deletable list of doctor-authored records per patient. Every write is
// gated by a live authorization check through the propagator and by the
// patient's activity state in the identity registry; neither answer is
// cached beyond the duration of one operation.
package clinical

import (
	"sync"
	"time"

	"github.com/riannbarbosa/BlockHealth/internal/authsync"
	"github.com/riannbarbosa/BlockHealth/pkg/interfaces"
	"github.com/riannbarbosa/BlockHealth/pkg/logger"
	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

// Store holds per-patient record lists. Records are only ever appended or
// soft-deactivated, so a record's slice index is a stable external reference.
type Store struct {
	mu      sync.Mutex
	records map[types.SubjectID][]types.ClinicalRecord

	propagator *authsync.Propagator

	// registry is the read-only identity surface. Nil fails closed.
	registry interfaces.IdentityDirectory

	// registryComponent and selfServiceComponent are the two non-doctor
	// peers whose reads this store recognizes.
	registryComponent    types.SubjectID
	selfServiceComponent types.SubjectID

	logger *logger.Logger
}

// NewStore creates a clinical record store.
func NewStore(propagator *authsync.Propagator, registry interfaces.IdentityDirectory, registryComponent, selfServiceComponent types.SubjectID, log *logger.Logger) *Store {
	return &Store{
		records:              make(map[types.SubjectID][]types.ClinicalRecord),
		propagator:           propagator,
		registry:             registry,
		registryComponent:    registryComponent,
		selfServiceComponent: selfServiceComponent,
		logger:               log,
	}
}

// AddMedicalRecord appends a doctor-authored record to a patient's history.
func (s *Store) AddMedicalRecord(caller types.SubjectID, contentAddress, fileName string, patientID types.SubjectID, diagnosis, treatment string) error {
	if contentAddress == "" {
		return types.NewError(types.KindEmptyField, "content address must not be empty")
	}

	// The live checks and the append happen under one lock so no other
	// store operation can interleave. A revoke landing in the registry
	// after Ensure answers but before the append can still admit this one
	// record; the registry cannot be consulted atomically with the append,
	// only the window inside this store is closed.
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.propagator.Ensure(caller) {
		s.logger.Security("medical_record_write_denied", caller.String(), map[string]interface{}{
			"patient": patientID.String(),
		})
		return types.NewError(types.KindUnauthorized, "caller %s is not an authorized doctor", caller)
	}
	if !s.patientActive(patientID) {
		return types.NewError(types.KindPatientInactive, "patient %s is not active", patientID)
	}

	s.records[patientID] = append(s.records[patientID], types.ClinicalRecord{
		ContentAddress: contentAddress,
		FileName:       fileName,
		PatientID:      patientID,
		Diagnosis:      diagnosis,
		Treatment:      treatment,
		AuthorID:       caller,
		CreatedAt:      time.Now(),
		Active:         true,
	})

	s.logger.Audit(caller.String(), "add_medical_record", patientID.String(), true, map[string]interface{}{
		"content_address": contentAddress,
	})
	return nil
}

// DeactivateRecord clears a record's active flag. Only the authoring doctor
// may do so; the entry itself is never removed, so indices never shift.
func (s *Store) DeactivateRecord(caller, patientID types.SubjectID, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.records[patientID]
	if index < 0 || index >= len(list) {
		return types.NewError(types.KindIndexOutOfRange, "record index %d out of range for patient %s", index, patientID)
	}
	if list[index].AuthorID != caller {
		return types.NewError(types.KindNotOwner, "record %d was not authored by caller %s", index, caller)
	}

	list[index].Active = false

	s.logger.Audit(caller.String(), "deactivate_medical_record", patientID.String(), true, map[string]interface{}{
		"index": index,
	})
	return nil
}

// GetMedicalRecords returns a patient's full history, active and inactive.
// The caller must be the patient, the identity registry component, or a
// currently authorized doctor.
func (s *Store) GetMedicalRecords(caller, patientID types.SubjectID) ([]types.ClinicalRecord, error) {
	if !s.allowedReader(caller, patientID, false) {
		return nil, types.NewError(types.KindUnauthorized, "caller %s may not read records of patient %s", caller, patientID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ClinicalRecord{}, s.records[patientID]...), nil
}

// GetActiveMedicalRecords returns the active records in insertion order.
// The self-service component is additionally accepted as caller so patients
// can surface their doctor-authored records through it.
func (s *Store) GetActiveMedicalRecords(caller, patientID types.SubjectID) ([]types.ClinicalRecord, error) {
	if !s.allowedReader(caller, patientID, true) {
		return nil, types.NewError(types.KindUnauthorized, "caller %s may not read records of patient %s", caller, patientID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.ClinicalRecord
	for _, record := range s.records[patientID] {
		if record.Active {
			out = append(out, record)
		}
	}
	return out, nil
}

// RecordCount reports the full history length for a patient.
func (s *Store) RecordCount(patientID types.SubjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[patientID])
}

// allowedReader implements the read authorization surface. Authorization
// checks go through the propagator so a revoked doctor loses read access
// even when the cache was never told.
func (s *Store) allowedReader(caller, patientID types.SubjectID, acceptSelfService bool) bool {
	if caller.IsZero() {
		return false
	}
	if caller == patientID || caller == s.registryComponent {
		return true
	}
	if acceptSelfService && caller == s.selfServiceComponent {
		return true
	}
	return s.propagator.Ensure(caller)
}

// patientActive queries the registry, failing closed when unwired.
func (s *Store) patientActive(id types.SubjectID) bool {
	if s.registry == nil {
		s.logger.Security("clinical_registry_unwired", id.String(), nil)
		return false
	}
	return s.registry.IsPatientActive(id)
}
