// Package selfservice implements the patient-facing store: a profile per
// patient plus a list of self-uploaded records. Every operation is scoped to
// the calling patient; there is no cross-patient read surface here.
package selfservice

import (
	"sync"
	"time"

	"github.com/riannbarbosa/BlockHealth/pkg/interfaces"
	"github.com/riannbarbosa/BlockHealth/pkg/logger"
	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

// Store holds patient profiles and self-uploaded records keyed by subject.
type Store struct {
	mu       sync.Mutex
	profiles map[types.SubjectID]types.PatientProfile
	records  map[types.SubjectID][]types.SelfRecord

	// registry gates writes on patient activity. Nil fails closed.
	registry interfaces.IdentityDirectory

	// clinical serves GetMyMedicalRecords; this store identifies itself
	// to it with component.
	clinical  interfaces.ActiveRecordReader
	component types.SubjectID

	logger *logger.Logger
}

// NewStore creates a self-service store. component is the subject identity
// this store presents when reading clinical records on a patient's behalf.
func NewStore(registry interfaces.IdentityDirectory, clinical interfaces.ActiveRecordReader, component types.SubjectID, log *logger.Logger) *Store {
	return &Store{
		profiles:  make(map[types.SubjectID]types.PatientProfile),
		records:   make(map[types.SubjectID][]types.SelfRecord),
		registry:  registry,
		clinical:  clinical,
		component: component,
		logger:    log,
	}
}

// ComponentID returns the identity this store acts under.
func (s *Store) ComponentID() types.SubjectID {
	return s.component
}

// UpdateProfile overwrites the caller's contact fields. The Completed flag
// is left untouched regardless of what the new fields contain.
func (s *Store) UpdateProfile(caller types.SubjectID, name, email, phone string) error {
	if err := s.requireActive(caller); err != nil {
		return err
	}
	if name == "" {
		return types.NewError(types.KindEmptyField, "profile name must not be empty")
	}

	s.mu.Lock()
	profile := s.profiles[caller]
	profile.Name = name
	profile.Email = email
	profile.Phone = phone
	profile.LastUpdated = time.Now()
	s.profiles[caller] = profile
	s.mu.Unlock()

	s.logger.Audit(caller.String(), "update_profile", caller.String(), true, nil)
	return nil
}

// GetMyProfile returns the caller's profile. An untouched profile is the
// zero value rather than an error.
func (s *Store) GetMyProfile(caller types.SubjectID) (types.PatientProfile, error) {
	if err := s.requireActive(caller); err != nil {
		return types.PatientProfile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[caller], nil
}

// UploadSelfRecord appends a record to the caller's list. Entries are
// always marked encrypted.
func (s *Store) UploadSelfRecord(caller types.SubjectID, contentAddress, fileName, recordType, description string) error {
	if err := s.requireActive(caller); err != nil {
		return err
	}
	if contentAddress == "" {
		return types.NewError(types.KindEmptyField, "content address must not be empty")
	}
	if fileName == "" {
		return types.NewError(types.KindEmptyField, "file name must not be empty")
	}

	s.mu.Lock()
	s.records[caller] = append(s.records[caller], types.SelfRecord{
		ContentAddress: contentAddress,
		FileName:       fileName,
		RecordType:     recordType,
		Description:    description,
		CreatedAt:      time.Now(),
		Encrypted:      true,
	})
	s.mu.Unlock()

	s.logger.Audit(caller.String(), "upload_self_record", caller.String(), true, map[string]interface{}{
		"content_address": contentAddress,
	})
	return nil
}

// UpdateSelfRecord rewrites the descriptive metadata of an existing entry
// in place. The content address, file name, slot and creation time are left
// untouched.
func (s *Store) UpdateSelfRecord(caller types.SubjectID, index int, recordType, description string) error {
	if err := s.requireActive(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.records[caller]
	if index < 0 || index >= len(list) {
		return types.NewError(types.KindIndexOutOfRange, "self record index %d out of range", index)
	}

	list[index].RecordType = recordType
	list[index].Description = description

	s.logger.Audit(caller.String(), "update_self_record", caller.String(), true, map[string]interface{}{
		"index": index,
	})
	return nil
}

// DeleteSelfRecord removes an entry by moving the last entry into its slot
// and truncating. Callers holding indices past the deleted slot must
// re-enumerate.
func (s *Store) DeleteSelfRecord(caller types.SubjectID, index int) error {
	if err := s.requireActive(caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.records[caller]
	if index < 0 || index >= len(list) {
		return types.NewError(types.KindIndexOutOfRange, "self record index %d out of range", index)
	}

	last := len(list) - 1
	list[index] = list[last]
	s.records[caller] = list[:last]

	s.logger.Audit(caller.String(), "delete_self_record", caller.String(), true, map[string]interface{}{
		"index": index,
	})
	return nil
}

// GetMySelfRecords returns a copy of the caller's uploads.
func (s *Store) GetMySelfRecords(caller types.SubjectID) ([]types.SelfRecord, error) {
	if err := s.requireActive(caller); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.SelfRecord{}, s.records[caller]...), nil
}

// GetMySelfRecordCount reports the caller's upload count.
func (s *Store) GetMySelfRecordCount(caller types.SubjectID) (int, error) {
	if err := s.requireActive(caller); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[caller]), nil
}

// GetMyMedicalRecords fetches the caller's active doctor-authored records
// from the clinical store, acting as this component.
func (s *Store) GetMyMedicalRecords(caller types.SubjectID) ([]types.ClinicalRecord, error) {
	if err := s.requireActive(caller); err != nil {
		return nil, err
	}
	if s.clinical == nil {
		s.logger.Security("selfservice_clinical_unwired", caller.String(), nil)
		return nil, types.NewError(types.KindUnauthorized, "caller %s may not read medical records", caller)
	}
	return s.clinical.GetActiveMedicalRecords(s.component, caller)
}

// requireActive gates every operation on the caller being an active patient.
// An unwired registry degrades to the same inactive answer, so callers can
// never tell an availability failure from a confidentiality denial.
func (s *Store) requireActive(caller types.SubjectID) error {
	if caller.IsZero() {
		return types.NewError(types.KindInvalidSubject, "subject id must not be zero")
	}
	if s.registry == nil {
		s.logger.Security("selfservice_registry_unwired", caller.String(), nil)
		return types.NewError(types.KindPatientInactive, "patient %s is not active", caller)
	}
	if !s.registry.IsPatientActive(caller) {
		return types.NewError(types.KindPatientInactive, "patient %s is not active", caller)
	}
	return nil
}
