// Package identity implements the identity registry: the authoritative
// mapping of doctor and patient identities to their authorization and
// activity flags. Only the owner principal may mutate it; every other
// component consumes it read-only.
package identity

import (
	"sync"
	"time"

	"github.com/riannbarbosa/BlockHealth/pkg/interfaces"
	"github.com/riannbarbosa/BlockHealth/pkg/logger"
	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

// Registry holds the doctor and patient tables plus their insertion-ordered
// identifier lists. A single mutex serializes every check-then-write so the
// existence check and the insert of a registration are one atomic unit.
type Registry struct {
	mu sync.Mutex

	owner     types.SubjectID
	component types.SubjectID

	doctors     map[types.SubjectID]*types.Doctor
	doctorOrder []types.SubjectID

	patients     map[types.SubjectID]*types.Patient
	patientOrder []types.SubjectID

	events []types.Event

	// downstream is the clinical-side consumer of doctor authorization.
	// Nil means not wired yet: push-sync becomes a no-op, not an error.
	downstream interfaces.ClinicalSync

	logger *logger.Logger
}

// NewRegistry creates an identity registry owned by the given administrator
// subject. The component identifier is the registry's own identity when it
// calls into peer components.
func NewRegistry(owner, component types.SubjectID, log *logger.Logger) *Registry {
	return &Registry{
		owner:     owner,
		component: component,
		doctors:   make(map[types.SubjectID]*types.Doctor),
		patients:  make(map[types.SubjectID]*types.Patient),
		logger:    log,
	}
}

// SetDownstream wires the clinical-side sync consumer. Registries may run
// before being wired together, so this is a separate step from construction.
func (r *Registry) SetDownstream(downstream interfaces.ClinicalSync) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.downstream = downstream
}

// ComponentID returns the registry's own subject identity.
func (r *Registry) ComponentID() types.SubjectID {
	return r.component
}

// RegisterDoctor registers a doctor and authorizes it, pushing the
// authorization downstream. Registration and push are atomic: if the push
// fails, no state is published and the whole operation fails.
func (r *Registry) RegisterDoctor(caller, id types.SubjectID, name, specialization, license string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return types.NewError(types.KindUnauthorized, "only the registry owner may register doctors")
	}
	if id.IsZero() {
		return types.NewError(types.KindInvalidSubject, "doctor id must not be the null identifier")
	}
	if existing, ok := r.doctors[id]; ok && existing.Authorized {
		return types.NewError(types.KindAlreadyRegistered, "doctor %s is already registered", id)
	}

	// Push before publishing so a failed sync leaves the registry untouched.
	if err := r.pushAuthorize(id); err != nil {
		return err
	}

	if existing, ok := r.doctors[id]; ok {
		// Reactivating a revoked doctor keeps its enumeration slot.
		existing.Name = name
		existing.Specialization = specialization
		existing.License = license
		existing.Authorized = true
	} else {
		r.doctors[id] = &types.Doctor{
			ID:             id,
			Name:           name,
			Specialization: specialization,
			License:        license,
			Authorized:     true,
			RegisteredAt:   time.Now(),
		}
		r.doctorOrder = append(r.doctorOrder, id)
	}

	r.emit(types.EventDoctorRegistered, id, caller)
	r.logger.Audit(caller.String(), "register_doctor", id.String(), true, map[string]interface{}{
		"license": license,
	})
	return nil
}

// RevokeDoctor clears a doctor's authorization and propagates the revoke.
// The entry is retained for audit.
func (r *Registry) RevokeDoctor(caller, id types.SubjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return types.NewError(types.KindUnauthorized, "only the registry owner may revoke doctors")
	}
	doctor, ok := r.doctors[id]
	if !ok || !doctor.Authorized {
		return types.NewError(types.KindNotFound, "doctor %s is not registered", id)
	}

	if err := r.pushRevoke(id); err != nil {
		return err
	}

	doctor.Authorized = false

	r.emit(types.EventDoctorRevoked, id, caller)
	r.logger.Audit(caller.String(), "revoke_doctor", id.String(), true, nil)
	return nil
}

// RegisterPatient registers a patient as active.
func (r *Registry) RegisterPatient(caller, id types.SubjectID, name, dateOfBirth, phone, emergencyContact string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return types.NewError(types.KindUnauthorized, "only the registry owner may register patients")
	}
	if id.IsZero() {
		return types.NewError(types.KindInvalidSubject, "patient id must not be the null identifier")
	}
	if existing, ok := r.patients[id]; ok && existing.Active {
		return types.NewError(types.KindAlreadyRegistered, "patient %s is already registered", id)
	}

	if existing, ok := r.patients[id]; ok {
		existing.Name = name
		existing.DateOfBirth = dateOfBirth
		existing.Phone = phone
		existing.EmergencyContact = emergencyContact
		existing.Active = true
	} else {
		r.patients[id] = &types.Patient{
			ID:               id,
			Name:             name,
			DateOfBirth:      dateOfBirth,
			Phone:            phone,
			EmergencyContact: emergencyContact,
			Active:           true,
			RegisteredAt:     time.Now(),
		}
		r.patientOrder = append(r.patientOrder, id)
	}

	r.emit(types.EventPatientRegistered, id, caller)
	r.logger.Audit(caller.String(), "register_patient", id.String(), true, nil)
	return nil
}

// DeactivatePatient clears a patient's active flag. The entry is retained
// for audit.
func (r *Registry) DeactivatePatient(caller, id types.SubjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return types.NewError(types.KindUnauthorized, "only the registry owner may deactivate patients")
	}
	patient, ok := r.patients[id]
	if !ok || !patient.Active {
		return types.NewError(types.KindNotFound, "patient %s is not active", id)
	}

	patient.Active = false

	r.emit(types.EventPatientDeactivated, id, caller)
	r.logger.Audit(caller.String(), "deactivate_patient", id.String(), true, nil)
	return nil
}

// IsDoctorAuthorized reports whether the doctor is currently authorized.
// Unknown ids are false, never an error.
func (r *Registry) IsDoctorAuthorized(id types.SubjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	doctor, ok := r.doctors[id]
	return ok && doctor.Authorized
}

// IsPatientActive reports whether the patient is currently active. Unknown
// ids are false, never an error.
func (r *Registry) IsPatientActive(id types.SubjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	patient, ok := r.patients[id]
	return ok && patient.Active
}

// GetAllDoctors returns the currently authorized doctors in registration
// order. Revoked entries stay in the table for audit but are filtered here.
func (r *Registry) GetAllDoctors() []types.Doctor {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.Doctor, 0, len(r.doctorOrder))
	for _, id := range r.doctorOrder {
		if doctor := r.doctors[id]; doctor.Authorized {
			out = append(out, *doctor)
		}
	}
	return out
}

// GetAllPatients returns the currently active patients in registration order.
func (r *Registry) GetAllPatients() []types.Patient {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.Patient, 0, len(r.patientOrder))
	for _, id := range r.patientOrder {
		if patient := r.patients[id]; patient.Active {
			out = append(out, *patient)
		}
	}
	return out
}

// GetDoctor returns a doctor entry, including revoked ones.
func (r *Registry) GetDoctor(id types.SubjectID) (types.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doctor, ok := r.doctors[id]
	if !ok {
		return types.Doctor{}, types.NewError(types.KindNotFound, "doctor %s is not registered", id)
	}
	return *doctor, nil
}

// GetPatient returns a patient entry, including deactivated ones.
func (r *Registry) GetPatient(id types.SubjectID) (types.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	patient, ok := r.patients[id]
	if !ok {
		return types.Patient{}, types.NewError(types.KindNotFound, "patient %s is not registered", id)
	}
	return *patient, nil
}

// Events returns a copy of the registry's event journal.
func (r *Registry) Events() []types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Event{}, r.events...)
}

func (r *Registry) emit(eventType types.EventType, subject, actor types.SubjectID) {
	r.events = append(r.events, types.Event{
		Type:      eventType,
		Subject:   subject,
		Actor:     actor,
		Timestamp: time.Now(),
	})
}

func (r *Registry) pushAuthorize(id types.SubjectID) error {
	if r.downstream == nil {
		return nil
	}
	if err := r.pushErr(r.downstream.AuthorizeDoctor(id)); err != nil {
		r.logger.WithComponent("identity").WithError(err).WithField("doctor", id.String()).Error("Downstream authorize sync failed; aborting registration")
		return err
	}
	return nil
}

func (r *Registry) pushRevoke(id types.SubjectID) error {
	if r.downstream == nil {
		return nil
	}
	if err := r.pushErr(r.downstream.RevokeDoctor(id)); err != nil {
		r.logger.WithComponent("identity").WithError(err).WithField("doctor", id.String()).Error("Downstream revoke sync failed; aborting revoke")
		return err
	}
	return nil
}

func (r *Registry) pushErr(err error) error {
	if err == nil {
		return nil
	}
	return types.WrapError(types.KindRemoteUnavailable, err, "downstream authorization sync failed")
}
