// Package interfaces declares the cross-component contracts. Each component
// receives its peers as interfaces at construction time; a nil peer means
// "not wired yet" and every call site must treat it as unauthorized rather
// than fail open.
package interfaces

import (
	"context"

	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

// IdentityDirectory is the read-only authorization surface of the identity
// registry. Both queries return false for unknown subjects and never error;
// callers can rely on a negative answer meaning "definitely not authorized".
type IdentityDirectory interface {
	IsDoctorAuthorized(id types.SubjectID) bool
	IsPatientActive(id types.SubjectID) bool
}

// ClinicalSync is the push-sync entry point the identity registry invokes on
// its downstream consumer when doctor authorization changes. Push failures
// abort the registry mutation that triggered them.
type ClinicalSync interface {
	AuthorizeDoctor(id types.SubjectID) error
	RevokeDoctor(id types.SubjectID) error
}

// ActiveRecordReader is the slice of the clinical record store the patient
// self-service store consumes.
type ActiveRecordReader interface {
	GetActiveMedicalRecords(caller, patientID types.SubjectID) ([]types.ClinicalRecord, error)
}

// BlobStore is the content-addressed blob store collaborator. Put returns a
// deterministic hash-derived content address; Get retrieves by it.
type BlobStore interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, address string) ([]byte, error)
}

// Cipher is the per-subject authenticated-encryption pipeline.
type Cipher interface {
	Encrypt(plaintext []byte, subject types.SubjectID) ([]byte, error)
	Decrypt(pkg []byte, subject types.SubjectID) ([]byte, error)
}
