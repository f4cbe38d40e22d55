package authsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riannbarbosa/BlockHealth/pkg/logger"
	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

// stubDirectory is a hand-rolled IdentityDirectory for cache tests.
type stubDirectory struct {
	doctors  map[types.SubjectID]bool
	patients map[types.SubjectID]bool
}

func (s *stubDirectory) IsDoctorAuthorized(id types.SubjectID) bool { return s.doctors[id] }
func (s *stubDirectory) IsPatientActive(id types.SubjectID) bool    { return s.patients[id] }

func subject(b byte) types.SubjectID {
	var id types.SubjectID
	id[0] = b
	return id
}

func TestPropagator_PushSync(t *testing.T) {
	dir := &stubDirectory{doctors: map[types.SubjectID]bool{subject(1): true}}
	p := NewPropagator(dir, logger.NewNop())

	require.NoError(t, p.AuthorizeDoctor(subject(1)))
	assert.True(t, p.LocallyAuthorized(subject(1)))
	assert.True(t, p.Ensure(subject(1)))

	require.NoError(t, p.RevokeDoctor(subject(1)))
	assert.False(t, p.LocallyAuthorized(subject(1)))
}

func TestPropagator_PullRepairsMissedGrant(t *testing.T) {
	dir := &stubDirectory{doctors: map[types.SubjectID]bool{subject(2): true}}
	p := NewPropagator(dir, logger.NewNop())

	// The cache was never told about the grant; Ensure must repair it
	// inline and then authorize.
	assert.False(t, p.LocallyAuthorized(subject(2)))
	assert.True(t, p.Ensure(subject(2)))
	assert.True(t, p.LocallyAuthorized(subject(2)))
}

func TestPropagator_RegistryWinsOnRevoke(t *testing.T) {
	dir := &stubDirectory{doctors: map[types.SubjectID]bool{}}
	p := NewPropagator(dir, logger.NewNop())

	// The cache holds a stale grant; the registry's revoke must win and the
	// stale entry must be corrected.
	require.NoError(t, p.AuthorizeDoctor(subject(3)))
	assert.False(t, p.Ensure(subject(3)))
	assert.False(t, p.LocallyAuthorized(subject(3)))
}

func TestPropagator_FailsClosedWhenUnwired(t *testing.T) {
	p := NewPropagator(nil, logger.NewNop())

	require.NoError(t, p.AuthorizeDoctor(subject(4)))
	assert.False(t, p.Ensure(subject(4)), "no registry must mean no authorization")
}

func TestPropagator_ZeroSubject(t *testing.T) {
	p := NewPropagator(&stubDirectory{}, logger.NewNop())

	assert.Error(t, p.AuthorizeDoctor(types.ZeroSubject))
	assert.Error(t, p.RevokeDoctor(types.ZeroSubject))
	assert.False(t, p.Ensure(types.ZeroSubject))
}
