package selfservice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riannbarbosa/BlockHealth/internal/selfservice"
	"github.com/riannbarbosa/BlockHealth/pkg/logger"
	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

func sid(b byte) types.SubjectID {
	var id types.SubjectID
	id[19] = b
	return id
}

type fakeDirectory struct {
	active map[types.SubjectID]bool
}

func (d *fakeDirectory) IsDoctorAuthorized(types.SubjectID) bool { return false }

func (d *fakeDirectory) IsPatientActive(id types.SubjectID) bool { return d.active[id] }

type fakeClinical struct {
	lastCaller types.SubjectID
	records    []types.ClinicalRecord
}

func (c *fakeClinical) GetActiveMedicalRecords(caller, patientID types.SubjectID) ([]types.ClinicalRecord, error) {
	c.lastCaller = caller
	return c.records, nil
}

func newStore(active ...types.SubjectID) (*selfservice.Store, *fakeClinical) {
	dir := &fakeDirectory{active: make(map[types.SubjectID]bool)}
	for _, id := range active {
		dir.active[id] = true
	}
	clin := &fakeClinical{}
	return selfservice.NewStore(dir, clin, sid(0xA1), logger.NewNop()), clin
}

func TestUpdateProfileNeverTouchesCompleted(t *testing.T) {
	patient := sid(0x20)
	store, _ := newStore(patient)

	require.NoError(t, store.UpdateProfile(patient, "Ana", "ana@example.com", "555-0100"))

	profile, err := store.GetMyProfile(patient)
	require.NoError(t, err)
	assert.Equal(t, "Ana", profile.Name)
	assert.Equal(t, "ana@example.com", profile.Email)
	assert.False(t, profile.Completed)
	assert.False(t, profile.LastUpdated.IsZero())

	require.NoError(t, store.UpdateProfile(patient, "Ana B", "ana@example.com", "555-0101"))
	profile, err = store.GetMyProfile(patient)
	require.NoError(t, err)
	assert.Equal(t, "Ana B", profile.Name)
	assert.False(t, profile.Completed)
}

func TestUpdateProfileGates(t *testing.T) {
	patient := sid(0x20)
	inactive := sid(0x21)
	store, _ := newStore(patient)

	err := store.UpdateProfile(inactive, "Bob", "", "")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindPatientInactive))

	err = store.UpdateProfile(types.ZeroSubject, "Bob", "", "")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindInvalidSubject))

	err = store.UpdateProfile(patient, "", "", "")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindEmptyField))
}

func TestUploadSelfRecordAlwaysMarksEncrypted(t *testing.T) {
	patient := sid(0x20)
	store, _ := newStore(patient)

	require.NoError(t, store.UploadSelfRecord(patient, "addr-1", "xray.png", "imaging", "left wrist"))

	records, err := store.GetMySelfRecords(patient)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Encrypted)
	assert.Equal(t, "imaging", records[0].RecordType)
}

func TestUploadSelfRecordValidation(t *testing.T) {
	patient := sid(0x20)
	store, _ := newStore(patient)

	err := store.UploadSelfRecord(patient, "", "xray.png", "imaging", "")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindEmptyField))

	err = store.UploadSelfRecord(patient, "addr-1", "", "imaging", "")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindEmptyField))
}

func TestDeleteSelfRecordSwapsWithLast(t *testing.T) {
	patient := sid(0x20)
	store, _ := newStore(patient)

	require.NoError(t, store.UploadSelfRecord(patient, "addr-1", "a.png", "imaging", ""))
	require.NoError(t, store.UploadSelfRecord(patient, "addr-2", "b.png", "imaging", ""))
	require.NoError(t, store.UploadSelfRecord(patient, "addr-3", "c.png", "imaging", ""))

	require.NoError(t, store.DeleteSelfRecord(patient, 0))

	records, err := store.GetMySelfRecords(patient)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "addr-3", records[0].ContentAddress)
	assert.Equal(t, "addr-2", records[1].ContentAddress)

	count, err := store.GetMySelfRecordCount(patient)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDeleteSelfRecordIndexBounds(t *testing.T) {
	patient := sid(0x20)
	store, _ := newStore(patient)
	require.NoError(t, store.UploadSelfRecord(patient, "addr-1", "a.png", "imaging", ""))

	err := store.DeleteSelfRecord(patient, 1)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindIndexOutOfRange))

	err = store.DeleteSelfRecord(patient, -1)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindIndexOutOfRange))
}

func TestUpdateSelfRecordInPlace(t *testing.T) {
	patient := sid(0x20)
	store, _ := newStore(patient)

	require.NoError(t, store.UploadSelfRecord(patient, "addr-1", "a.png", "imaging", "old"))
	require.NoError(t, store.UploadSelfRecord(patient, "addr-2", "b.png", "imaging", ""))

	require.NoError(t, store.UpdateSelfRecord(patient, 0, "lab", "new"))

	records, err := store.GetMySelfRecords(patient)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "lab", records[0].RecordType)
	assert.Equal(t, "new", records[0].Description)
	// Metadata updates never touch the stored document reference.
	assert.Equal(t, "addr-1", records[0].ContentAddress)
	assert.Equal(t, "a.png", records[0].FileName)
	assert.Equal(t, "addr-2", records[1].ContentAddress)
}

func TestUpdateSelfRecordIndexBounds(t *testing.T) {
	patient := sid(0x20)
	store, _ := newStore(patient)
	require.NoError(t, store.UploadSelfRecord(patient, "addr-1", "a.png", "imaging", ""))

	err := store.UpdateSelfRecord(patient, 1, "lab", "")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindIndexOutOfRange))
}

func TestGetMyMedicalRecordsDelegatesAsComponent(t *testing.T) {
	patient := sid(0x20)
	store, clin := newStore(patient)
	clin.records = []types.ClinicalRecord{{ContentAddress: "addr-1", PatientID: patient, Active: true}}

	records, err := store.GetMyMedicalRecords(patient)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, sid(0xA1), clin.lastCaller)
}

func TestReadsRequireActivePatient(t *testing.T) {
	patient := sid(0x20)
	store, _ := newStore()

	_, err := store.GetMySelfRecords(patient)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindPatientInactive))

	_, err = store.GetMyMedicalRecords(patient)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindPatientInactive))
}

// Missing peers must look exactly like a denial, never like an outage.
func TestUnwiredPeersFailClosed(t *testing.T) {
	patient := sid(0x20)

	t.Run("unwired registry reads as inactive patient", func(t *testing.T) {
		store := selfservice.NewStore(nil, &fakeClinical{}, sid(0xA1), logger.NewNop())

		err := store.UploadSelfRecord(patient, "addr-1", "a.png", "imaging", "")
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.KindPatientInactive))

		err = store.UpdateProfile(patient, "Ana", "", "")
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.KindPatientInactive))
	})

	t.Run("unwired clinical store reads as denial", func(t *testing.T) {
		dir := &fakeDirectory{active: map[types.SubjectID]bool{patient: true}}
		store := selfservice.NewStore(dir, nil, sid(0xA1), logger.NewNop())

		_, err := store.GetMyMedicalRecords(patient)
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.KindUnauthorized))
	})
}
