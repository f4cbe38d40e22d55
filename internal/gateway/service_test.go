package gateway_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riannbarbosa/BlockHealth/internal/authsync"
	"github.com/riannbarbosa/BlockHealth/internal/clinical"
	"github.com/riannbarbosa/BlockHealth/internal/documents"
	"github.com/riannbarbosa/BlockHealth/internal/gateway"
	"github.com/riannbarbosa/BlockHealth/internal/identity"
	"github.com/riannbarbosa/BlockHealth/internal/selfservice"
	"github.com/riannbarbosa/BlockHealth/pkg/blobstore"
	"github.com/riannbarbosa/BlockHealth/pkg/encryption"
	"github.com/riannbarbosa/BlockHealth/pkg/logger"
	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

func sid(b byte) types.SubjectID {
	var id types.SubjectID
	id[19] = b
	return id
}

type testGateway struct {
	server *httptest.Server
	tokens *gateway.TokenValidator
	owner  types.SubjectID
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()
	log := logger.NewNop()

	owner := sid(0x01)
	registryComponent := sid(0xA0)
	selfComponent := sid(0xA1)

	registry := identity.NewRegistry(owner, registryComponent, log)
	propagator := authsync.NewPropagator(registry, log)
	registry.SetDownstream(propagator)

	clinicalStore := clinical.NewStore(propagator, registry, registryComponent, selfComponent, log)
	selfStore := selfservice.NewStore(registry, clinicalStore, selfComponent, log)
	vault := documents.NewVault(encryption.NewPipeline("gateway-test-secret"), blobstore.NewMemory(), log)
	tokens := gateway.NewTokenValidator("gateway-test-jwt-secret", "blockhealth")

	service := gateway.NewService(registry, clinicalStore, selfStore, vault, tokens, log)
	server := httptest.NewServer(service.Router())
	t.Cleanup(server.Close)

	return &testGateway{server: server, tokens: tokens, owner: owner}
}

func (g *testGateway) do(t *testing.T, method, path string, as types.SubjectID, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, g.server.URL+path, &buf)
	require.NoError(t, err)

	if !as.IsZero() {
		token, err := g.tokens.IssueToken(as)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthNeedsNoToken(t *testing.T) {
	g := newTestGateway(t)

	resp := g.do(t, http.MethodGet, "/health", types.ZeroSubject, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMissingTokenRejected(t *testing.T) {
	g := newTestGateway(t)

	resp := g.do(t, http.MethodGet, "/api/v1/doctors", types.ZeroSubject, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGarbageTokenRejected(t *testing.T) {
	g := newTestGateway(t)

	req, err := http.NewRequest(http.MethodGet, g.server.URL+"/api/v1/doctors", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDoctorLifecycleOverHTTP(t *testing.T) {
	g := newTestGateway(t)
	doctor := sid(0x10)

	resp := g.do(t, http.MethodPost, "/api/v1/doctors", g.owner, map[string]string{
		"id": doctor.String(), "name": "Dr. Silva", "specialization": "cardiology", "license": "LIC1",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = g.do(t, http.MethodPost, "/api/v1/doctors", g.owner, map[string]string{
		"id": doctor.String(), "name": "Dr. Silva", "specialization": "cardiology", "license": "LIC1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = g.do(t, http.MethodGet, "/api/v1/doctors", g.owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doctors := decode[[]types.Doctor](t, resp)
	require.Len(t, doctors, 1)
	assert.Equal(t, doctor, doctors[0].ID)

	resp = g.do(t, http.MethodDelete, "/api/v1/doctors/"+doctor.String(), g.owner, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = g.do(t, http.MethodDelete, "/api/v1/doctors/"+doctor.String(), g.owner, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNonOwnerCannotRegister(t *testing.T) {
	g := newTestGateway(t)

	resp := g.do(t, http.MethodPost, "/api/v1/doctors", sid(0x99), map[string]string{
		"id": sid(0x10).String(), "name": "Dr. Silva",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMedicalRecordFlowOverHTTP(t *testing.T) {
	g := newTestGateway(t)
	doctor := sid(0x10)
	patient := sid(0x20)

	resp := g.do(t, http.MethodPost, "/api/v1/doctors", g.owner, map[string]string{
		"id": doctor.String(), "name": "Dr. Silva", "license": "LIC1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = g.do(t, http.MethodPost, "/api/v1/patients", g.owner, map[string]string{
		"id": patient.String(), "name": "Ana", "date_of_birth": "1990-01-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	document := []byte("visit notes: flu, rest and fluids")
	resp = g.do(t, http.MethodPost, "/api/v1/patients/"+patient.String()+"/records", doctor, map[string]interface{}{
		"file_name": "visit.pdf", "diagnosis": "flu", "treatment": "rest", "content": document,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = g.do(t, http.MethodGet, "/api/v1/patients/"+patient.String()+"/records", patient, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	records := decode[[]types.ClinicalRecord](t, resp)
	require.Len(t, records, 1)
	assert.Equal(t, "flu", records[0].Diagnosis)

	// A stranger may not read.
	resp = g.do(t, http.MethodGet, "/api/v1/patients/"+patient.String()+"/records", sid(0x99), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The patient downloads the decrypted document.
	resp = g.do(t, http.MethodGet, "/api/v1/patients/"+patient.String()+"/records/0/document", patient, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var downloaded bytes.Buffer
	_, err := downloaded.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, document, downloaded.Bytes())

	// The author deactivates the record.
	resp = g.do(t, http.MethodDelete, "/api/v1/patients/"+patient.String()+"/records/0", doctor, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = g.do(t, http.MethodGet, "/api/v1/patients/"+patient.String()+"/records/active", patient, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	active := decode[[]types.ClinicalRecord](t, resp)
	assert.Empty(t, active)
}

func TestSelfServiceFlowOverHTTP(t *testing.T) {
	g := newTestGateway(t)
	patient := sid(0x20)

	resp := g.do(t, http.MethodPost, "/api/v1/patients", g.owner, map[string]string{
		"id": patient.String(), "name": "Ana",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = g.do(t, http.MethodPut, "/api/v1/me/profile", patient, map[string]string{
		"name": "Ana", "email": "ana@example.com", "phone": "555-0100",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = g.do(t, http.MethodGet, "/api/v1/me/profile", patient, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[types.PatientProfile](t, resp)
	assert.Equal(t, "ana@example.com", profile.Email)

	resp = g.do(t, http.MethodPost, "/api/v1/me/records", patient, map[string]interface{}{
		"file_name": "xray.png", "record_type": "imaging", "content": []byte("xray bytes"),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = g.do(t, http.MethodGet, "/api/v1/me/records/count", patient, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	count := decode[map[string]int](t, resp)
	assert.Equal(t, 1, count["count"])

	resp = g.do(t, http.MethodGet, "/api/v1/me/records/0/document", patient, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var downloaded bytes.Buffer
	_, err := downloaded.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("xray bytes"), downloaded.Bytes())

	resp = g.do(t, http.MethodDelete, "/api/v1/me/records/0", patient, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = g.do(t, http.MethodGet, "/api/v1/me/records", patient, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	records := decode[[]types.SelfRecord](t, resp)
	assert.Empty(t, records)
}

func TestInactivePatientGetsConflict(t *testing.T) {
	g := newTestGateway(t)
	patient := sid(0x20)

	resp := g.do(t, http.MethodPost, "/api/v1/patients", g.owner, map[string]string{
		"id": patient.String(), "name": "Ana",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = g.do(t, http.MethodDelete, "/api/v1/patients/"+patient.String(), g.owner, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = g.do(t, http.MethodPut, "/api/v1/me/profile", patient, map[string]string{"name": "Ana"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
