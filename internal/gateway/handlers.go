package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

type registerDoctorRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	License        string `json:"license"`
}

type registerPatientRequest struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	DateOfBirth      string `json:"date_of_birth"`
	Phone            string `json:"phone"`
	EmergencyContact string `json:"emergency_contact"`
}

type addMedicalRecordRequest struct {
	FileName  string `json:"file_name"`
	Diagnosis string `json:"diagnosis"`
	Treatment string `json:"treatment"`
	Content   []byte `json:"content"`
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type selfRecordRequest struct {
	FileName    string `json:"file_name"`
	RecordType  string `json:"record_type"`
	Description string `json:"description"`
	Content     []byte `json:"content"`
}

type updateSelfRecordRequest struct {
	RecordType  string `json:"record_type"`
	Description string `json:"description"`
}

// caller extracts the authenticated subject placed by the auth middleware.
func (s *Service) caller(r *http.Request) (types.SubjectID, bool) {
	return SubjectFromContext(r.Context())
}

func (s *Service) decodeBody(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Service) pathSubject(w http.ResponseWriter, r *http.Request) (types.SubjectID, bool) {
	id, err := types.ParseSubjectID(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid subject identifier")
		return types.ZeroSubject, false
	}
	return id, true
}

func pathIndex(r *http.Request) int {
	// The route pattern restricts index to digits.
	index, _ := strconv.Atoi(mux.Vars(r)["index"])
	return index
}

func (s *Service) handleRegisterDoctor(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	var req registerDoctorRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	id, err := types.ParseSubjectID(req.ID)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid doctor identifier")
		return
	}
	if err := s.registry.RegisterDoctor(caller, id, req.Name, req.Specialization, req.License); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Service) handleRevokeDoctor(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	id, ok := s.pathSubject(w, r)
	if !ok {
		return
	}
	if err := s.registry.RevokeDoctor(caller, id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Service) handleListDoctors(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.GetAllDoctors())
}

func (s *Service) handleGetDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathSubject(w, r)
	if !ok {
		return
	}
	doctor, err := s.registry.GetDoctor(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doctor)
}

func (s *Service) handleRegisterPatient(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	var req registerPatientRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	id, err := types.ParseSubjectID(req.ID)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid patient identifier")
		return
	}
	if err := s.registry.RegisterPatient(caller, id, req.Name, req.DateOfBirth, req.Phone, req.EmergencyContact); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Service) handleDeactivatePatient(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	id, ok := s.pathSubject(w, r)
	if !ok {
		return
	}
	if err := s.registry.DeactivatePatient(caller, id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Service) handleListPatients(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.GetAllPatients())
}

func (s *Service) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathSubject(w, r)
	if !ok {
		return
	}
	patient, err := s.registry.GetPatient(id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, patient)
}

// handleAddMedicalRecord stores the document payload in the vault under the
// patient's key, then appends the record metadata.
func (s *Service) handleAddMedicalRecord(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	patientID, ok := s.pathSubject(w, r)
	if !ok {
		return
	}
	var req addMedicalRecordRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	address, err := s.vault.Upload(r.Context(), patientID, req.Content)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := s.clinical.AddMedicalRecord(caller, address, req.FileName, patientID, req.Diagnosis, req.Treatment); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"content_address": address})
}

func (s *Service) handleGetMedicalRecords(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	patientID, ok := s.pathSubject(w, r)
	if !ok {
		return
	}
	records, err := s.clinical.GetMedicalRecords(caller, patientID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Service) handleGetActiveMedicalRecords(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	patientID, ok := s.pathSubject(w, r)
	if !ok {
		return
	}
	records, err := s.clinical.GetActiveMedicalRecords(caller, patientID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Service) handleDeactivateMedicalRecord(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	patientID, ok := s.pathSubject(w, r)
	if !ok {
		return
	}
	if err := s.clinical.DeactivateRecord(caller, patientID, pathIndex(r)); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Service) handleDownloadMedicalDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	patientID, ok := s.pathSubject(w, r)
	if !ok {
		return
	}
	records, err := s.clinical.GetMedicalRecords(caller, patientID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	index := pathIndex(r)
	if index >= len(records) {
		s.writeError(w, http.StatusBadRequest, "record index out of range")
		return
	}
	data, err := s.vault.Download(r.Context(), patientID, records[index].ContentAddress)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.WithComponent("gateway").WithError(err).Error("Failed to stream document")
	}
}

func (s *Service) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	profile, err := s.selfservice.GetMyProfile(caller)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Service) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	var req updateProfileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := s.selfservice.UpdateProfile(caller, req.Name, req.Email, req.Phone); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}

func (s *Service) handleUploadSelfRecord(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	var req selfRecordRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	address, err := s.vault.Upload(r.Context(), caller, req.Content)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := s.selfservice.UploadSelfRecord(caller, address, req.FileName, req.RecordType, req.Description); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"content_address": address})
}

func (s *Service) handleGetSelfRecords(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	records, err := s.selfservice.GetMySelfRecords(caller)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Service) handleGetSelfRecordCount(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	count, err := s.selfservice.GetMySelfRecordCount(caller)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// handleUpdateSelfRecord edits descriptive metadata only; the stored
// document and its content address are untouched.
func (s *Service) handleUpdateSelfRecord(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	var req updateSelfRecordRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := s.selfservice.UpdateSelfRecord(caller, pathIndex(r), req.RecordType, req.Description); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}

func (s *Service) handleDeleteSelfRecord(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	if err := s.selfservice.DeleteSelfRecord(caller, pathIndex(r)); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Service) handleDownloadSelfDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	records, err := s.selfservice.GetMySelfRecords(caller)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	index := pathIndex(r)
	if index >= len(records) {
		s.writeError(w, http.StatusBadRequest, "record index out of range")
		return
	}
	data, err := s.vault.Download(r.Context(), caller, records[index].ContentAddress)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.WithComponent("gateway").WithError(err).Error("Failed to stream document")
	}
}

func (s *Service) handleGetMyMedicalRecords(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "missing caller identity")
		return
	}
	records, err := s.selfservice.GetMyMedicalRecords(caller)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}
