// Package gateway exposes the registry, record stores and document vault
// over HTTP. It authenticates callers by bearer token, maps error kinds to
// status codes and publishes prometheus metrics.
package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riannbarbosa/BlockHealth/internal/clinical"
	"github.com/riannbarbosa/BlockHealth/internal/documents"
	"github.com/riannbarbosa/BlockHealth/internal/identity"
	"github.com/riannbarbosa/BlockHealth/internal/selfservice"
	"github.com/riannbarbosa/BlockHealth/pkg/logger"
	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

// Service wires the HTTP surface to the domain components.
type Service struct {
	registry    *identity.Registry
	clinical    *clinical.Store
	selfservice *selfservice.Store
	vault       *documents.Vault
	tokens      *TokenValidator
	logger      *logger.Logger
}

// NewService creates the HTTP gateway.
func NewService(registry *identity.Registry, clinicalStore *clinical.Store, selfStore *selfservice.Store, vault *documents.Vault, tokens *TokenValidator, log *logger.Logger) *Service {
	return &Service{
		registry:    registry,
		clinical:    clinicalStore,
		selfservice: selfStore,
		vault:       vault,
		tokens:      tokens,
		logger:      log,
	}
}

// Router builds the route table with the middleware chain applied.
func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/doctors", s.handleRegisterDoctor).Methods(http.MethodPost)
	api.HandleFunc("/doctors", s.handleListDoctors).Methods(http.MethodGet)
	api.HandleFunc("/doctors/{id}", s.handleGetDoctor).Methods(http.MethodGet)
	api.HandleFunc("/doctors/{id}", s.handleRevokeDoctor).Methods(http.MethodDelete)

	api.HandleFunc("/patients", s.handleRegisterPatient).Methods(http.MethodPost)
	api.HandleFunc("/patients", s.handleListPatients).Methods(http.MethodGet)
	api.HandleFunc("/patients/{id}", s.handleGetPatient).Methods(http.MethodGet)
	api.HandleFunc("/patients/{id}", s.handleDeactivatePatient).Methods(http.MethodDelete)

	api.HandleFunc("/patients/{id}/records", s.handleAddMedicalRecord).Methods(http.MethodPost)
	api.HandleFunc("/patients/{id}/records", s.handleGetMedicalRecords).Methods(http.MethodGet)
	api.HandleFunc("/patients/{id}/records/active", s.handleGetActiveMedicalRecords).Methods(http.MethodGet)
	api.HandleFunc("/patients/{id}/records/{index:[0-9]+}", s.handleDeactivateMedicalRecord).Methods(http.MethodDelete)
	api.HandleFunc("/patients/{id}/records/{index:[0-9]+}/document", s.handleDownloadMedicalDocument).Methods(http.MethodGet)

	api.HandleFunc("/me/profile", s.handleGetProfile).Methods(http.MethodGet)
	api.HandleFunc("/me/profile", s.handleUpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/me/records", s.handleUploadSelfRecord).Methods(http.MethodPost)
	api.HandleFunc("/me/records", s.handleGetSelfRecords).Methods(http.MethodGet)
	api.HandleFunc("/me/records/count", s.handleGetSelfRecordCount).Methods(http.MethodGet)
	api.HandleFunc("/me/records/{index:[0-9]+}", s.handleUpdateSelfRecord).Methods(http.MethodPut)
	api.HandleFunc("/me/records/{index:[0-9]+}", s.handleDeleteSelfRecord).Methods(http.MethodDelete)
	api.HandleFunc("/me/records/{index:[0-9]+}/document", s.handleDownloadSelfDocument).Methods(http.MethodGet)
	api.HandleFunc("/me/medical-records", s.handleGetMyMedicalRecords).Methods(http.MethodGet)

	r.Use(s.requestIDMiddleware, s.loggingMiddleware, s.authMiddleware)
	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			s.logger.WithComponent("gateway").WithError(err).Error("Failed to encode response")
		}
	}
}

func (s *Service) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps an error kind to its HTTP status.
func (s *Service) writeDomainError(w http.ResponseWriter, err error) {
	s.writeError(w, statusForKind(types.KindOf(err)), err.Error())
}

func statusForKind(kind types.ErrorKind) int {
	switch kind {
	case types.KindAlreadyRegistered, types.KindPatientInactive:
		return http.StatusConflict
	case types.KindNotFound:
		return http.StatusNotFound
	case types.KindInvalidSubject, types.KindEmptyField, types.KindIndexOutOfRange:
		return http.StatusBadRequest
	case types.KindUnauthorized, types.KindNotOwner:
		return http.StatusForbidden
	case types.KindEncryptionFailed, types.KindDecryptionFailed:
		return http.StatusUnprocessableEntity
	case types.KindRemoteUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
