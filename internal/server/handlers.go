package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/meditrek/internal/dispatch"
	"github.com/sells-group/meditrek/internal/model"
	"github.com/sells-group/meditrek/internal/recommend"
	"github.com/sells-group/meditrek/internal/store"
)

// User-facing messages.
const (
	msgNoSymptoms      = "Please enter at least one symptom."
	msgUnavailable     = "Our recommendation service is temporarily unavailable. Please try again in a few moments."
	msgRejected        = "Our recommendation service could not handle the request. Please try again later."
	msgCannotProcess   = "We had trouble processing the information. Please try again with different symptoms."
	msgInternal        = "An unexpected error occurred."
	msgHistoryDisabled = "Consultation history is not enabled."
)

// symptomList accepts either a comma-separated string or a JSON array.
type symptomList []string

func (s *symptomList) UnmarshalJSON(data []byte) error {
	var csv string
	if err := json.Unmarshal(data, &csv); err == nil {
		*s = model.ParseSymptoms(csv)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = model.CleanSymptoms(list)
	return nil
}

type recommendRequest struct {
	Symptoms symptomList `json:"symptoms"`
	Gender   string      `json:"gender"`
	Age      string      `json:"age"`
	Allergic string      `json:"allergic"`
}

func (r recommendRequest) profile() model.PatientProfile {
	return model.PatientProfile{
		Symptoms:  r.Symptoms,
		Gender:    r.Gender,
		Age:       r.Age,
		Allergies: r.Allergic,
	}.Normalize()
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type medicationsResponse struct {
	Medications []model.MedicationRecommendation `json:"medications"`
}

type consultationsResponse struct {
	Consultations []model.Consultation `json:"consultations"`
	Count         int                  `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	profile, ok := decodeProfile(w, r)
	if !ok {
		return
	}
	result, err := s.svc.GetCombinedRecommendations(r.Context(), profile)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if result.IsEmpty() {
		writeError(w, http.StatusUnprocessableEntity, "Cannot Process Results", msgCannotProcess)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMedications(w http.ResponseWriter, r *http.Request) {
	profile, ok := decodeProfile(w, r)
	if !ok {
		return
	}
	meds, err := s.svc.GetMedicationRecommendations(r.Context(), profile)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if len(meds) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "Cannot Process Results", msgCannotProcess)
		return
	}
	writeJSON(w, http.StatusOK, medicationsResponse{Medications: meds})
}

func (s *Server) handleManagement(w http.ResponseWriter, r *http.Request) {
	profile, ok := decodeProfile(w, r)
	if !ok {
		return
	}
	lists, err := s.svc.GetSymptomManagementLists(r.Context(), profile.Symptoms)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if lists.IsEmpty() {
		writeError(w, http.StatusUnprocessableEntity, "Cannot Process Results", msgCannotProcess)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (s *Server) handleListConsultations(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "Not Found", msgHistoryDisabled)
		return
	}

	q := r.URL.Query()
	filter := store.ConsultationFilter{
		Mode:   model.QueryMode(q.Get("mode")),
		Status: model.ConsultationStatus(q.Get("status")),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "limit must be a non-negative integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "offset must be a non-negative integer")
		return
	}
	if since := q.Get("since"); since != "" {
		if filter.Since, err = time.Parse(time.RFC3339, since); err != nil {
			writeError(w, http.StatusBadRequest, "Bad Request", "since must be an RFC 3339 timestamp")
			return
		}
	}

	out, err := s.store.ListConsultations(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list consultations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal Server Error", msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, consultationsResponse{Consultations: out, Count: len(out)})
}

func (s *Server) handleGetConsultation(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "Not Found", msgHistoryDisabled)
		return
	}

	id := chi.URLParam(r, "id")
	c, err := s.store.GetConsultation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not Found", "No consultation with id "+id+".")
		return
	}
	if err != nil {
		zap.L().Error("server: get consultation", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal Server Error", msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// decodeProfile reads the request body and writes a 400 when it is unusable.
func decodeProfile(w http.ResponseWriter, r *http.Request) (model.PatientProfile, bool) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "Request body must be JSON with a symptoms field.")
		return model.PatientProfile{}, false
	}
	profile := req.profile()
	if len(profile.Symptoms) == 0 {
		writeError(w, http.StatusBadRequest, "Bad Request", msgNoSymptoms)
		return model.PatientProfile{}, false
	}
	return profile, true
}

// writeServiceError maps service failures onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := zap.L().With(zap.String("path", r.URL.Path))
	switch {
	case errors.Is(err, recommend.ErrNoSymptoms):
		writeError(w, http.StatusBadRequest, "Bad Request", msgNoSymptoms)
	case errors.Is(err, dispatch.ErrEmptyCompletion):
		log.Warn("server: backend returned nothing", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "Cannot Process Results", msgCannotProcess)
	case errors.Is(err, dispatch.ErrBackendUnavailable):
		log.Warn("server: backend unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Service Temporarily Unavailable", msgUnavailable)
	case errors.Is(err, dispatch.ErrBackendRejected):
		log.Error("server: backend rejected request", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Bad Gateway", msgRejected)
	default:
		log.Error("server: recommendation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal Server Error", msgInternal)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, title, detail string) {
	writeJSON(w, status, errorResponse{Error: title, Detail: detail})
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}
