package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"ewaybill-workers/internal/common/validation"
	"ewaybill-workers/internal/models"
	bulkextend "ewaybill-workers/internal/workers/ewaybill/bulk-extend"
	extendvalidity "ewaybill-workers/internal/workers/ewaybill/extend-validity"
	fetchewaybill "ewaybill-workers/internal/workers/ewaybill/fetch-ewaybill"
	searchexpiring "ewaybill-workers/internal/workers/ewaybill/search-expiring"
	updatepartb "ewaybill-workers/internal/workers/ewaybill/update-part-b"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, status, map[string]interface{}{"ready": status == http.StatusOK, "checks": results})
}

// decode reads the body, validates it against schema and unmarshals it into
// out. It writes the error response itself and reports whether to continue.
func decode(w http.ResponseWriter, r *http.Request, schema validation.JSONSchema, out interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: errorDetail{
				Code:    "REQUEST_TOO_LARGE",
				Message: "request body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
			}})
			return false
		}
		writeValidationErrors(w, []string{"could not read request body"})
		return false
	}
	if result := validation.ValidateJSON(body, schema); !result.Valid {
		writeValidationErrors(w, result.GetErrorMessages())
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		writeValidationErrors(w, []string{err.Error()})
		return false
	}
	return true
}

func unavailable(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: errorDetail{
		Code:    "SERVICE_DISABLED",
		Message: "operation is not enabled on this instance",
	}})
}

func (s *Server) bulkExtend(w http.ResponseWriter, r *http.Request) {
	if s.services.BulkExtend == nil {
		unavailable(w)
		return
	}
	var input bulkextend.Input
	if !decode(w, r, bulkextend.GetInputSchema(), &input) {
		return
	}

	result, err := s.services.BulkExtend.Execute(r.Context(), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) extend(w http.ResponseWriter, r *http.Request) {
	if s.services.Extend == nil {
		unavailable(w)
		return
	}
	var input extendvalidity.Input
	if !decode(w, r, extendBodySchema(), &input) {
		return
	}
	input.EwbNo = models.NumericString(chi.URLParam(r, "ewbNo"))

	outcome, err := s.services.Extend.Execute(r.Context(), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) updatePartB(w http.ResponseWriter, r *http.Request) {
	if s.services.UpdatePartB == nil {
		unavailable(w)
		return
	}
	var input updatepartb.Input
	if !decode(w, r, partBBodySchema(), &input) {
		return
	}
	input.EwbNo = models.NumericString(chi.URLParam(r, "ewbNo"))

	out, err := s.services.UpdatePartB.Execute(r.Context(), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) fetch(w http.ResponseWriter, r *http.Request) {
	if s.services.Fetch == nil {
		unavailable(w)
		return
	}
	out, err := s.services.Fetch.Execute(r.Context(), &fetchewaybill.Input{
		EwbNo: models.NumericString(chi.URLParam(r, "ewbNo")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// searchExpiring serves GET /api/v1/ewaybills?window=expiring_today&vehicle=KA01AB1234&size=50.
func (s *Server) searchExpiring(w http.ResponseWriter, r *http.Request) {
	if s.services.SearchExpiry == nil {
		unavailable(w)
		return
	}
	q := r.URL.Query()
	input := &searchexpiring.Input{Window: q.Get("window"), Vehicle: q.Get("vehicle")}
	if raw := q.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			writeValidationErrors(w, []string{"size: must be a positive integer"})
			return
		}
		input.Size = size
	}

	out, err := s.services.SearchExpiry.Execute(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Path-scoped bodies: the document number comes from the URL.
func extendBodySchema() validation.JSONSchema {
	schema := extendvalidity.GetInputSchema()
	schema.Required = []string{"request"}
	delete(schema.Properties, "ewbNo")
	return schema
}

func partBBodySchema() validation.JSONSchema {
	schema := updatepartb.GetInputSchema()
	schema.Required = []string{"vehicleNo", "fromPlace", "reasonCode"}
	delete(schema.Properties, "ewbNo")
	return schema
}
