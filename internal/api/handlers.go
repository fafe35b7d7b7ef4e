package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"filmatlas/internal/geo"
	"filmatlas/internal/logging"
	"filmatlas/internal/runstate"
	"filmatlas/internal/services"
	"filmatlas/internal/watchlist"
)

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	body, source, err := uploadBody(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	records, err := watchlist.Parse(body)
	if err == nil {
		err = watchlist.RequireRecords(records)
	}
	if err != nil {
		s.writeError(w, http.StatusBadRequest, services.UserMessage(err))
		return
	}

	id, err := s.runs.Start(records, source)
	if err != nil {
		status := http.StatusInternalServerError
		if services.IsFatal(err) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, services.UserMessage(err))
		return
	}
	logging.WithContext(r.Context(), s.logger).Info("run started from upload",
		logging.String(logging.FieldRunID, id),
		logging.String("source", source),
		logging.Int("records", len(records)),
	)
	s.writeJSON(w, http.StatusAccepted, StartResponse{RunID: id, Records: len(records)})
}

// uploadBody accepts either a raw CSV body or a multipart form with a "file"
// field.
func uploadBody(r *http.Request) (io.ReadCloser, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, "upload.csv", nil
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", errors.New("multipart upload requires a \"file\" field")
	}
	return file, header.Filename, nil
}

func (s *Server) handleRunState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.runs.Snapshot())
}

func (s *Server) handleCancelRun(w http.ResponseWriter, _ *http.Request) {
	if !s.runs.Cancel() {
		s.writeError(w, http.StatusConflict, "no run in progress")
		return
	}
	s.writeJSON(w, http.StatusAccepted, s.runs.Snapshot())
}

func (s *Server) handleResetRun(w http.ResponseWriter, _ *http.Request) {
	s.runs.Reset()
	s.writeJSON(w, http.StatusOK, s.runs.Snapshot())
}

func (s *Server) handleAggregate(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.runs.Snapshot()
	agg, ok := s.runs.Result()
	if !ok {
		s.writeError(w, http.StatusConflict, "aggregate not ready (status "+string(snapshot.Status)+")")
		return
	}
	s.writeJSON(w, http.StatusOK, FromAggregate(snapshot.RunID, snapshot.Cancelled, agg))
}

func (s *Server) handleCountry(w http.ResponseWriter, r *http.Request) {
	code := geo.NormalizeCode(r.PathValue("code"))
	if code == "" {
		s.writeError(w, http.StatusBadRequest, "country code must be two letters")
		return
	}
	agg, ok := s.runs.Result()
	if !ok {
		s.writeError(w, http.StatusConflict, "aggregate not ready")
		return
	}
	s.writeJSON(w, http.StatusOK, FromCountry(code, agg))
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var feature geo.Feature
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&feature); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid feature payload")
		return
	}
	country := geo.Resolve(feature)
	resp := ResolveResponse{Code: country.Code, Name: country.Name}
	if agg, ok := s.runs.Result(); ok && country.Code != "" {
		resp.Count = agg.Counts[country.Code]
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeJSON(w, http.StatusOK, HistoryResponse{Runs: []HistoryRun{}})
		return
	}
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = value
	}
	runs, err := s.history.ListRuns(r.Context(), limit)
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "history query failed", "history_read_failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, HistoryResponse{Runs: FromRuns(runs)})
}

var _ Runs = (*runstate.Manager)(nil)
