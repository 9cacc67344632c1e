package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/datalens-cli/internal/ai"
	"github.com/KaramelBytes/datalens-cli/internal/answer"
	"github.com/KaramelBytes/datalens-cli/internal/chart"
	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/router"
	"github.com/KaramelBytes/datalens-cli/internal/session"
)

type createSessionRequest struct {
	APIKey string `json:"api_key"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type datasetResponse struct {
	Name    string       `json:"name"`
	Columns []string     `json:"columns"`
	Preview [][]string   `json:"preview"`
	Shape   string       `json:"shape"`
	Info    dataset.Info `json:"info"`
}

type queryResponse struct {
	Intent         string            `json:"intent"`
	Chart          *router.ChartSpec `json:"chart,omitempty"`
	ImageBase64    string            `json:"image_base64,omitempty"`
	ContentType    string            `json:"content_type,omitempty"`
	Answer         string            `json:"answer,omitempty"`
	ElapsedSeconds float64           `json:"elapsed_seconds"`
	Message        string            `json:"message"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess := s.cfg.NewSession()
	if err := sess.Authenticate(r.Context(), req.APIKey); err != nil {
		RespondError(w, statusFor(err), "Authentication failed: "+err.Error())
		return
	}
	id := s.sessions.Add(sess)
	RespondJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Remove(chi.URLParam(r, "sessionID")) {
		RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		RespondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	typ, known := dataset.FileTypeFromName(header.Filename)
	if q := r.URL.Query().Get("type"); q != "" {
		typ, err = dataset.ParseFileType(q)
		if err != nil {
			RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else if !known {
		RespondError(w, http.StatusBadRequest, "cannot infer file type; pass ?type=csv or ?type=excel")
		return
	}

	ds, err := sess.LoadDataset(file, header.Filename, typ)
	if err != nil {
		RespondError(w, statusFor(err), err.Error())
		return
	}
	info := ds.Info()
	RespondJSON(w, http.StatusOK, datasetResponse{
		Name:    ds.Name,
		Columns: ds.Columns(),
		Preview: ds.Head(s.cfg.PreviewRows),
		Shape:   info.Shape(),
		Info:    info,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	out, err := sess.Ask(r.Context(), req.Query)
	if err != nil {
		RespondError(w, statusFor(err), err.Error())
		return
	}
	resp := queryResponse{
		Intent:         out.Intent.String(),
		Chart:          out.Chart,
		Answer:         out.Answer,
		ElapsedSeconds: out.Elapsed.Seconds(),
		Message:        out.ElapsedMessage(),
	}
	if len(out.Image) > 0 {
		resp.ImageBase64 = base64.StdEncoding.EncodeToString(out.Image)
		resp.ContentType = s.cfg.ImageContentType
	}
	RespondJSON(w, http.StatusOK, resp)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var fpe *dataset.FileParseError
	var ase *answer.AnsweringServiceError
	switch {
	case ai.IsAuth(err), errors.Is(err, session.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoDataset):
		return http.StatusConflict
	case errors.As(err, &fpe),
		errors.Is(err, router.ErrColumnNotFound),
		errors.Is(err, router.ErrColumnsNotFound),
		errors.Is(err, chart.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ase):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
