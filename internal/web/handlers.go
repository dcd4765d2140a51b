package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetdocs/internal/core"
	"github.com/JonMunkholm/sheetdocs/internal/logging"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// tableInfo describes a registered table to API clients.
type tableInfo struct {
	Key      string   `json:"key"`
	Group    string   `json:"group"`
	Label    string   `json:"label"`
	Sheet    string   `json:"sheet"`
	Headers  []string `json:"headers"`
	IDField  string   `json:"id_field"`
	Required []string `json:"required,omitempty"`
	Folders  bool     `json:"folders"`
}

type viewInfo struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Primary string   `json:"primary"`
	Joins   []string `json:"joins"`
}

// handleListTables lists the registered tables and views.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	defs := s.service.Tables()
	tables := make([]tableInfo, len(defs))
	for i, def := range defs {
		tables[i] = tableInfo{
			Key:      def.Key,
			Group:    def.Group,
			Label:    def.Label,
			Sheet:    def.Table.Name,
			Headers:  def.Table.Headers,
			IDField:  def.Table.IDField,
			Required: def.Required,
			Folders:  def.Folder != nil,
		}
	}

	vs := core.Views()
	views := make([]viewInfo, len(vs))
	for i, v := range vs {
		joins := make([]string, len(v.Joins))
		for j, js := range v.Joins {
			joins[j] = js.Table
		}
		views[i] = viewInfo{Name: v.Name, Label: v.Label, Primary: v.Primary, Joins: joins}
	}

	writeJSON(w, http.StatusOK, core.Result{
		Success: true,
		Message: fmt.Sprintf("%d tables", len(tables)),
		Data:    map[string]any{"tables": tables, "views": views},
	})
}

// handleList returns every live row of a table.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "table")
	records, err := s.service.List(r.Context(), key)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if records == nil {
		records = []core.Record{}
	}
	writeJSON(w, http.StatusOK, core.Result{
		Success: true,
		Message: fmt.Sprintf("%d rows", len(records)),
		Data:    records,
	})
}

// handleGet returns one row by id.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key, id := chi.URLParam(r, "table"), chi.URLParam(r, "id")
	rec, err := s.service.Get(r.Context(), key, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, core.Result{Success: true, Message: "ok", Data: rec})
}

// handleCreate adds a row from a JSON object body.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "table")
	rec, err := decodeRecord(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.service.Create(withRequestMetadata(r), key, rec)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleUpdate merges a JSON object body onto a row.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	key, id := chi.URLParam(r, "table"), chi.URLParam(r, "id")
	patch, err := decodeRecord(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.service.Update(withRequestMetadata(r), key, id, patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDelete deletes a row with its cascade dependents and folder.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, id := chi.URLParam(r, "table"), chi.URLParam(r, "id")
	result, err := s.service.Delete(withRequestMetadata(r), key, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDeleteMany deletes every row whose field equals value.
func (s *Server) handleDeleteMany(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "table")

	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, badRequest("invalid request body"))
		return
	}

	result, err := s.service.DeleteMany(withRequestMetadata(r), key, req.Field, req.Value)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleFolders lists the folders mirrored for a table.
func (s *Server) handleFolders(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "table")
	folders, err := s.service.Folders(r.Context(), key)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, core.Result{
		Success: true,
		Message: fmt.Sprintf("%d folders", len(folders)),
		Data:    folders,
	})
}

// handleView materializes a named view.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")
	rows, err := s.service.View(r.Context(), name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if rows == nil {
		rows = []core.Joined{}
	}
	writeJSON(w, http.StatusOK, core.Result{
		Success: true,
		Message: fmt.Sprintf("%d rows", len(rows)),
		Data:    rows,
	})
}

// handleScan extracts fields from an uploaded document. With ?table= the
// fields are also saved as a new row of that table.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.scanner == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Message: "Document scanning is not configured",
			Code:    "SCN003",
		})
		return
	}
	kind := chi.URLParam(r, "kind")

	maxSize := s.cfg.Server.MaxUploadSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		respondError(w, r, badRequest("file too large or invalid form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, badRequest("no file provided"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, badRequest("failed to read file"))
		return
	}

	logging.FromContext(r.Context()).Info("scan requested",
		"kind", kind, "filename", header.Filename, "size", len(data))

	fields, err := s.scanner.Scan(r.Context(), data, kind)
	if err != nil {
		respondError(w, r, err)
		return
	}

	table := r.URL.Query().Get("table")
	if table == "" {
		writeJSON(w, http.StatusOK, core.Result{
			Success: true,
			Message: fmt.Sprintf("%d fields extracted", len(fields)),
			Data:    fields,
		})
		return
	}

	result, err := s.service.Create(withRequestMetadata(r), table, core.Record(fields))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleAudit returns audit entries, newest first, filtered by the table
// and action query parameters.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.AuditLogFilter{
		TableKey: q.Get("table"),
		Action:   core.AuditAction(q.Get("action")),
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, r, badRequest(name+" must be a non-negative integer"))
			return
		}
		*dst = n
	}

	entries, err := s.service.GetAuditLog(r.Context(), filter)
	if errors.Is(err, core.ErrAuditUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Message: "The audit log is not configured",
			Code:    "AUD001",
		})
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, core.Result{
		Success: true,
		Message: fmt.Sprintf("%d entries", len(entries)),
		Data:    entries,
	})
}

// handleRebind installs a new remote access token.
func (s *Server) handleRebind(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		respondError(w, r, badRequest("a non-empty token is required"))
		return
	}

	if err := s.service.Rebind(withRequestMetadata(r), req.Token); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, core.Result{Success: true, Message: "remote credentials updated"})
}

// handleHealth reports liveness and remote authentication state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":               "ok",
		"remote_authenticated": s.service.Authenticated(),
		"tables":               core.TableCount(),
	}
	if s.limiter != nil {
		body["scan"] = s.limiter.Status()
	}
	writeJSON(w, http.StatusOK, body)
}

// decodeRecord reads a JSON object body into a record. Scalar values are
// stored as their text form; nested values are rejected.
func decodeRecord(w http.ResponseWriter, r *http.Request) (core.Record, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, badRequest("request body too large")
		}
		return nil, badRequest("request body must be a JSON object")
	}

	rec := make(core.Record, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case nil:
			rec[k] = ""
		case string:
			rec[k] = v
		case map[string]any, []any:
			return nil, badRequest(fmt.Sprintf("field %q must be a scalar value", k))
		default:
			rec[k] = fmt.Sprint(v)
		}
	}
	return rec, nil
}
