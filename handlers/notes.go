package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"smart-notes/db"
	"smart-notes/llm"
	"smart-notes/models"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Assistant is the LLM-backed part of the API.
type Assistant interface {
	Translate(ctx context.Context, text, targetLang, title string) (llm.Translation, error)
	GenerateStructuredNote(ctx context.Context, input, language string) (llm.GeneratedNote, error)
}

// Handler serves the notes API.
type Handler struct {
	store db.NoteStore
	ai    Assistant
	log   zerolog.Logger
}

func New(store db.NoteStore, ai Assistant, log zerolog.Logger) *Handler {
	return &Handler{store: store, ai: ai, log: log}
}

// Register mounts every route on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.Health)

	r.Get("/notes", h.GetNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/search", h.SearchNotes)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Post("/notes/{id}/translate", h.TranslateNote)

	r.Post("/translate", h.Translate)
	r.Post("/generate-note", h.GenerateNote)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "store": h.store.Kind()})
}

func (h *Handler) GetNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.store.List(r.Context())
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecords(notes))
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var in models.NoteInput
	if !h.decode(w, r, &in) {
		return
	}

	note, err := h.store.Create(r.Context(), in)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.ToTransport(note))
}

func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	note, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ToTransport(note))
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	var in models.NoteInput
	if !h.decode(w, r, &in) {
		return
	}

	note, err := h.store.Update(r.Context(), id, in)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ToTransport(note))
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}

func (h *Handler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.store.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecords(notes))
}

func (h *Handler) TranslateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	var req struct {
		TargetLang string `json:"targetLang"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.TargetLang == "" {
		writeError(w, http.StatusBadRequest, "targetLang is required")
		return
	}

	note, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	tr, err := h.ai.Translate(r.Context(), note.Content, req.TargetLang, note.Title)
	if err != nil {
		h.log.Error().Err(err).Uint("note_id", id).Msg("translate note")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":      tr.Title,
		"content":    tr.Content,
		"originalId": id,
	})
}

func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title      string `json:"title"`
		Content    string `json:"content"`
		TargetLang string `json:"targetLang"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if req.TargetLang == "" {
		writeError(w, http.StatusBadRequest, "targetLang is required")
		return
	}

	tr, err := h.ai.Translate(r.Context(), req.Content, req.TargetLang, req.Title)
	if err != nil {
		h.log.Error().Err(err).Msg("translate text")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

func (h *Handler) GenerateNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input    string `json:"input"`
		Language string `json:"language"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Input == "" {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}
	if req.Language == "" {
		req.Language = "en"
	}

	generated, err := h.ai.GenerateStructuredNote(r.Context(), req.Input, req.Language)
	if err != nil {
		h.log.Error().Err(err).Msg("generate note")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	note, err := h.store.Create(r.Context(), generated.Input())
	if err != nil {
		h.log.Error().Err(err).Msg("save generated note")
		writeError(w, http.StatusInternalServerError, llm.ErrNoteGenerationFailed.Error()+": "+err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, models.ToTransport(note))
}

// decode reads an optional JSON body into v. An empty body leaves v as is.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
	return false
}

func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var perr *db.PersistenceError
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, "Note not found")
	case errors.As(err, &perr):
		h.log.Warn().Err(err).Str("op", perr.Op).Str("path", r.URL.Path).Msg("store rejected request")
		writeError(w, http.StatusBadRequest, perr.Error())
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("store failure")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// noteID parses the {id} path parameter. Ids that are not positive
// integers cannot exist, so they answer 404.
func noteID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil || id == 0 {
		writeError(w, http.StatusNotFound, "Note not found")
		return 0, false
	}
	return uint(id), true
}

func toRecords(notes []models.Note) []models.NoteRecord {
	out := make([]models.NoteRecord, 0, len(notes))
	for _, n := range notes {
		out = append(out, models.ToTransport(n))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
