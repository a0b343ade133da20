package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/contactbook/internal/model"
	"github.com/hitoshi/contactbook/internal/note"
)

// NoteServiceInterface はメモハンドラーが必要とするサービスインターフェース。
type NoteServiceInterface interface {
	List(ctx context.Context, userID, contactID string) ([]model.Note, error)
	Get(ctx context.Context, userID, contactID, noteID string) (*model.Note, error)
	Create(ctx context.Context, userID, contactID string, input note.Input) (*model.Note, error)
	Update(ctx context.Context, userID, contactID, noteID string, input note.Input) error
	Delete(ctx context.Context, userID, contactID, noteID string) error
}

// NoteHandler は連絡先のメモのHTTPハンドラー。
type NoteHandler struct {
	service NoteServiceInterface
}

// NewNoteHandler はNoteHandlerを生成する。
func NewNoteHandler(service NoteServiceInterface) *NoteHandler {
	return &NoteHandler{service: service}
}

type noteSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type noteListResponse struct {
	Notes []noteSummary `json:"notes"`
}

type noteEditForm struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type noteEditResponse struct {
	Note noteEditForm `json:"note"`
}

// List は連絡先のメモを新しい順に返す。
// GET /contacts/{contactID}/notes
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireContextUserID(w, r)
	if !ok {
		return
	}

	notes, err := h.service.List(r.Context(), userID, chi.URLParam(r, "contactID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := noteListResponse{Notes: make([]noteSummary, len(notes))}
	for i, n := range notes {
		resp.Notes[i] = noteSummary{
			ID:        n.ID,
			Title:     n.Title,
			Body:      n.Body,
			CreatedAt: n.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete はフォームのnoteIdで指定されたメモを削除する。
// POST /contacts/{contactID}/notes
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireContextUserID(w, r)
	if !ok {
		return
	}

	noteID := formValue(r, "noteId")
	if noteID == "" {
		handleServiceError(w, model.NewInvalidRequestError("noteId is missing"))
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "contactID"), noteID); err != nil {
		handleServiceError(w, err)
		return
	}
	writeNull(w)
}

// Create はメモを作成し、メモ一覧へリダイレクトする。
// POST /contacts/{contactID}/notes/new
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireContextUserID(w, r)
	if !ok {
		return
	}
	contactID := chi.URLParam(r, "contactID")

	form := parseNoteForm(r)
	if err := validateForm(form); err != nil {
		handleServiceError(w, err)
		return
	}

	if _, err := h.service.Create(r.Context(), userID, contactID, note.Input{Title: form.Title, Body: form.Body}); err != nil {
		handleServiceError(w, err)
		return
	}
	http.Redirect(w, r, notesPath(contactID), http.StatusFound)
}

// EditForm はメモ編集フォームの初期値を返す。
// GET /contacts/{contactID}/notes/{noteID}/edit
func (h *NoteHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireContextUserID(w, r)
	if !ok {
		return
	}

	n, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "contactID"), chi.URLParam(r, "noteID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, noteEditResponse{Note: noteEditForm{Title: n.Title, Body: n.Body}})
}

// Update はメモを更新し、メモ一覧へリダイレクトする。
// POST /contacts/{contactID}/notes/{noteID}/edit
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireContextUserID(w, r)
	if !ok {
		return
	}
	contactID := chi.URLParam(r, "contactID")
	noteID := chi.URLParam(r, "noteID")

	// 1. メモの存在確認
	if _, err := h.service.Get(r.Context(), userID, contactID, noteID); err != nil {
		handleServiceError(w, err)
		return
	}

	// 2. フォームの検証
	form := parseNoteForm(r)
	if err := validateForm(form); err != nil {
		handleServiceError(w, err)
		return
	}

	// 3. 更新
	if err := h.service.Update(r.Context(), userID, contactID, noteID, note.Input{Title: form.Title, Body: form.Body}); err != nil {
		handleServiceError(w, err)
		return
	}
	http.Redirect(w, r, notesPath(contactID), http.StatusFound)
}

func notesPath(contactID string) string {
	return "/contacts/" + contactID + "/notes"
}
