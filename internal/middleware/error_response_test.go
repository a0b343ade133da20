package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/contactbook/internal/model"
)

// TestWriteErrorResponse_WritesUnifiedFormat は統一エラーフォーマットでレスポンスが書き込まれることを検証する。
func TestWriteErrorResponse_WritesUnifiedFormat(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusNotFound, model.NewContactNotFoundError())

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	want := ErrorResponseBody{
		Code:     model.ErrCodeContactNotFound,
		Message:  "Contact not found",
		Category: "contact",
		Action:   "Check the URL. The contact may have been deleted.",
	}
	if body != want {
		t.Errorf("body = %+v, want %+v", body, want)
	}
}

func TestWriteErrorResponse_DifferentStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		apiErr     *model.APIError
	}{
		{"invalid_intent", http.StatusBadRequest, model.NewInvalidIntentError("archive")},
		{"invalid_request", http.StatusBadRequest, model.NewInvalidRequestError("noteId is required")},
		{"note_not_found", http.StatusNotFound, model.NewNoteNotFoundError()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteErrorResponse(w, tt.statusCode, tt.apiErr)

			if w.Code != tt.statusCode {
				t.Errorf("status = %d, want %d", w.Code, tt.statusCode)
			}

			var body ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if body.Code != tt.apiErr.Code || body.Message != tt.apiErr.Message {
				t.Errorf("body = %+v, want code %q message %q", body, tt.apiErr.Code, tt.apiErr.Message)
			}
		})
	}
}

func TestInternalServerError_ReturnsSystemError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternalServerError(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want %q", body.Code, "INTERNAL_ERROR")
	}
	if body.Category != "system" {
		t.Errorf("category = %q, want %q", body.Category, "system")
	}
	if body.Action == "" {
		t.Error("action should not be empty")
	}
}

func TestStatusForAPIError(t *testing.T) {
	tests := []struct {
		name   string
		apiErr *model.APIError
		want   int
	}{
		{"contact_not_found", model.NewContactNotFoundError(), http.StatusNotFound},
		{"note_not_found", model.NewNoteNotFoundError(), http.StatusNotFound},
		{"invalid_intent", model.NewInvalidIntentError("archive"), http.StatusBadRequest},
		{"invalid_request", model.NewInvalidRequestError("noteId is required"), http.StatusBadRequest},
		{"unknown_code", &model.APIError{Code: "SOMETHING_ELSE"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusForAPIError(tt.apiErr); got != tt.want {
				t.Errorf("StatusForAPIError(%s) = %d, want %d", tt.apiErr.Code, got, tt.want)
			}
		})
	}
}

// TestWriteAPIError_UsesMappedStatus はWriteAPIErrorがコードに対応するステータスで書き込むことを検証する。
func TestWriteAPIError_UsesMappedStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAPIError(w, model.NewNoteNotFoundError())

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Code != model.ErrCodeNoteNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeNoteNotFound)
	}
}
