package httpx

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestJSONWritesStatusAndBody(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, 201, map[string]string{"hello": "world"})
	if w.Code != 201 {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["hello"] != "world" {
		t.Fatalf("body %v", body)
	}
}

func TestJSONNilPayload(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, 204, nil)
	if w.Body.String() != "null" {
		t.Fatalf("body %q", w.Body.String())
	}
}

func TestJSONErrorOmitsEmptyFields(t *testing.T) {
	w := httptest.NewRecorder()
	JSONError(w, 404, "not_found", nil)
	if w.Code != 404 {
		t.Fatalf("status %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] != "not_found" {
		t.Fatalf("error %v", resp["error"])
	}
	if _, ok := resp["fields"]; ok {
		t.Fatal("fields should be omitted when empty")
	}

	w = httptest.NewRecorder()
	JSONError(w, 422, "validation_failed", map[string]string{"email": "required"})
	var withFields struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &withFields); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if withFields.Fields["email"] != "required" {
		t.Fatalf("fields %v", withFields.Fields)
	}
}
