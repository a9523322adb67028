package leavehandler

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseSubmitJSON(t *testing.T) {
	body := `{"leaveTypeId":"lt1","startDate":"2026-06-01","endDate":"2026-06-02","reason":"trip"}`
	r := httptest.NewRequest("POST", "/api/v1/leave/requests", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	payload, uploads, err := parseSubmit(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.LeaveTypeID != "lt1" || payload.StartDate != "2026-06-01" || payload.EndDate != "2026-06-02" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if len(uploads) != 0 {
		t.Fatalf("expected no uploads from JSON body, got %d", len(uploads))
	}
}

func TestParseSubmitRejectsBadJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/leave/requests", strings.NewReader("{"))
	r.Header.Set("Content-Type", "application/json")
	if _, _, err := parseSubmit(r); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestParseSubmitMultipart(t *testing.T) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	_ = writer.WriteField("leaveTypeId", "lt1")
	_ = writer.WriteField("startDate", "2026-06-01")
	_ = writer.WriteField("endDate", "2026-06-01")
	_ = writer.WriteField("startTime", "09:00")
	_ = writer.WriteField("endTime", "12:00")
	_ = writer.WriteField("reason", "appointment")
	part, err := writer.CreateFormFile("documents", "note.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("doctor's note")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	r := httptest.NewRequest("POST", "/api/v1/leave/requests", &buf)
	r.Header.Set("Content-Type", writer.FormDataContentType())

	payload, uploads, err := parseSubmit(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeUploads(uploads)

	if payload.StartTime != "09:00" || payload.EndTime != "12:00" {
		t.Fatalf("expected time window carried, got %+v", payload)
	}
	if len(uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(uploads))
	}
	if uploads[0].FileName != "note.txt" {
		t.Fatalf("unexpected upload name %q", uploads[0].FileName)
	}
	data, err := io.ReadAll(uploads[0].Data)
	if err != nil {
		t.Fatalf("read upload: %v", err)
	}
	if string(data) != "doctor's note" {
		t.Fatalf("unexpected upload content %q", data)
	}
}
