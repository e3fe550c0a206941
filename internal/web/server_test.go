package web

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amishk599/atsexpert/internal/config"
	"github.com/amishk599/atsexpert/internal/model"
)

type fakeAnalyzer struct {
	resp    *model.AnalysisResponse
	err     error
	calls   int
	gotDoc  model.Document
	gotMode model.Mode
	gotJD   string
}

func (f *fakeAnalyzer) Run(_ context.Context, doc model.Document, mode model.Mode, jd string) (*model.AnalysisResponse, error) {
	f.calls++
	f.gotDoc = doc
	f.gotMode = mode
	f.gotJD = jd
	return f.resp, f.err
}

func newTestServer(a model.Analyzer) *Server {
	return NewServer(a, config.WebConfig{Addr: "127.0.0.1:0", MaxUpload: 1 << 20}, nil)
}

// multipartForm builds an /analyze request. file may be nil to omit the upload.
func multipartForm(t *testing.T, fields map[string]string, fileName string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		fw, err := w.CreateFormFile("resume", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(file)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexRendersForm(t *testing.T) {
	s := newTestServer(&fakeAnalyzer{})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`name="resume"`, `name="jd"`, "Percentage Match", "Red Flags Checker", "Analyze"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	a := &fakeAnalyzer{resp: &model.AnalysisResponse{
		Mode: model.ModeScore, Text: "Match Percentage: 72%", Provider: "gemini", Model: "gemini-2.5-pro", Pages: 2,
	}}
	s := newTestServer(a)

	req := multipartForm(t, map[string]string{"mode": "score", "jd": "Backend Go role"}, "cv.pdf", []byte("%PDF-1.4 test"))
	rec := serve(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body:\n%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"Successfully processed 2-page resume", "Results for: Percentage Match", "Match Percentage: 72%"} {
		if !strings.Contains(body, want) {
			t.Errorf("response missing %q", want)
		}
	}
	if a.calls != 1 || a.gotMode != model.ModeScore || a.gotJD != "Backend Go role" {
		t.Errorf("analyzer got calls=%d mode=%s jd=%q", a.calls, a.gotMode, a.gotJD)
	}
	if a.gotDoc.Name != "cv.pdf" || string(a.gotDoc.Data) != "%PDF-1.4 test" {
		t.Errorf("analyzer got doc %q (%d bytes)", a.gotDoc.Name, len(a.gotDoc.Data))
	}
}

func TestAnalyzeWithoutFile(t *testing.T) {
	a := &fakeAnalyzer{}
	s := newTestServer(a)

	rec := serve(s, multipartForm(t, map[string]string{"mode": "fit"}, "", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), MsgNoResume) {
		t.Error("expected the upload-first message")
	}
	if a.calls != 0 {
		t.Errorf("analyzer called %d times", a.calls)
	}
}

func TestAnalyzeUnknownMode(t *testing.T) {
	a := &fakeAnalyzer{}
	s := newTestServer(a)

	rec := serve(s, multipartForm(t, map[string]string{"mode": "horoscope"}, "cv.pdf", []byte("%PDF-1.4")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if a.calls != 0 {
		t.Errorf("analyzer called %d times", a.calls)
	}
}

func TestAnalyzeErrorsMapToMessages(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"conversion", &model.ConversionError{Reason: "not a PDF"}, http.StatusUnprocessableEntity},
		{"auth", &model.AuthenticationError{Provider: "gemini", Err: errors.New("401")}, http.StatusBadGateway},
		{"service", &model.ServiceError{Provider: "gemini", StatusCode: 503, Err: errors.New("unavailable")}, http.StatusBadGateway},
		{"empty", &model.EmptyResponseError{Provider: "gemini"}, http.StatusBadGateway},
		{"config", &model.ConfigurationError{Field: "ai.api_key", Reason: "missing"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeAnalyzer{err: tt.err})
			rec := serve(s, multipartForm(t, map[string]string{"mode": "fit"}, "cv.pdf", []byte("data")))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			// html/template escapes apostrophes and the like, so compare a prefix.
			want := model.UserMessage(tt.err)
			if i := strings.IndexAny(want, "'\"&<>"); i > 0 {
				want = want[:i]
			}
			if !strings.Contains(rec.Body.String(), want) {
				t.Errorf("body missing %q", want)
			}
		})
	}
}

func TestAnalyzeRejectsOversizedUpload(t *testing.T) {
	a := &fakeAnalyzer{}
	s := newTestServer(a)

	big := bytes.Repeat([]byte("x"), 2<<20)
	rec := serve(s, multipartForm(t, map[string]string{"mode": "fit"}, "cv.pdf", big))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	if a.calls != 0 {
		t.Errorf("analyzer called %d times", a.calls)
	}
}

func TestFormKeepsJobDescription(t *testing.T) {
	s := newTestServer(&fakeAnalyzer{err: &model.ConversionError{Reason: "bad"}})
	rec := serve(s, multipartForm(t, map[string]string{"mode": "redflags", "jd": "Platform engineer"}, "cv.pdf", []byte("x")))

	body := rec.Body.String()
	if !strings.Contains(body, "Platform engineer") {
		t.Error("job description should be kept in the form")
	}
	if !strings.Contains(body, `value="redflags" checked`) {
		t.Error("selected mode should stay checked")
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeAnalyzer{})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}
