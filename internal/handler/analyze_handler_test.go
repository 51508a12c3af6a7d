package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	drawinganalyzer "github.com/memorygarden/drawing-analyzer"
	"github.com/memorygarden/drawing-analyzer/internal/config"
	"github.com/memorygarden/drawing-analyzer/pkg/gateway"
)

// newAnalyzeRouter builds a router whose detector and interpreter point at
// unreachable ports, so every request degrades to the description-based
// branch without any external service.
func newAnalyzeRouter(t *testing.T, storageURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Gateway.BaseURL = storageURL
	cfg.Detector.BaseURL = "http://127.0.0.1:1"
	cfg.Interpreter.BaseURL = "http://127.0.0.1:1"
	cfg.Server.UploadDir = t.TempDir()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	analyzer, err := drawinganalyzer.New(cfg, logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	router := gin.New()
	NewAnalyzeHandler(analyzer, cfg.Server.UploadDir, logger).RegisterRoutes(router)
	return router
}

func analyzeForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	fw, err := mw.CreateFormFile("image", "drawing.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("image bytes")); err != nil {
		t.Fatalf("write image: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	return body, mw.FormDataContentType()
}

func postAnalyze(router *gin.Engine, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/analyze/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeSavesResultForUsername(t *testing.T) {
	var saved gateway.GameResultRequest
	calls := 0
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/game/clear" {
			t.Errorf("path = %s, want /game/clear", r.URL.Path)
		}
		calls++
		if err := json.NewDecoder(r.Body).Decode(&saved); err != nil {
			t.Errorf("decode: %v", err)
		}
		fmt.Fprint(w, `{"success": true}`)
	}))
	defer storage.Close()

	router := newAnalyzeRouter(t, storage.URL)
	body, contentType := analyzeForm(t, map[string]string{
		"stage":       "1",
		"description": "비 오는 날 우산을 쓴 사람",
		"username":    "mina",
	})

	rec := postAnalyze(router, body, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("storage calls = %d, want 1", calls)
	}
	if saved.Username != "mina" || saved.StageNumber != 1 {
		t.Errorf("saved = %+v", saved)
	}
	if saved.ResultText == "" || saved.Emotion == "" {
		t.Errorf("saved result missing text or emotion: %+v", saved)
	}
}

func TestAnalyzeSkipsSaveWithoutUsername(t *testing.T) {
	calls := 0
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		fmt.Fprint(w, `{"success": true}`)
	}))
	defer storage.Close()

	router := newAnalyzeRouter(t, storage.URL)
	body, contentType := analyzeForm(t, map[string]string{
		"stage":       "2",
		"description": "집과 나무",
	})

	rec := postAnalyze(router, body, contentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if calls != 0 {
		t.Errorf("storage calls = %d, want 0 without a username", calls)
	}
}
