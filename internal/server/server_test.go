package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/model"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/pipeline"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/rag"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	err   error
	calls int
}

func (f *fakeRunner) Run(context.Context) (pipeline.Result, error) {
	f.calls++
	if f.err != nil {
		return pipeline.Result{State: pipeline.StateFailed}, f.err
	}
	return pipeline.Result{State: pipeline.StateDone, Records: 100}, nil
}

type fakeAssistant struct {
	askErr    error
	clearErr  error
	history   string
	questions []string
	files     []rag.ChatFile
	cleared   bool
}

func (f *fakeAssistant) Ask(_ context.Context, q string) (rag.Reply, error) {
	f.questions = append(f.questions, q)
	if f.askErr != nil {
		return rag.Reply{}, f.askErr
	}
	return rag.Reply{Answer: "Resposta para " + q}, nil
}

func (f *fakeAssistant) ClearContext(context.Context) error {
	f.cleared = true
	return f.clearErr
}

func (f *fakeAssistant) HistoryText(context.Context) (string, error) {
	return f.history, nil
}

func (f *fakeAssistant) ChatData() ([]rag.ChatFile, error) {
	return f.files, nil
}

func newTestServer(t *testing.T, runner *fakeRunner, assistant *fakeAssistant) (*Server, Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		CSVPath:        filepath.Join(dir, "relatorio.csv"),
		ChartPath:      filepath.Join(dir, "grafico_tipos.png"),
		AllowedOrigins: []string{"http://localhost:3000"},
		Port:           8001,
	}
	return New(cfg, runner, assistant, nil), cfg
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestStatus(t *testing.T) {
	s, _ := newTestServer(t, &fakeRunner{}, &fakeAssistant{})

	w := do(s, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "API está online!", decode(t, w)["status"])
}

func TestRunPipeline(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		runner := &fakeRunner{}
		s, _ := newTestServer(t, runner, &fakeAssistant{})

		w := do(s, http.MethodPost, "/run_pipeline", "")
		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "Pipeline de ETL executado com sucesso!", body["message"])
		assert.Equal(t, "done", body["state"])
		assert.Equal(t, 1, runner.calls)
	})

	t.Run("failure hides details", func(t *testing.T) {
		runner := &fakeRunner{err: &pipeline.StepError{Step: pipeline.StateReport, Err: errors.New("disk full")}}
		s, _ := newTestServer(t, runner, &fakeAssistant{})

		w := do(s, http.MethodPost, "/run_pipeline", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "disk full")
	})
}

func TestChat(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		askErr     error
		wantStatus int
		wantAsked  bool
	}{
		{name: "answer", body: `{"pergunta": "Quantos fire?"}`, wantStatus: http.StatusOK, wantAsked: true},
		{name: "missing question", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "blank question", body: `{"pergunta": "  "}`, wantStatus: http.StatusBadRequest},
		{name: "invalid body", body: `not json`, wantStatus: http.StatusBadRequest},
		{
			name:       "assistant unavailable",
			body:       `{"pergunta": "Quantos fire?"}`,
			askErr:     fmt.Errorf("%w: no documents indexed", rag.ErrUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantAsked:  true,
		},
		{
			name:       "answer failure",
			body:       `{"pergunta": "Quantos fire?"}`,
			askErr:     errors.New("upstream 500"),
			wantStatus: http.StatusInternalServerError,
			wantAsked:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assistant := &fakeAssistant{askErr: tt.askErr}
			s, _ := newTestServer(t, &fakeRunner{}, assistant)

			w := do(s, http.MethodPost, "/chat", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAsked, len(assistant.questions) == 1)

			if tt.wantStatus == http.StatusOK {
				body := decode(t, w)
				assert.Equal(t, "Quantos fire?", body["pergunta"])
				assert.Equal(t, "Resposta para Quantos fire?", body["resposta"])
			}
		})
	}
}

func TestClearContext(t *testing.T) {
	assistant := &fakeAssistant{}
	s, _ := newTestServer(t, &fakeRunner{}, assistant)

	w := do(s, http.MethodPost, "/clear_context", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, assistant.cleared)

	assistant.clearErr = errors.New("permission denied")
	w = do(s, http.MethodPost, "/clear_context", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPipelineArtifacts(t *testing.T) {
	s, cfg := newTestServer(t, &fakeRunner{}, &fakeAssistant{})

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/get_pipeline_report", "").Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/get_pipeline_chart", "").Code)

	rows := model.Table{{ID: 1, Name: "Bulbasaur", Types: "grass, poison", BaseExperience: 64, HP: 45, Attack: 49, Defense: 49, Category: model.CategoryMedium}}
	require.NoError(t, report.ExportCSV(rows, cfg.CSVPath))
	require.NoError(t, os.WriteFile(cfg.ChartPath, []byte("\x89PNG\r\n\x1a\n"), 0o600))

	w := do(s, http.MethodGet, "/get_pipeline_report", "")
	require.Equal(t, http.StatusOK, w.Code)
	var records []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Bulbasaur", records[0]["Nome"])
	assert.Equal(t, "grass, poison", records[0]["Tipos"])
	assert.Equal(t, "Medium", records[0]["Categoria"])

	w = do(s, http.MethodGet, "/get_pipeline_chart", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestChatHistoryAndData(t *testing.T) {
	assistant := &fakeAssistant{
		history: "[2024-05-01T10:30:00Z]\nPergunta: oi\nResposta: olá\n",
		files:   []rag.ChatFile{{Filename: "dados_1.json", Type: "json", Content: json.RawMessage(`{"fire":3}`)}},
	}
	s, _ := newTestServer(t, &fakeRunner{}, assistant)

	w := do(s, http.MethodGet, "/get_chat_history", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, assistant.history, decode(t, w)["history"])

	w = do(s, http.MethodGet, "/get_chat_data", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[{"filename":"dados_1.json","type":"json","content":{"fire":3}}]}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, &fakeRunner{}, &fakeAssistant{})

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &fakeRunner{}, &fakeAssistant{})

	w := do(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
