package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Registration
	err  error
}

func (n *recordingNotifier) SendConfirmation(_ context.Context, reg Registration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, reg)
	return n.err
}

func (n *recordingNotifier) Sent() []Registration {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Registration(nil), n.sent...)
}

type testEnv struct {
	store      *MemoryStore
	notifier   *recordingNotifier
	dispatcher *Dispatcher
	regs       *RegistrationService
	questions  *QuestionService
	gate       *AdminGate
	metrics    *Metrics
	router     *gin.Engine
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, authRequired bool) *testEnv {
	t.Helper()

	log := discardLogger()
	env := &testEnv{
		store:    NewMemoryStore(),
		notifier: &recordingNotifier{},
		metrics:  NewMetrics(),
	}
	env.dispatcher = NewDispatcher(env.notifier, time.Second, log, env.metrics)
	env.regs = NewRegistrationService(env.store, env.dispatcher, log, env.metrics)
	env.questions = NewQuestionService(env.store, log, env.metrics)

	gate, err := NewAdminGate("EHDAdmin", "Toms2026!", []byte("test-secret"), time.Hour)
	require.NoError(t, err)
	env.gate = gate

	env.router = NewRouter(Deps{
		Registrations:     env.regs,
		Questions:         env.questions,
		Exporter:          NewExporter(env.store),
		Gate:              gate,
		Metrics:           env.metrics,
		Log:               log,
		AllowedOrigins:    []string{"http://localhost:3000"},
		AdminAuthRequired: authRequired,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func sampleForm() RegistrationForm {
	return RegistrationForm{
		ParentFirstName:     "Jane",
		ParentLastName:      "Doe",
		Email:               "jane@example.com",
		PlayerName:          "Jo Doe",
		PlayerCurrentLeague: "GTHL",
		Team:                "Thunder",
		Level:               "AA",
		Position:            "F",
		PackageName:         "1 Player + 2 Guests",
	}
}
