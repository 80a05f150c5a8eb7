package internal

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type messageResp struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Token   string `json:"token"`
}

func TestScenarioA_RegisterThenList(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/api/register", map[string]string{
		"parentFirstName":     "Jane",
		"parentLastName":      "Doe",
		"email":               "jane@example.com",
		"playerName":          "Jo Doe",
		"playerCurrentLeague": "GTHL",
		"team":                "Thunder",
		"level":               "AA",
		"position":            "F",
		"packageName":         "1 Player + 2 Guests",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[messageResp](t, w)
	assert.Equal(t, "Registration successful", created.Message)
	require.NotEmpty(t, created.ID)

	w = env.do(t, http.MethodGet, "/api/registrations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	regs := decodeBody[[]map[string]any](t, w)
	require.Len(t, regs, 1)
	assert.Equal(t, created.ID, regs[0]["id"])
	assert.EqualValues(t, 2, regs[0]["guestCount"])
	assert.EqualValues(t, 1, regs[0]["playerCount"])
	assert.Equal(t, false, regs[0]["confirmed"])
	assert.Equal(t, "Thunder", regs[0]["team"])

	env.dispatcher.Wait()
}

func TestScenarioB_ConfirmEmail(t *testing.T) {
	env := newTestEnv(t, false)
	reg, err := env.regs.Register(context.Background(), sampleForm())
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/confirm-email?token="+reg.ConfirmationToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Email Confirmed")
	assert.Contains(t, w.Body.String(), "Thank you, Jane.")
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))

	all, err := env.regs.List(context.Background())
	require.NoError(t, err)
	assert.True(t, all[0].Confirmed)

	w = env.do(t, http.MethodGet, "/api/confirm-email?token="+reg.ConfirmationToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Email already confirmed!")

	env.dispatcher.Wait()
}

func TestConfirmEmail_BadRequests(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodGet, "/api/confirm-email", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid token", w.Body.String())

	w = env.do(t, http.MethodGet, "/api/confirm-email?token=nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Registration not found or invalid token", w.Body.String())
}

func TestScenarioC_Login(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/api/login", map[string]string{"username": "EHDAdmin", "password": "Toms2026!"})
	require.Equal(t, http.StatusOK, w.Code)
	ok := decodeBody[messageResp](t, w)
	assert.Equal(t, "Login successful", ok.Message)
	assert.NotEmpty(t, ok.Token)
	assert.Contains(t, w.Header().Get("Set-Cookie"), cookieName+"=")

	w = env.do(t, http.MethodPost, "/api/login", map[string]string{"username": "EHDAdmin", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, w.Body.String())
}

func TestScenarioD_Question(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/api/question", map[string]string{"email": "a@b.com", "text": "When do buses leave?"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody[messageResp](t, w)
	assert.Equal(t, "Question submitted successfully", created.Message)

	w = env.do(t, http.MethodGet, "/api/questions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	qs := decodeBody[[]Question](t, w)
	require.Len(t, qs, 1)
	assert.Equal(t, created.ID, qs[0].ID)
	assert.Equal(t, "a@b.com", qs[0].Email)
	assert.Equal(t, "When do buses leave?", qs[0].Text)
}

func TestListEndpoints_EmptyCollections(t *testing.T) {
	env := newTestEnv(t, false)

	for _, path := range []string{"/api/registrations", "/api/questions"} {
		w := env.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String(), path)
	}
}

func TestRegisterEndpoint_MissingField(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodPost, "/api/register", map[string]string{"email": "x@y.z"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Missing required field: parentFirstName"}`, w.Body.String())
}

func TestUpdateAndDeleteEndpoints(t *testing.T) {
	env := newTestEnv(t, false)
	reg, err := env.regs.Register(context.Background(), sampleForm())
	require.NoError(t, err)

	w := env.do(t, http.MethodPut, "/api/registrations/"+reg.ID, map[string]any{"packageName": "1 Player + 1 Parent", "position": "D"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeBody[Registration](t, w)
	assert.Equal(t, "D", updated.Position)
	require.NotNil(t, updated.GuestCount)
	assert.Equal(t, 1, *updated.GuestCount)

	w = env.do(t, http.MethodPut, "/api/registrations/missing", map[string]any{"team": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Registration not found"}`, w.Body.String())

	w = env.do(t, http.MethodDelete, "/api/registrations/"+reg.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Registration deleted successfully"}`, w.Body.String())

	w = env.do(t, http.MethodDelete, "/api/registrations/"+reg.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.dispatcher.Wait()
}

func TestDeleteQuestionEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	q, err := env.questions.Submit(context.Background(), "a@b.com", "hi")
	require.NoError(t, err)

	w := env.do(t, http.MethodDelete, "/api/questions/"+q.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Question deleted successfully"}`, w.Body.String())

	w = env.do(t, http.MethodDelete, "/api/questions/"+q.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Question not found"}`, w.Body.String())
}

func TestResendEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	reg, err := env.regs.Register(context.Background(), sampleForm())
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/api/resend-email/"+reg.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Email resent successfully"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/resend-email/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.dispatcher.Wait()
	assert.Len(t, env.notifier.Sent(), 2)
}

func TestExportEndpoint_RowCountMatchesCollection(t *testing.T) {
	env := newTestEnv(t, false)
	for i := 0; i < 3; i++ {
		_, err := env.regs.Register(context.Background(), sampleForm())
		require.NoError(t, err)
	}
	env.dispatcher.Wait()

	w := env.do(t, http.MethodGet, "/api/export/registrations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=registrations.xlsx", w.Header().Get("Content-Disposition"))
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Registrations")
	require.NoError(t, err)
	require.Len(t, rows, 1+3)
	assert.Equal(t, "id", rows[0][0])

	w = env.do(t, http.MethodGet, "/api/export/questions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=questions.xlsx", w.Header().Get("Content-Disposition"))
}

func TestAdminRoutes_RequireTokenWhenEnabled(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodGet, "/api/registrations", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/registrations", nil, "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := env.gate.Login("EHDAdmin", "Toms2026!")
	require.NoError(t, err)
	w = env.do(t, http.MethodGet, "/api/registrations", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/questions", nil, "Cookie", cookieName+"="+token)
	assert.Equal(t, http.StatusOK, w.Code)

	// public routes stay open
	w = env.do(t, http.MethodPost, "/api/question", map[string]string{"email": "a@b.com", "text": "hi"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, http.MethodOptions, "/api/register", nil, "Origin", "http://localhost:3000")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = env.do(t, http.MethodGet, "/api/questions", nil, "Origin", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/questions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, false)
	_, err := env.questions.Submit(context.Background(), "a@b.com", "hi")
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ehd_questions_total 1")
}
