package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formbuilder/internal/app"
	"github.com/goliatone/go-formbuilder/internal/config"
	"github.com/goliatone/go-formbuilder/internal/server"
	"github.com/goliatone/go-formbuilder/pkg/autosave"
	"github.com/goliatone/go-formbuilder/pkg/builder"
	"github.com/goliatone/go-formbuilder/pkg/notify"
	"github.com/goliatone/go-formbuilder/pkg/question"
	"github.com/goliatone/go-formbuilder/pkg/testsupport"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	app    *app.App
	server *server.Server
	clock  *testsupport.FakeClock
}

func newHarness(t *testing.T) harness {
	t.Helper()
	clock := testsupport.NewFakeClock()
	a, err := app.New(context.Background(), config.Default(),
		app.WithSaver(testsupport.NewRecordingSaver()),
		app.WithCollectionOptions(builder.WithSchedulerOptions(autosave.WithAfterFunc(clock.AfterFunc))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return harness{app: a, server: server.New(a), clock: clock}
}

func (h harness) do(t *testing.T, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(w, req)
	return w
}

func (h harness) doJSON(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return h.do(t, method, path, "application/json", body)
}

func (h harness) settle(t *testing.T) {
	t.Helper()
	h.clock.Advance(h.app.Config.Autosave.Delay)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.app.Collection.WaitIdle(ctx))
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestQuestionLifecycle(t *testing.T) {
	h := newHarness(t)

	w := h.doJSON(t, http.MethodPost, "/api/questions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[question.Question](t, w)
	assert.Equal(t, question.StatusInitial, created.SaveStatus)
	assert.Equal(t, question.TypeText, created.Type)

	path := "/api/questions/" + created.ID
	w = h.doJSON(t, http.MethodPatch, path, map[string]any{"label": "Age", "type": "Number", "min": 0, "max": 120})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[question.Question](t, w)
	assert.Equal(t, "Age", updated.Label)
	assert.Equal(t, question.TypeNumber, updated.Type)
	require.NotNil(t, updated.Max)
	assert.Equal(t, 120.0, *updated.Max)

	h.settle(t)
	w = h.doJSON(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, question.StatusSaved, decode[question.Question](t, w).SaveStatus)

	w = h.doJSON(t, http.MethodGet, "/api/questions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]question.Question](t, w), 1)

	w = h.doJSON(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = h.doJSON(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = h.doJSON(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatchValidation(t *testing.T) {
	h := newHarness(t)
	created := decode[question.Question](t, h.doJSON(t, http.MethodPost, "/api/questions", nil))
	path := "/api/questions/" + created.ID

	w := h.doJSON(t, http.MethodPatch, path, map[string]any{"type": "date"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "malformed_patch", decode[map[string]string](t, w)["error"])

	w = h.do(t, http.MethodPatch, path, "application/json", strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.doJSON(t, http.MethodPatch, "/api/questions/missing", map[string]any{"label": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.doJSON(t, http.MethodPatch, path, map[string]any{"optionsText": " Red, ,Blue "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Red", "Blue"}, decode[question.Question](t, w).Options)
}

func seed(t *testing.T, h harness) {
	t.Helper()
	name := testsupport.Question("name", "Name", question.TypeText)
	name.Required = true
	age := testsupport.NumberQuestion("age", "Age", 0, 120)
	hidden := testsupport.Question("secret", "Secret", question.TypeText)
	hidden.Hidden = true
	hidden.Required = true
	require.NoError(t, h.app.Store.Write(context.Background(), []question.Question{name, age, hidden}))
}

func TestSubmitFormJSON(t *testing.T) {
	h := newHarness(t)
	seed(t, h)

	w := h.doJSON(t, http.MethodPost, "/form", map[string]any{"age": 130})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, false, got["valid"])
	assert.Equal(t, map[string]any{
		"name": "This field is required.",
		"age":  "Must be no more than 120.",
	}, got["errors"])

	w = h.doJSON(t, http.MethodPost, "/form", map[string]any{"name": " Ada ", "age": 36})
	require.Equal(t, http.StatusOK, w.Code)
	got = decode[map[string]any](t, w)
	assert.Equal(t, true, got["valid"])
	assert.Equal(t, map[string]any{"name": "Ada", "age": "36"}, got["values"])
}

func TestSubmitFormHTML(t *testing.T) {
	h := newHarness(t)
	seed(t, h)

	w := h.do(t, http.MethodPost, "/form", "application/x-www-form-urlencoded",
		strings.NewReader(url.Values{"age": {"abc"}}.Encode()))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")
	assert.Contains(t, w.Body.String(), "Must be a number.")
	assert.NotContains(t, w.Body.String(), "Secret")

	w = h.do(t, http.MethodPost, "/form", "application/x-www-form-urlencoded",
		strings.NewReader(url.Values{"name": {"Ada"}, "age": {"40"}}.Encode()))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-submitted="true"`)
	assert.Contains(t, w.Body.String(), "40 Years")
}

func TestSubmitUsesRenderedForm(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	age := testsupport.NumberQuestion("age", "Age", 0, 120)
	require.NoError(t, h.app.Store.Write(ctx, []question.Question{age}))

	w := h.do(t, http.MethodGet, "/form", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	stricter := testsupport.NumberQuestion("age", "Age", 50, 120)
	extra := testsupport.Question("name", "Name", question.TypeText)
	extra.Required = true
	require.NoError(t, h.app.Store.Write(ctx, []question.Question{stricter, extra}))

	w = h.doJSON(t, http.MethodPost, "/form", map[string]any{"age": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]any{"age": "10"}, decode[map[string]any](t, w)["values"])

	w = h.do(t, http.MethodGet, "/form", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = h.doJSON(t, http.MethodPost, "/form", map[string]any{"age": 10})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, map[string]any{
		"age":  "Must be at least 50.",
		"name": "This field is required.",
	}, decode[map[string]any](t, w)["errors"])
}

func TestPagesAndDocuments(t *testing.T) {
	h := newHarness(t)
	created := decode[question.Question](t, h.doJSON(t, http.MethodPost, "/api/questions", nil))

	w := h.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `data-id="`+created.ID+`"`)
	assert.Contains(t, w.Body.String(), "Incomplete question")

	w = h.doJSON(t, http.MethodPost, "/api/render", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"url": "/form"}, decode[map[string]string](t, w))

	w = h.do(t, http.MethodGet, "/form", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Question 1")

	w = h.do(t, http.MethodGet, "/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode[map[string]any](t, w)
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/form")
	assert.Contains(t, paths, "/api/questions/{id}")

	w = h.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `formbuilder_http_requests_total{code="2xx",route="/api/render"} 1`)
	assert.Contains(t, w.Body.String(), "formbuilder_questions 1")
}

func TestEventsWebsocket(t *testing.T) {
	h := newHarness(t)
	srv := httptest.NewServer(h.server.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	res, err := srv.Client().Post(srv.URL+"/api/questions", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev notify.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, notify.EventAdded, ev.Type)
	require.NotNil(t, ev.Question)
	assert.Equal(t, question.StatusInitial, ev.Question.SaveStatus)
}
