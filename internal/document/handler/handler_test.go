package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsldata/dataserver/internal/document/service"
)

func newTestEngine(opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	RegisterDocumentRoutes(g, service.NewMemoryService(), opts)
	return g
}

func do(g *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	g.ServeHTTP(w, req)
	return w
}

func TestExportRosterAndServe(t *testing.T) {
	g := newTestEngine(Options{})

	w := do(g, http.MethodPost, "/export/ps5/625743/team/774242334/roster", `{"name":"A"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var saved map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Equal(t, "saved", saved["status"])
	assert.Equal(t, "roster_774242334.json", saved["file"])

	w = do(g, http.MethodGet, "/roster_774242334.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `{"name":"A"}`, w.Body.String())
}

func TestExportStandingsServeWithoutSuffix(t *testing.T) {
	g := newTestEngine(Options{})

	w := do(g, http.MethodPost, "/export/standings", `{"wins":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"file":"standings.json"`)

	w = do(g, http.MethodGet, "/standings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"wins":5}`, w.Body.String())
}

func TestServeIsVerbatim(t *testing.T) {
	g := newTestEngine(Options{})
	raw := `{"z":1.10,"a":[3,2,1],"big":12345678901234567890,"nested":{"y":null,"x":true}}`

	w := do(g, http.MethodPost, "/export/passing", raw)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(g, http.MethodGet, "/passing.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, raw, w.Body.String())
}

func TestServeMissingReturnsStructuredNotFound(t *testing.T) {
	g := newTestEngine(Options{})

	w := do(g, http.MethodGet, "/never_written", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "never_written.json not found")
	assert.Contains(t, body["error"], "re-run the export")
}

func TestExportRejectsInvalidJSON(t *testing.T) {
	g := newTestEngine(Options{})

	w := do(g, http.MethodPost, "/export/standings", `{"wins":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no valid JSON received")

	w = do(g, http.MethodPost, "/export/standings", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(g, http.MethodGet, "/standings", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportRejectsOversizeBody(t *testing.T) {
	g := newTestEngine(Options{MaxBodyBytes: 16})

	w := do(g, http.MethodPost, "/export/standings", `{"wins":5,"losses":12,"ties":0}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestExportPing(t *testing.T) {
	g := newTestEngine(Options{})
	do(g, http.MethodPost, "/export/standings", `{"wins":5}`)

	for _, p := range []string{"/export", "/export/ps5/625743"} {
		w := do(g, http.MethodGet, p, "")
		require.Equal(t, http.StatusOK, w.Code, p)
		assert.JSONEq(t, `{"status":"online","files":1}`, w.Body.String())
	}
}

func TestExportAtRootUsesDefaultKey(t *testing.T) {
	g := newTestEngine(Options{})

	w := do(g, http.MethodPost, "/export", `{"v":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"file":"data.json"`)
}

func TestStatusHomeAndClear(t *testing.T) {
	g := newTestEngine(Options{})

	w := do(g, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TSL Data Server Active")
	assert.Contains(t, w.Body.String(), "No files yet")

	do(g, http.MethodPost, "/export/standings", `{"wins":5}`)
	do(g, http.MethodPost, "/export/ps5/1/freeagents", `[]`)
	do(g, http.MethodPost, "/export/standings", `{"wins":6}`)

	w = do(g, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st struct {
		Status      string            `json:"status"`
		FilesStored int               `json:"files_stored"`
		Files       []string          `json:"files"`
		LastUpdated map[string]string `json:"last_updated"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, "online", st.Status)
	assert.Equal(t, 2, st.FilesStored)
	assert.Equal(t, []string{"roster_freeagents.json", "standings.json"}, st.Files)
	assert.Len(t, st.LastUpdated, 2)
	assert.NotEmpty(t, st.LastUpdated["standings.json"])

	w = do(g, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	page := w.Body.String()
	assert.Contains(t, page, "2 files in memory")
	assert.Contains(t, page, `<a href="/standings.json">standings.json</a>`)
	assert.Less(t, strings.Index(page, "roster_freeagents.json"), strings.Index(page, "standings.json"))
	assert.Contains(t, page, " UTC)")

	w = do(g, http.MethodPost, "/clear", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"cleared"}`, w.Body.String())

	w = do(g, http.MethodGet, "/standings.json", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = do(g, http.MethodGet, "/status", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, 0, st.FilesStored)
	assert.Empty(t, st.Files)
}

func TestHomeEscapesKeys(t *testing.T) {
	g := newTestEngine(Options{})
	do(g, http.MethodPost, "/export/%3Cb%3Ex", `{}`)

	w := do(g, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<b>x")
	assert.Contains(t, w.Body.String(), "&lt;b&gt;x.json")
}

func TestUnknownMethodOnFileIsNotFound(t *testing.T) {
	g := newTestEngine(Options{})
	w := do(g, http.MethodPut, "/standings.json", `{}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}
