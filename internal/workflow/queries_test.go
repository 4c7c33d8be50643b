package workflow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/progress"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_Validation(t *testing.T) {
	tests := []struct {
		name         string
		id           string
		file1, file2 string
		wantMsg      string
	}{
		{name: "no session", file1: "a.txt", file2: "b.txt", wantMsg: MsgUploadFirst},
		{name: "same file", id: "s1", file1: "a.txt", file2: "a.txt", wantMsg: MsgSameFiles},
		{name: "unknown file", id: "s1", file1: "a.txt", file2: "z.txt", wantMsg: MsgNotInList},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]http.HandlerFunc{
				"/compare": jsonHandler(http.StatusOK, `{"success": true}`),
			})
			if tt.id != "" {
				require.NoError(t, f.store.Set(tt.id, []string{"a.txt", "b.txt", "c.txt"}))
			}

			err := f.o.Compare(context.Background(), tt.file1, tt.file2)

			assert.True(t, IsKind(err, KindValidation))
			assert.Equal(t, models.Notification{Level: models.LevelWarning, Message: tt.wantMsg}, f.notice(t))
			assert.Equal(t, 0, f.backend.total())
		})
	}
}

func TestCompare_EveryDistinctPairIsSent(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []models.CompareRequest
	)

	f := newFixture(t, map[string]http.HandlerFunc{
		"/compare": func(w http.ResponseWriter, r *http.Request) {
			var req models.CompareRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			mu.Lock()
			seen = append(seen, req)
			mu.Unlock()

			json.NewEncoder(w).Encode(models.CompareResponse{
				Success:         true,
				File1:           req.File1,
				File2:           req.File2,
				SimilarityScore: 0.42,
			})
		},
	})
	files := []string{"a.txt", "b.txt", "c.txt"}
	require.NoError(t, f.store.Set("s1", files))

	sent := 0
	for _, a := range files {
		for _, b := range files {
			if a == b {
				continue
			}
			require.NoError(t, f.o.Compare(context.Background(), a, b))
			sent++
		}
	}

	mu.Lock()
	assert.Len(t, seen, sent)
	assert.Equal(t, models.CompareRequest{SessionID: "s1", File1: "a.txt", File2: "b.txt"}, seen[0])
	mu.Unlock()

	assert.Equal(t, "c.txt ↔ b.txt: 42.0%", f.o.Comparison(), "latest comparison overwrites the previous one")
}

func TestCompare_ServerError(t *testing.T) {
	f := newFixture(t, map[string]http.HandlerFunc{
		"/compare": jsonHandler(http.StatusBadRequest, `{"success": false, "error": "File not found: b.txt"}`),
	})
	require.NoError(t, f.store.Set("s1", []string{"a.txt", "b.txt"}))

	err := f.o.Compare(context.Background(), "a.txt", "b.txt")

	assert.True(t, IsKind(err, KindServer))
	assert.Equal(t, models.Notification{Level: models.LevelDanger, Message: "File not found: b.txt"}, f.notice(t))
	assert.Empty(t, f.o.Comparison())
}

func TestConverse(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantText  string
		wantLevel models.NotificationLevel
		wantMsg   string
	}{
		{
			name:      "answer shown verbatim",
			handler:   jsonHandler(http.StatusOK, `{"success": true, "response": "  Both files discuss graphs.\n"}`),
			wantText:  "  Both files discuss graphs.\n",
			wantLevel: models.LevelSuccess,
			wantMsg:   MsgConverseDone,
		},
		{
			name:      "empty answer",
			handler:   jsonHandler(http.StatusOK, `{"success": true}`),
			wantText:  MsgNoResponse,
			wantLevel: models.LevelSuccess,
			wantMsg:   MsgConverseDone,
		},
		{
			name:      "server error text",
			handler:   jsonHandler(http.StatusInternalServerError, `{"success": false, "error": "LLM quota exceeded"}`),
			wantText:  MsgConverseError,
			wantLevel: models.LevelDanger,
			wantMsg:   "LLM quota exceeded",
		},
		{
			name:      "failure without text",
			handler:   jsonHandler(http.StatusOK, `{"success": false}`),
			wantText:  MsgConverseError,
			wantLevel: models.LevelDanger,
			wantMsg:   MsgConverseFailed,
		},
		{
			name:      "non json error page",
			handler:   jsonHandler(http.StatusBadGateway, `<html>bad gateway</html>`),
			wantText:  MsgConverseError,
			wantLevel: models.LevelDanger,
			wantMsg:   MsgConverseFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]http.HandlerFunc{"/converse": tt.handler})
			require.NoError(t, f.store.Set("s1", []string{"a.txt"}))

			_ = f.o.Converse(context.Background(), "What are these about?")

			assert.Equal(t, tt.wantText, f.o.Conversation())
			assert.Equal(t, models.Notification{Level: tt.wantLevel, Message: tt.wantMsg}, f.notice(t))
		})
	}
}

func TestConverse_Validation(t *testing.T) {
	f := newFixture(t, map[string]http.HandlerFunc{"/converse": jsonHandler(http.StatusOK, `{"success": true}`)})

	err := f.o.Converse(context.Background(), "hello")
	assert.True(t, IsKind(err, KindValidation))

	require.NoError(t, f.store.Set("s1", []string{"a.txt"}))
	err = f.o.Converse(context.Background(), " \t\n")
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, models.Notification{Level: models.LevelWarning, Message: MsgConverseInput}, f.notice(t))
	assert.Equal(t, 0, f.backend.total())
}

func TestConverse_NetworkError(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.store.Set("s1", []string{"a.txt"}))
	f.backend.srv.Close()

	err := f.o.Converse(context.Background(), "hello")

	assert.True(t, IsKind(err, KindServer))
	n := f.notice(t)
	assert.Equal(t, models.LevelDanger, n.Level)
	assert.True(t, strings.HasPrefix(n.Message, "Network error: "), n.Message)
	assert.Equal(t, MsgConverseError, f.o.Conversation())
}

func TestCleanup_Scenario(t *testing.T) {
	var (
		mu  sync.Mutex
		got models.CleanupRequest
	)

	f := newFixture(t, map[string]http.HandlerFunc{
		"/analyze": sse(completeFrame(analysisPayload)),
		"/compare": jsonHandler(http.StatusOK, `{"success": true, "file1": "a.txt", "file2": "b.txt", "similarity_score": 0.5}`),
		"/cleanup": func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			mu.Unlock()
			io.WriteString(w, `{"success": true, "message": "Session data cleaned up"}`)
		},
	})
	require.NoError(t, f.store.Set("s1", []string{"a.txt", "b.txt"}))
	require.NoError(t, f.o.Analyze(context.Background(), 70))
	require.NoError(t, f.o.Compare(context.Background(), "a.txt", "b.txt"))

	require.NoError(t, f.o.Cleanup(context.Background()))

	mu.Lock()
	assert.Equal(t, models.CleanupRequest{SessionID: "s1"}, got)
	mu.Unlock()

	assert.Equal(t, models.Session{Files: []string{}}, f.o.Session())
	assert.Nil(t, f.o.View())
	assert.Empty(t, f.o.Comparison())
	c := f.o.Controls()
	assert.False(t, c.Analyze)
	assert.False(t, c.Converse)
	assert.False(t, c.Cleanup)
	assert.False(t, c.Download)
	assert.Equal(t, models.Notification{Level: models.LevelSuccess, Message: MsgCleanedUp}, f.notice(t))
}

func TestCleanup_FailureKeepsSession(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "server text", body: `{"success": false, "error": "Session not found"}`, wantMsg: "Session not found"},
		{name: "no text", body: `{"success": false}`, wantMsg: MsgCleanupFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]http.HandlerFunc{"/cleanup": jsonHandler(http.StatusOK, tt.body)})
			require.NoError(t, f.store.Set("s1", []string{"a.txt"}))

			err := f.o.Cleanup(context.Background())

			assert.True(t, IsKind(err, KindServer))
			assert.Equal(t, models.Notification{Level: models.LevelDanger, Message: tt.wantMsg}, f.notice(t))
			assert.Equal(t, models.Session{ID: "s1", Files: []string{"a.txt"}}, f.o.Session())
		})
	}
}

func TestCleanup_RequiresSession(t *testing.T) {
	f := newFixture(t, nil)

	err := f.o.Cleanup(context.Background())

	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, 0, f.backend.total())
}

func TestDownload(t *testing.T) {
	f := newFixture(t, map[string]http.HandlerFunc{
		"/download/": func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"report": "`+strings.TrimPrefix(r.URL.Path, "/download/")+`"}`)
		},
	})

	_, err := f.o.ReportURL()
	assert.True(t, IsKind(err, KindValidation))
	_, err = f.o.SaveReport(context.Background(), report.NewFileSink(t.TempDir()))
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, 0, f.backend.total())

	require.NoError(t, f.store.Set("s1", []string{"a.txt"}))

	url, err := f.o.ReportURL()
	require.NoError(t, err)
	assert.Equal(t, f.backend.srv.URL+"/download/s1", url)

	dir := t.TempDir()
	location, err := f.o.SaveReport(context.Background(), report.NewFileSink(dir))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "s1", report.ReportName), location)

	raw, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.JSONEq(t, `{"report": "s1"}`, string(raw))
	assert.Equal(t, models.LevelSuccess, f.notice(t).Level)
}

// heldAnalyze отдает 10% и держит поток открытым до закрытия release.
func heldAnalyze(release <-chan struct{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sse(percentFrame(10))(w, r)
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		sse(completeFrame(analysisPayload))(w, r)
	}
}

func TestCleanup_RejectedWhileAnalyzing(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, map[string]http.HandlerFunc{
		"/analyze": heldAnalyze(release),
		"/cleanup": jsonHandler(http.StatusOK, `{"success": true}`),
	})
	require.NoError(t, f.store.Set("s1", []string{"a.txt", "b.txt"}))

	done := make(chan error, 1)
	go func() { done <- f.o.Analyze(context.Background(), 70) }()

	require.Eventually(t, func() bool { return f.o.Progress().Percent == 10 }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, f.o.Controls().Cleanup)

	err := f.o.Cleanup(context.Background())
	assert.ErrorIs(t, err, progress.ErrBusy)
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, models.Notification{Level: models.LevelWarning, Message: MsgBusy}, f.notice(t))
	assert.Equal(t, 0, f.backend.calls("/cleanup"))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, "s1", f.o.Session().ID)
	require.NotNil(t, f.o.View())
	assert.True(t, f.o.Controls().Cleanup)

	// после анализа cleanup проходит и результаты исчезают
	require.NoError(t, f.o.Cleanup(context.Background()))
	assert.False(t, f.o.Session().Active())
	assert.Nil(t, f.o.View())
}

func TestAnalyze_DropsResultOfReplacedSession(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, map[string]http.HandlerFunc{"/analyze": heldAnalyze(release)})
	require.NoError(t, f.store.Set("s1", []string{"a.txt", "b.txt"}))

	done := make(chan error, 1)
	go func() { done <- f.o.Analyze(context.Background(), 70) }()

	require.Eventually(t, func() bool { return f.o.Progress().Percent == 10 }, 2*time.Second, 5*time.Millisecond)
	f.store.Clear()

	close(release)
	require.NoError(t, <-done)
	assert.Nil(t, f.o.View())
	_, ok := f.board.Current()
	assert.False(t, ok, "no success message for a dropped result")
}
