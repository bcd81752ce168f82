package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telavision/epgvault/internal/config"
	"github.com/telavision/epgvault/internal/models"
	"github.com/telavision/epgvault/internal/service"
	"github.com/telavision/epgvault/internal/store"
)

// stubStore serves canned data and records the queries it saw.
type stubStore struct {
	channels     []models.Channel
	programs     []models.Program
	current      *models.Program
	currentErr   error
	tonight      *models.Program
	tonightErr   error
	searchCalled bool
	listedPkg    string
	tonightAfter time.Time
	tonightMin   time.Duration
}

func (s *stubStore) TruncateCatalog(context.Context) error  { return nil }
func (s *stubStore) TruncatePrograms(context.Context) error { return nil }
func (s *stubStore) InsertChannels(context.Context, []models.Channel) error {
	return nil
}
func (s *stubStore) InsertChannelPackages(context.Context, []string, string) error {
	return nil
}
func (s *stubStore) BulkInsertPrograms(context.Context, []models.Program) error {
	return nil
}

func (s *stubStore) ListChannels(_ context.Context, pkg string) ([]models.Channel, error) {
	s.listedPkg = pkg
	return s.channels, nil
}

func (s *stubStore) UpcomingPrograms(context.Context, string, time.Time) ([]models.Program, error) {
	return s.programs, nil
}

func (s *stubStore) CurrentProgram(context.Context, string, time.Time) (*models.Program, error) {
	return s.current, s.currentErr
}

func (s *stubStore) TonightProgram(_ context.Context, _ string, after time.Time, minDuration time.Duration) (*models.Program, error) {
	s.tonightAfter = after
	s.tonightMin = minDuration
	return s.tonight, s.tonightErr
}

func (s *stubStore) SearchPrograms(context.Context, string) ([]models.Program, error) {
	s.searchCalled = true
	return s.programs, nil
}

type stubRunner struct {
	inFlight bool
	runs     int
}

func (r *stubRunner) InFlight() bool { return r.inFlight }
func (r *stubRunner) Run(context.Context, uuid.UUID) (*service.RunStats, error) {
	r.runs++
	return &service.RunStats{}, nil
}

func testServer(s store.Store, runner Runner) *Server {
	cfg := &config.Config{ServerPort: "0", TonightMinDuration: 30 * time.Minute}
	return New(s, cfg, runner, nil)
}

func doRequest(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, testServer(&stubStore{}, nil), http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChannelsByPackage(t *testing.T) {
	s := &stubStore{channels: []models.Channel{{ChannelID: "c1", Name: "One"}}}
	rec := doRequest(t, testServer(s, nil), http.MethodGet, "/api/channels/FR")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "FR", s.listedPkg)

	var got []models.Channel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ChannelID)
}

func TestChannelsEmptyListNotNull(t *testing.T) {
	rec := doRequest(t, testServer(&stubStore{}, nil), http.MethodGet, "/api/channels/ALL")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestUpcomingProgramsWithoutChannelID(t *testing.T) {
	s := &stubStore{programs: []models.Program{{Title: "x"}}}
	rec := doRequest(t, testServer(s, nil), http.MethodGet, "/api/programs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String(), "missing channelId yields an empty list")
}

func TestCurrentProgramNotFound(t *testing.T) {
	s := &stubStore{currentErr: store.ErrNotFound}
	rec := doRequest(t, testServer(s, nil), http.MethodGet, "/api/programs/current?channelId=c1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCurrentProgram(t *testing.T) {
	s := &stubStore{current: &models.Program{ChannelID: "c1", Title: "Now"}}
	rec := doRequest(t, testServer(s, nil), http.MethodGet, "/api/programs/current?channelId=c1")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Program
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Now", got.Title)
}

func TestTonightProgramPassesPolicy(t *testing.T) {
	s := &stubStore{tonight: &models.Program{Title: "Tonight"}}
	rec := doRequest(t, testServer(s, nil), http.MethodGet, "/api/programs/tonight?channelId=c1")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 30*time.Minute, s.tonightMin)
	assert.Equal(t, 20, s.tonightAfter.Hour())
	assert.Equal(t, 30, s.tonightAfter.Minute())
}

func TestTonightProgramNotFound(t *testing.T) {
	s := &stubStore{tonightErr: store.ErrNotFound}
	rec := doRequest(t, testServer(s, nil), http.MethodGet, "/api/programs/tonight?channelId=c1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchRejectsInvalidInput(t *testing.T) {
	for _, q := range []string{"Film", "news24", "a%3B"} {
		s := &stubStore{programs: []models.Program{{Title: "x"}}}
		rec := doRequest(t, testServer(s, nil), http.MethodGet, "/api/programs/search?q="+q)
		require.Equal(t, http.StatusOK, rec.Code, "q=%s", q)
		assert.JSONEq(t, "[]", rec.Body.String(), "q=%s", q)
		assert.False(t, s.searchCalled, "invalid query must not reach the store")
	}
}

func TestSearchValidQuery(t *testing.T) {
	s := &stubStore{programs: []models.Program{{Title: "late film"}}}
	rec := doRequest(t, testServer(s, nil), http.MethodGet, "/api/programs/search?q=late+film")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.searchCalled)

	var got []models.Program
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
}

func TestRefreshConflictsWhileRunInFlight(t *testing.T) {
	runner := &stubRunner{inFlight: true}
	rec := doRequest(t, testServer(&stubStore{}, runner), http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Zero(t, runner.runs)
}

func TestRefreshAccepted(t *testing.T) {
	runner := &stubRunner{}
	rec := doRequest(t, testServer(&stubStore{}, runner), http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	_, err := uuid.Parse(body["run_id"])
	assert.NoError(t, err)
}

func TestTonightReference(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 15, 42, 0, time.FixedZone("CEST", 2*3600))
	ref := tonightReference(now)
	assert.Equal(t, 20, ref.Hour())
	assert.Equal(t, 30, ref.Minute())
	assert.Equal(t, 0, ref.Second())
	assert.Equal(t, now.Day(), ref.Day())
	assert.Equal(t, now.Location(), ref.Location())
}
