package http

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mauv0809/warlord-swiss/internal/config"
	"github.com/mauv0809/warlord-swiss/internal/database"
	"github.com/mauv0809/warlord-swiss/internal/gamesystem"
	"github.com/mauv0809/warlord-swiss/internal/http/handlers"
	"github.com/mauv0809/warlord-swiss/internal/metrics"
	"github.com/mauv0809/warlord-swiss/internal/notifier"
	"github.com/mauv0809/warlord-swiss/internal/processor"
	"github.com/mauv0809/warlord-swiss/internal/pubsub"
	"github.com/mauv0809/warlord-swiss/internal/session"
	"github.com/mauv0809/warlord-swiss/internal/standings"
	"github.com/mauv0809/warlord-swiss/internal/store"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSlackSigningSecret = "test-signing-secret"
	testSessionSecret      = "test-session-secret"
)

type testServer struct {
	*Server
	notifier *notifier.Mock
	pubsub   *pubsub.MockPubSubClient
}

// setupTestServer initializes a new server with a test database and mock clients.
func setupTestServer(t *testing.T, mockNotifier *notifier.Mock) (*testServer, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	cfg := config.Config{
		Slack:   config.SlackConfig{SigningSecret: testSlackSigningSecret},
		Session: config.SessionConfig{Secret: testSessionSecret},
	}

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)
	ps := pubsub.NewMock()
	proc := processor.New(store.New(db), mockNotifier, metricsSvc, ps, gamesystem.NewRegistry(standings.DefaultScoring()))
	server := NewServer(metricsSvc, metricsHandler, cfg, proc, session.NewIssuer(testSessionSecret, time.Hour), ps)

	teardown := func() {
		if dbTeardown != nil {
			dbTeardown()
		}
	}
	return &testServer{Server: server, notifier: mockNotifier, pubsub: ps}, teardown
}

func token(t *testing.T, s *testServer, userID string, role session.Role) string {
	t.Helper()
	raw, err := s.Sessions.Issue(session.Session{UserID: userID, Role: role})
	require.NoError(t, err)
	return raw
}

// do sends a JSON request through the full middleware stack.
func do(t *testing.T, s *testServer, method, target, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

// createSlackCommandRequest creates an http.Request suitable for testing Slack slash commands,
// including the necessary signature and timestamp headers for verification.
func createSlackCommandRequest(t *testing.T, targetURL string, form url.Values, signingSecret string) *http.Request {
	t.Helper()

	body := form.Encode()
	req, err := http.NewRequest("POST", targetURL, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	timestamp := time.Now().Unix()
	req.Header.Set("X-Slack-Request-Timestamp", strconv.FormatInt(timestamp, 10))

	baseString := fmt.Sprintf("v0:%d:%s", timestamp, body)
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte(baseString))
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(h.Sum(nil)))
	return req
}

// pushRequest wraps an event the way a Pub/Sub push subscription delivers it.
func pushRequest(t *testing.T, target string, evt any) *http.Request {
	t.Helper()
	raw, err := pubsub.Encode(evt)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"subscription": "projects/test/subscriptions/sub",
		"message":      map[string]string{"data": base64.StdEncoding.EncodeToString(raw), "messageId": "1"},
	})
	require.NoError(t, err)
	req, err := http.NewRequest("POST", target, bytes.NewReader(body))
	require.NoError(t, err)
	return req
}

func TestHealthCheckHandler(t *testing.T) {
	server, teardown := setupTestServer(t, notifier.NewMock())
	defer teardown()

	rr := do(t, server, "GET", "/health", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestListGameSystemsHandler(t *testing.T) {
	server, teardown := setupTestServer(t, notifier.NewMock())
	defer teardown()

	rr := do(t, server, "GET", "/game-systems", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), string(tournament.GameSystemSaga))
}

func TestSessionMiddleware(t *testing.T) {
	server, teardown := setupTestServer(t, notifier.NewMock())
	defer teardown()
	body := processor.CreateTournamentInput{Name: "Spring Clash", GameSystem: tournament.GameSystemSaga, RoundCount: 3}

	t.Run("invalid token is rejected", func(t *testing.T) {
		rr := do(t, server, "POST", "/tournaments", "not-a-jwt", body)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "invalid session token", decode[handlers.ErrorResponse](t, rr).Error)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		forged, err := session.NewIssuer("other", time.Hour).Issue(session.Session{UserID: "org", Role: session.RoleOrganizer})
		require.NoError(t, err)
		rr := do(t, server, "POST", "/tournaments", forged, body)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("anonymous caller is forbidden", func(t *testing.T) {
		rr := do(t, server, "POST", "/tournaments", "", body)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("player cannot create tournaments", func(t *testing.T) {
		rr := do(t, server, "POST", "/tournaments", token(t, server, "u1", session.RolePlayer), body)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("anonymous reads are allowed", func(t *testing.T) {
		rr := do(t, server, "GET", "/tournaments", "", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestUpdateTournamentHandler(t *testing.T) {
	server, teardown := setupTestServer(t, notifier.NewMock())
	defer teardown()

	org := token(t, server, "org", session.RoleOrganizer)
	rr := do(t, server, "POST", "/tournaments", org, processor.CreateTournamentInput{Name: "Spring Clash", GameSystem: tournament.GameSystemSaga, RoundCount: 3})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	base := "/tournaments/" + decode[tournament.Tournament](t, rr).ID

	t.Run("organizer changes the round count", func(t *testing.T) {
		rr := do(t, server, "PATCH", base, org, map[string]any{"round_count": 5})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		got := decode[tournament.Tournament](t, rr)
		assert.Equal(t, 5, got.RoundCount)
		assert.Equal(t, "Spring Clash", got.Name)
	})

	t.Run("zero rounds is rejected", func(t *testing.T) {
		rr := do(t, server, "PATCH", base, org, map[string]any{"round_count": 0})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("player is forbidden", func(t *testing.T) {
		rr := do(t, server, "PATCH", base, token(t, server, "u1", session.RolePlayer), map[string]any{"name": "Mine"})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestTournamentFlow(t *testing.T) {
	server, teardown := setupTestServer(t, notifier.NewMock())
	defer teardown()

	org := token(t, server, "org", session.RoleOrganizer)
	players := map[string]string{
		"u1": token(t, server, "u1", session.RolePlayer),
		"u2": token(t, server, "u2", session.RolePlayer),
	}

	rr := do(t, server, "POST", "/tournaments", org, processor.CreateTournamentInput{Name: "Spring Clash", GameSystem: tournament.GameSystemSaga, RoundCount: 1})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	tour := decode[tournament.Tournament](t, rr)
	base := "/tournaments/" + tour.ID

	t.Run("start needs two participants", func(t *testing.T) {
		rr := do(t, server, "POST", base+"/start", org, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	userOf := map[string]string{}
	rr = do(t, server, "POST", base+"/participants", org, processor.ParticipantInput{UserID: "u1", DisplayName: "Ragnar", Faction: "Vikings"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	userOf[decode[tournament.Participant](t, rr).ID] = "u1"

	rr = do(t, server, "POST", base+"/participants", players["u2"], processor.ParticipantInput{DisplayName: "William", Faction: "Normans"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	p2 := decode[tournament.Participant](t, rr)
	assert.Equal(t, "u2", p2.UserID)
	userOf[p2.ID] = "u2"

	t.Run("player cannot register someone else", func(t *testing.T) {
		rr := do(t, server, "POST", base+"/participants", players["u1"], processor.ParticipantInput{UserID: "u3", DisplayName: "Harald"})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		rr := do(t, server, "POST", base+"/participants", org, map[string]string{"display_name": "Harald", "elo": "1500"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("dry run start only previews", func(t *testing.T) {
		rr := do(t, server, "POST", base+"/start?dry_run=true", org, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		rr = do(t, server, "GET", base, "", nil)
		view := decode[processor.View](t, rr)
		assert.Equal(t, tournament.StatePending, view.Tournament.State)
		assert.Empty(t, server.pubsub.Sent(pubsub.EventPairingsGenerated))
	})

	rr = do(t, server, "POST", base+"/start", org, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	round := decode[tournament.Round](t, rr)
	require.Len(t, round.Matches, 1)
	m := round.Matches[0]
	assert.Len(t, server.pubsub.Sent(pubsub.EventPairingsGenerated), 1)

	t.Run("start twice conflicts", func(t *testing.T) {
		rr := do(t, server, "POST", base+"/start", org, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	matchURL := base + "/matches/" + m.ID
	reporter := players[userOf[m.PlayerA]]
	opponent := players[userOf[m.PlayerB]]
	result := tournament.Result{Winner: tournament.SideA, A: tournament.SideScore{VictoryPoints: 14, MassacrePoints: 2}, B: tournament.SideScore{VictoryPoints: 6}}

	t.Run("organizer cannot report as a player", func(t *testing.T) {
		rr := do(t, server, "POST", matchURL+"/report", org, result)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	rr = do(t, server, "POST", matchURL+"/report", reporter, result)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, tournament.ResultPlayerReported, decode[tournament.Match](t, rr).Status)

	t.Run("reporter cannot confirm their own result", func(t *testing.T) {
		rr := do(t, server, "POST", matchURL+"/confirm", reporter, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("finish before results are final", func(t *testing.T) {
		rr := do(t, server, "POST", base+"/finish", org, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	rr = do(t, server, "POST", matchURL+"/confirm", opponent, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, tournament.ResultConfirmed, decode[tournament.Match](t, rr).Status)

	rr = do(t, server, "GET", base+"/standings", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rows := decode[[]tournament.StandingsRow](t, rr)
	require.Len(t, rows, 2)
	assert.Equal(t, m.PlayerA, rows[0].ParticipantID)
	assert.Equal(t, 3, rows[0].TournamentPoints)

	rr = do(t, server, "GET", base+"/rounds/1", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = do(t, server, "GET", base+"/rounds/2", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(t, server, "GET", base+"/rounds/first", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	t.Run("advance past the last round", func(t *testing.T) {
		rr := do(t, server, "POST", base+"/advance", org, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	rr = do(t, server, "POST", base+"/finish", org, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Len(t, server.pubsub.Sent(pubsub.EventTournamentFinished), 1)

	t.Run("override after finish refreezes standings", func(t *testing.T) {
		draw := tournament.Result{Winner: tournament.SideNone, A: tournament.SideScore{VictoryPoints: 9}, B: tournament.SideScore{VictoryPoints: 9}}
		rr := do(t, server, "PUT", matchURL+"/override", org, draw)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, tournament.ResultOrganizerSet, decode[tournament.Match](t, rr).Status)

		rr = do(t, server, "GET", base+"/standings", "", nil)
		for _, row := range decode[[]tournament.StandingsRow](t, rr) {
			assert.Equal(t, 1, row.TournamentPoints)
		}

		rr = do(t, server, "GET", matchURL+"/amendments", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		history := decode[[]tournament.Amendment](t, rr)
		require.Len(t, history, 1)
		assert.Equal(t, tournament.ResultConfirmed, history[0].PreviousStatus)
		assert.Equal(t, "org", history[0].AmendedBy)
	})

	t.Run("player cannot override", func(t *testing.T) {
		rr := do(t, server, "PUT", matchURL+"/override", reporter, result)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestNotFound(t *testing.T) {
	server, teardown := setupTestServer(t, notifier.NewMock())
	defer teardown()

	rr := do(t, server, "GET", "/tournaments/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, decode[handlers.ErrorResponse](t, rr).Error, "not found")

	rr = do(t, server, "GET", "/tournaments/missing/matches/m1/amendments", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPairingsGeneratedHandler(t *testing.T) {
	mockNotifier := notifier.NewMock()
	server, teardown := setupTestServer(t, mockNotifier)
	defer teardown()

	evt := tournament.PairingsGenerated{
		TournamentID:   "t1",
		TournamentName: "Spring Clash",
		Round:          2,
		Matches:        []tournament.Match{{ID: "m1", Round: 2, Table: 1, PlayerA: "A", PlayerB: "B"}},
	}

	t.Run("announces decoded event", func(t *testing.T) {
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, pushRequest(t, "/events/pairings-generated?dry_run=true", evt))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		require.Len(t, mockNotifier.SendPairingsCalls, 1)
		assert.Equal(t, 2, mockNotifier.SendPairingsCalls[0].Event.Round)
		assert.Equal(t, "B", mockNotifier.SendPairingsCalls[0].Event.Matches[0].PlayerB)
		assert.True(t, mockNotifier.SendPairingsCalls[0].DryRun)
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		body := `{"message":{"data":"!!!","messageId":"2"}}`
		req, err := http.NewRequest("POST", "/events/pairings-generated", strings.NewReader(body))
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("notifier failure is retried by pubsub", func(t *testing.T) {
		mockNotifier.SendPairingsFunc = func(tournament.PairingsGenerated, bool) error { return fmt.Errorf("slack down") }
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, pushRequest(t, "/events/pairings-generated", evt))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestTournamentFinishedHandler(t *testing.T) {
	mockNotifier := notifier.NewMock()
	server, teardown := setupTestServer(t, mockNotifier)
	defer teardown()

	evt := tournament.TournamentFinished{
		TournamentID:   "t1",
		TournamentName: "Spring Clash",
		Standings:      []tournament.StandingsRow{{ParticipantID: "A", Rank: 1, TournamentPoints: 9}},
	}
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, pushRequest(t, "/events/tournament-finished", evt))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, mockNotifier.SendFinalStandingsCalls, 1)
	assert.Equal(t, 9, mockNotifier.SendFinalStandingsCalls[0].Event.Standings[0].TournamentPoints)
	assert.False(t, mockNotifier.SendFinalStandingsCalls[0].DryRun)
}

func TestStandingsCommandHandler(t *testing.T) {
	mockNotifier := notifier.NewMock()
	mockNotifier.FormatStandingsResponseFunc = func(name string, rows []tournament.StandingsRow, participants []tournament.Participant) (any, error) {
		return slack.NewBlockMessage(slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", name, false, false), nil, nil)), nil
	}
	server, teardown := setupTestServer(t, mockNotifier)
	defer teardown()

	org := token(t, server, "org", session.RoleOrganizer)
	rr := do(t, server, "POST", "/tournaments", org, processor.CreateTournamentInput{Name: "Autumn Raid", GameSystem: tournament.GameSystemSaga, RoundCount: 2})
	require.Equal(t, http.StatusCreated, rr.Code)
	tour := decode[tournament.Tournament](t, rr)

	t.Run("handles found tournament", func(t *testing.T) {
		form := url.Values{}
		form.Set("text", tour.ID)
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, createSlackCommandRequest(t, "/slack/command/standings", form, testSlackSigningSecret))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Autumn Raid")
		assert.Len(t, mockNotifier.FormatStandingsCalls, 1)
	})

	t.Run("handles unknown tournament", func(t *testing.T) {
		form := url.Values{}
		form.Set("text", "missing")
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, createSlackCommandRequest(t, "/slack/command/standings", form, testSlackSigningSecret))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "No tournament with id missing.")
	})

	t.Run("requires a tournament id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, createSlackCommandRequest(t, "/slack/command/standings", url.Values{}, testSlackSigningSecret))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects bad signature", func(t *testing.T) {
		form := url.Values{}
		form.Set("text", tour.ID)
		rr := httptest.NewRecorder()
		server.ServeHTTP(rr, createSlackCommandRequest(t, "/slack/command/standings", form, "wrong-secret"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRateLimit(t *testing.T) {
	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	defer dbTeardown()

	cfg := config.Config{HTTP: config.HTTPConfig{RateLimitRPS: 1, RateLimitBurst: 1}}
	metricsSvc := metrics.NewMock()
	proc := processor.New(store.New(db), notifier.NewMock(), metricsSvc, nil, gamesystem.NewRegistry(standings.DefaultScoring()))
	server := NewServer(metricsSvc, http.NotFoundHandler(), cfg, proc, session.NewIssuer(testSessionSecret, time.Hour), nil)

	codes := make([]int, 0, 2)
	for range 2 {
		rr := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/health", nil)
		require.NoError(t, err)
		server.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)

	t.Run("zero rate disables limiting", func(t *testing.T) {
		unlimited := NewServer(metricsSvc, http.NotFoundHandler(), config.Config{HTTP: config.HTTPConfig{RateLimitRPS: 0, RateLimitBurst: 1}}, proc, session.NewIssuer(testSessionSecret, time.Hour), nil)
		for range 5 {
			rr := httptest.NewRecorder()
			req, err := http.NewRequest("GET", "/health", nil)
			require.NoError(t, err)
			unlimited.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusOK, rr.Code)
		}
	})
}
