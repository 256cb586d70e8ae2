//go:build !integration

package rest

import (
	"clanManager/business/deckusage"
	"clanManager/business/member"
	"clanManager/business/prediction"
	"clanManager/business/strikes"
	"clanManager/domain"
	"clanManager/internal/middleware"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockClanServices struct {
	mock.Mock
}

func (m *mockClanServices) EvaluateStrikes(ctx context.Context, clanTag string) ([]strikes.Evaluation, error) {
	args := m.Called(ctx, clanTag)
	return args.Get(0).([]strikes.Evaluation), args.Error(1)
}

func (m *mockClanServices) PredictOutcome(ctx context.Context, clanTag string, opts prediction.Options) ([]domain.PredictedOutcome, error) {
	args := m.Called(ctx, clanTag, opts)
	return args.Get(0).([]domain.PredictedOutcome), args.Error(1)
}

func (m *mockClanServices) RiverRaceStatus(ctx context.Context, clanTag string) ([]domain.RiverRaceStatus, error) {
	args := m.Called(ctx, clanTag)
	return args.Get(0).([]domain.RiverRaceStatus), args.Error(1)
}

func (m *mockClanServices) DecksReport(ctx context.Context, clanTag string) (deckusage.DecksReport, error) {
	args := m.Called(ctx, clanTag)
	return args.Get(0).(deckusage.DecksReport), args.Error(1)
}

func (m *mockClanServices) MedalsReport(ctx context.Context, clanTag string, threshold int) ([]deckusage.MemberMedals, error) {
	args := m.Called(ctx, clanTag, threshold)
	return args.Get(0).([]deckusage.MemberMedals), args.Error(1)
}

type mockDeckStats struct {
	mock.Mock
}

func (m *mockDeckStats) BestDecks(ctx context.Context, clanTag string, requiredMatches int) ([]domain.DeckStat, error) {
	args := m.Called(ctx, clanTag, requiredMatches)
	return args.Get(0).([]domain.DeckStat), args.Error(1)
}

func (m *mockDeckStats) SuggestWarDecks(ctx context.Context, clanTag string, requiredMatches int) ([]domain.DeckStat, error) {
	args := m.Called(ctx, clanTag, requiredMatches)
	return args.Get(0).([]domain.DeckStat), args.Error(1)
}

type mockMembers struct {
	mock.Mock
}

func (m *mockMembers) Register(ctx context.Context, reg member.Registration) (domain.User, error) {
	args := m.Called(ctx, reg)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockMembers) Strikes(ctx context.Context, tag string) (domain.StrikeChange, error) {
	args := m.Called(ctx, tag)
	return args.Get(0).(domain.StrikeChange), args.Error(1)
}

func (m *mockMembers) UpdateStrikes(ctx context.Context, tag string, delta int) (domain.StrikeChange, error) {
	args := m.Called(ctx, tag, delta)
	return args.Get(0).(domain.StrikeChange), args.Error(1)
}

func newServer(clans *mockClanServices, decks *mockDeckStats, members *mockMembers) *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator(validator.New())
	e.HTTPErrorHandler = middleware.ErrorHandler

	fakeAuth := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("discord_id", "5555")
			return next(c)
		}
	}

	clanHandler := NewClanHandler(clans, clans, clans)
	c := e.Group("/clans/:tag")
	c.GET("/strikes/evaluation", clanHandler.EvaluateStrikes)
	c.GET("/prediction", clanHandler.PredictOutcome)
	c.GET("/river-race/status", clanHandler.RiverRaceStatus)
	c.GET("/decks-report", clanHandler.DecksReport)
	c.GET("/medals-report", clanHandler.MedalsReport)

	deckHandler := NewDeckHandler(decks)
	e.GET("/decks/best", deckHandler.BestDecks)
	e.GET("/decks/war", deckHandler.SuggestWarDecks)

	memberHandler := NewMemberHandler(members, members)
	m := e.Group("/members", fakeAuth)
	m.POST("/register", memberHandler.Register)
	m.GET("/:tag/strikes", memberHandler.GetStrikes)
	m.POST("/:tag/strikes", memberHandler.AddStrike)
	m.DELETE("/:tag/strikes", memberHandler.RemoveStrike)
	return e
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestClanHandler_EvaluateStrikesNormalisesTag(t *testing.T) {
	clans := new(mockClanServices)
	e := newServer(clans, new(mockDeckStats), new(mockMembers))

	evaluations := []strikes.Evaluation{{Tag: "#QQ0", Name: "slacker", Determination: strikes.Determination{ShouldStrike: true, Actual: 4, Required: 12}}}
	clans.On("EvaluateStrikes", mock.Anything, "#P2Y9").Return(evaluations, nil).Twice()

	for _, target := range []string{"/clans/%23p2y9/strikes/evaluation", "/clans/P2Y9/strikes/evaluation"} {
		rec := serve(e, http.MethodGet, target, "")
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Contains(t, rec.Body.String(), `"should_strike":true`)
	}
	clans.AssertExpectations(t)
}

func TestClanHandler_InvalidTag(t *testing.T) {
	clans := new(mockClanServices)
	e := newServer(clans, new(mockDeckStats), new(mockMembers))

	rec := serve(e, http.MethodGet, "/clans/ABC/river-race/status", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	clans.AssertNotCalled(t, "RiverRaceStatus", mock.Anything, mock.Anything)
}

func TestClanHandler_UpstreamUnavailable(t *testing.T) {
	clans := new(mockClanServices)
	e := newServer(clans, new(mockDeckStats), new(mockMembers))

	clans.On("DecksReport", mock.Anything, "#P2Y9").
		Return(deckusage.DecksReport{}, fmt.Errorf("participants: %w", domain.ErrUpstreamUnavailable))

	rec := serve(e, http.MethodGet, "/clans/P2Y9/decks-report", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestClanHandler_PredictionOptions(t *testing.T) {
	clans := new(mockClanServices)
	e := newServer(clans, new(mockDeckStats), new(mockMembers))

	opts := prediction.Options{HistoricalWinRates: true}
	outcomes := []domain.PredictedOutcome{{Tag: "#P2Y9", PredictedScore: 21000}}
	clans.On("PredictOutcome", mock.Anything, "#P2Y9", opts).Return(outcomes, nil)

	rec := serve(e, http.MethodGet, "/clans/P2Y9/prediction?historical_win_rates=true", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"predicted_score":21000`)
	clans.AssertExpectations(t)
}

func TestClanHandler_MedalsReportThreshold(t *testing.T) {
	clans := new(mockClanServices)
	e := newServer(clans, new(mockDeckStats), new(mockMembers))

	clans.On("MedalsReport", mock.Anything, "#P2Y9", 1600).Return([]deckusage.MemberMedals{}, nil).Once()
	clans.On("MedalsReport", mock.Anything, "#P2Y9", 2000).Return([]deckusage.MemberMedals{}, nil).Once()

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/clans/P2Y9/medals-report", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/clans/P2Y9/medals-report?threshold=2000", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/clans/P2Y9/medals-report?threshold=-5", "").Code)
	clans.AssertExpectations(t)
}

func TestDeckHandler_Query(t *testing.T) {
	decks := new(mockDeckStats)
	e := newServer(new(mockClanServices), decks, new(mockMembers))

	stats := []domain.DeckStat{{Cards: []int{1, 2, 3, 4, 5, 6, 7, 8}, Wins: 9, Losses: 1}}
	decks.On("BestDecks", mock.Anything, "#2PP", 5).Return(stats, nil)
	decks.On("SuggestWarDecks", mock.Anything, "", 0).Return(stats, nil)

	rec := serve(e, http.MethodGet, "/decks/best?clan=%232pp&required_matches=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"wins":9`)

	rec = serve(e, http.MethodGet, "/decks/war", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodGet, "/decks/best?required_matches=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decks.AssertExpectations(t)
}

func TestMemberHandler_Register(t *testing.T) {
	members := new(mockMembers)
	e := newServer(new(mockClanServices), new(mockDeckStats), members)

	withDiscord := mock.MatchedBy(func(reg member.Registration) bool {
		return reg.Tag == "p2y9" && reg.DiscordID != nil && *reg.DiscordID == "5555" && reg.DiscordName == "chief"
	})
	members.On("Register", mock.Anything, withDiscord).Return(domain.User{ID: 1, Tag: "#P2Y9", Name: "Chief"}, nil).Once()

	rec := serve(e, http.MethodPost, "/members/register", `{"tag":"p2y9","discord_name":"chief"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tag":"#P2Y9"`)

	members.On("Register", mock.Anything, mock.Anything).Return(domain.User{}, domain.ErrAlreadyRegistered).Once()
	rec = serve(e, http.MethodPost, "/members/register", `{"tag":"p2y9"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(e, http.MethodPost, "/members/register", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	members.AssertExpectations(t)
}

func TestMemberHandler_Strikes(t *testing.T) {
	members := new(mockMembers)
	e := newServer(new(mockClanServices), new(mockDeckStats), members)

	members.On("Strikes", mock.Anything, "#P2Y9").Return(domain.StrikeChange{Tag: "#P2Y9", Previous: 1, Current: 1}, nil)
	members.On("UpdateStrikes", mock.Anything, "#P2Y9", 2).Return(domain.StrikeChange{Tag: "#P2Y9", Previous: 1, Current: 3}, nil)
	members.On("UpdateStrikes", mock.Anything, "#P2Y9", -1).Return(domain.StrikeChange{Tag: "#P2Y9", Previous: 3, Current: 2}, nil)
	members.On("UpdateStrikes", mock.Anything, "#QQ0", 1).Return(domain.StrikeChange{}, domain.ErrNotFound)

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/members/P2Y9/strikes", "").Code)

	rec := serve(e, http.MethodPost, "/members/P2Y9/strikes", `{"amount":2}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"current":3`)

	rec = serve(e, http.MethodDelete, "/members/P2Y9/strikes", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"current":2`)

	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodPost, "/members/QQ0/strikes", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/members/P2Y9/strikes", `{"amount":11}`).Code)
	members.AssertExpectations(t)
}
