package rest

import (
	"clanManager/business/member"
	"clanManager/domain"
	"clanManager/pkg/logger"
	"context"
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type DeckStatsService interface {
	BestDecks(ctx context.Context, clanTag string, requiredMatches int) ([]domain.DeckStat, error)
	SuggestWarDecks(ctx context.Context, clanTag string, requiredMatches int) ([]domain.DeckStat, error)
}

type DeckHandler struct {
	deckStatsService DeckStatsService
	timeout          time.Duration
}

func NewDeckHandler(deckStatsService DeckStatsService) *DeckHandler {
	return &DeckHandler{
		deckStatsService: deckStatsService,
		timeout:          30 * time.Second,
	}
}

type DeckQuery struct {
	Clan            string `query:"clan"`
	RequiredMatches int    `query:"required_matches" validate:"min=0,max=1000"`
}

func (h *DeckHandler) bind(c echo.Context) (string, int, error) {
	var query DeckQuery
	if err := c.Bind(&query); err != nil {
		return "", 0, echo.NewHTTPError(http.StatusBadRequest, "invalid deck query")
	}
	if err := c.Validate(&query); err != nil {
		return "", 0, err
	}

	if query.Clan == "" {
		return "", query.RequiredMatches, nil
	}
	tag, err := member.ProcessTag(query.Clan)
	if err != nil {
		return "", 0, err
	}
	return tag, query.RequiredMatches, nil
}

// BestDecks lists the best performing war decks, of one clan when ?clan= is set.
func (h *DeckHandler) BestDecks(c echo.Context) error {
	clanTag, required, err := h.bind(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	decks, err := h.deckStatsService.BestDecks(ctx, clanTag, required)
	if err != nil {
		logger.Error("Failed to get best decks", "clan", clanTag, "error", err)
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(decks))
}

func (h *DeckHandler) SuggestWarDecks(c echo.Context) error {
	clanTag, required, err := h.bind(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	decks, err := h.deckStatsService.SuggestWarDecks(ctx, clanTag, required)
	if err != nil {
		logger.Error("Failed to suggest war decks", "clan", clanTag, "error", err)
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(decks))
}
