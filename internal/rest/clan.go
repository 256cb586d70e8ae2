package rest

import (
	"clanManager/business/deckusage"
	"clanManager/business/member"
	"clanManager/business/prediction"
	"clanManager/business/strikes"
	"clanManager/domain"
	"clanManager/pkg/logger"
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type StrikeEvaluator interface {
	EvaluateStrikes(ctx context.Context, clanTag string) ([]strikes.Evaluation, error)
}

type PredictionService interface {
	PredictOutcome(ctx context.Context, clanTag string, opts prediction.Options) ([]domain.PredictedOutcome, error)
}

type RiverRaceService interface {
	RiverRaceStatus(ctx context.Context, clanTag string) ([]domain.RiverRaceStatus, error)
	DecksReport(ctx context.Context, clanTag string) (deckusage.DecksReport, error)
	MedalsReport(ctx context.Context, clanTag string, threshold int) ([]deckusage.MemberMedals, error)
}

type ClanHandler struct {
	strikeEvaluator   StrikeEvaluator
	predictionService PredictionService
	riverRaceService  RiverRaceService
	timeout           time.Duration
}

func NewClanHandler(strikeEvaluator StrikeEvaluator, predictionService PredictionService, riverRaceService RiverRaceService) *ClanHandler {
	return &ClanHandler{
		strikeEvaluator:   strikeEvaluator,
		predictionService: predictionService,
		riverRaceService:  riverRaceService,
		timeout:           30 * time.Second,
	}
}

type MedalsReportQuery struct {
	Threshold int `query:"threshold" validate:"min=0,max=3600"`
}

// tagParam reads and normalises a tag path parameter. Clients may send the
// tag with an encoded '#' or without it.
func tagParam(c echo.Context, name string) (string, error) {
	raw, err := url.PathUnescape(c.Param(name))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid tag")
	}
	return member.ProcessTag(raw)
}

func (h *ClanHandler) EvaluateStrikes(c echo.Context) error {
	tag, err := tagParam(c, "tag")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	evaluations, err := h.strikeEvaluator.EvaluateStrikes(ctx, tag)
	if err != nil {
		logger.Error("Failed to evaluate strikes", "clan", tag, "error", err)
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(evaluations))
}

func (h *ClanHandler) PredictOutcome(c echo.Context) error {
	tag, err := tagParam(c, "tag")
	if err != nil {
		return err
	}

	var opts prediction.Options
	if err := c.Bind(&opts); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prediction options")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	outcomes, err := h.predictionService.PredictOutcome(ctx, tag, opts)
	if err != nil {
		logger.Error("Failed to predict outcome", "clan", tag, "error", err)
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(outcomes))
}

func (h *ClanHandler) RiverRaceStatus(c echo.Context) error {
	tag, err := tagParam(c, "tag")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	status, err := h.riverRaceService.RiverRaceStatus(ctx, tag)
	if err != nil {
		logger.Error("Failed to get river race status", "clan", tag, "error", err)
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(status))
}

func (h *ClanHandler) DecksReport(c echo.Context) error {
	tag, err := tagParam(c, "tag")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	report, err := h.riverRaceService.DecksReport(ctx, tag)
	if err != nil {
		logger.Error("Failed to build decks report", "clan", tag, "error", err)
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(report))
}

func (h *ClanHandler) MedalsReport(c echo.Context) error {
	tag, err := tagParam(c, "tag")
	if err != nil {
		return err
	}

	query := MedalsReportQuery{Threshold: 1600}
	if err := c.Bind(&query); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid threshold")
	}
	if err := c.Validate(&query); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	report, err := h.riverRaceService.MedalsReport(ctx, tag, query.Threshold)
	if err != nil {
		logger.Error("Failed to build medals report", "clan", tag, "error", err)
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(report))
}
