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

type MemberService interface {
	Register(ctx context.Context, reg member.Registration) (domain.User, error)
}

type StrikesService interface {
	Strikes(ctx context.Context, tag string) (domain.StrikeChange, error)
	UpdateStrikes(ctx context.Context, tag string, delta int) (domain.StrikeChange, error)
}

type MemberHandler struct {
	memberService  MemberService
	strikesService StrikesService
	timeout        time.Duration
}

func NewMemberHandler(memberService MemberService, strikesService StrikesService) *MemberHandler {
	return &MemberHandler{
		memberService:  memberService,
		strikesService: strikesService,
		timeout:        10 * time.Second,
	}
}

type RegisterMemberRequest struct {
	Tag         string `json:"tag" validate:"required"`
	DiscordName string `json:"discord_name" validate:"max=64"`
}

type StrikeRequest struct {
	Amount int `json:"amount" validate:"omitempty,min=1,max=10"`
}

// Register links the caller's Discord account to a player tag.
func (h *MemberHandler) Register(c echo.Context) error {
	var req RegisterMemberRequest
	if err := c.Bind(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	reg := member.Registration{Tag: req.Tag, DiscordName: req.DiscordName}
	if discordID, ok := c.Get("discord_id").(string); ok && discordID != "" {
		reg.DiscordID = &discordID
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	user, err := h.memberService.Register(ctx, reg)
	if err != nil {
		logger.Warn("Failed to register member", "tag", req.Tag, "error", err)
		return err
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(user))
}

func (h *MemberHandler) GetStrikes(c echo.Context) error {
	tag, err := tagParam(c, "tag")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	strikes, err := h.strikesService.Strikes(ctx, tag)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(strikes))
}

func (h *MemberHandler) AddStrike(c echo.Context) error {
	return h.updateStrikes(c, 1)
}

func (h *MemberHandler) RemoveStrike(c echo.Context) error {
	return h.updateStrikes(c, -1)
}

func (h *MemberHandler) updateStrikes(c echo.Context, sign int) error {
	tag, err := tagParam(c, "tag")
	if err != nil {
		return err
	}

	req := StrikeRequest{}
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Amount == 0 {
		req.Amount = 1
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	change, err := h.strikesService.UpdateStrikes(ctx, tag, sign*req.Amount)
	if err != nil {
		logger.Error("Failed to update strikes", "tag", tag, "error", err)
		return err
	}

	logger.Info("Strikes updated", "tag", tag, "previous", change.Previous, "current", change.Current, "by", c.Get("discord_id"))
	return c.JSON(http.StatusOK, fres.Response.StatusOK(change))
}
