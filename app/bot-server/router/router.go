package router

import (
	"clanManager/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupClanRoutes(api *echo.Group, handler *rest.ClanHandler, authRequired echo.MiddlewareFunc) {
	clans := api.Group("/clans/:tag", authRequired)

	clans.GET("/strikes/evaluation", handler.EvaluateStrikes)
	clans.GET("/prediction", handler.PredictOutcome)
	clans.GET("/river-race/status", handler.RiverRaceStatus)
	clans.GET("/decks-report", handler.DecksReport)
	clans.GET("/medals-report", handler.MedalsReport)
}

func SetupDeckRoutes(api *echo.Group, handler *rest.DeckHandler) {
	decks := api.Group("/decks")

	decks.GET("/best", handler.BestDecks)
	decks.GET("/war", handler.SuggestWarDecks)
}

func SetupMemberRoutes(api *echo.Group, handler *rest.MemberHandler, authRequired echo.MiddlewareFunc, leaderOnly echo.MiddlewareFunc) {
	members := api.Group("/members", authRequired)

	members.POST("/register", handler.Register)
	members.GET("/:tag/strikes", handler.GetStrikes)
	members.POST("/:tag/strikes", handler.AddStrike, leaderOnly)
	members.DELETE("/:tag/strikes", handler.RemoveStrike, leaderOnly)
}
