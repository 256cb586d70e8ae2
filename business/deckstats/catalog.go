package deckstats

import (
	"clanManager/domain"
	"clanManager/pkg/logger"
	"context"
	_ "embed"
	"encoding/json"
	"sync"
	"time"
)

// Elixir costs are not part of every card in the game API, the embedded
// table fills the gaps.
//
//go:embed cards.json
var staticCards []byte

const catalogTTL = 24 * time.Hour

// CardSource contract interface
type CardSource interface {
	Cards(ctx context.Context) ([]domain.Card, error)
}

// CardCatalog caches the cards of the game. It is refreshed from the source
// on read once the cached copy is a day old. Until the first successful
// refresh the static table is served.
type CardCatalog struct {
	source CardSource
	now    func() time.Time

	mu        sync.Mutex
	static    map[int]domain.Card
	cards     map[int]domain.Card
	refreshed time.Time
}

func NewCardCatalog(source CardSource, now func() time.Time) (*CardCatalog, error) {
	var list []domain.Card
	if err := json.Unmarshal(staticCards, &list); err != nil {
		return nil, err
	}

	static := make(map[int]domain.Card, len(list))
	for _, c := range list {
		static[c.ID] = c
	}

	if now == nil {
		now = time.Now
	}
	return &CardCatalog{source: source, now: now, static: static, cards: static}, nil
}

func (c *CardCatalog) stale(now time.Time) bool {
	return c.refreshed.IsZero() || now.Sub(c.refreshed) >= catalogTTL
}

// Cards returns every known card by id.
func (c *CardCatalog) Cards(ctx context.Context) map[int]domain.Card {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.source == nil || !c.stale(now) {
		return c.cards
	}

	fetched, err := c.source.Cards(ctx)
	if err != nil {
		logger.Warn("Failed to refresh card catalog", "error", err)
		return c.cards
	}

	cards := make(map[int]domain.Card, len(fetched))
	for _, card := range fetched {
		if card.Elixir == 0 {
			card.Elixir = c.static[card.ID].Elixir
		}
		cards[card.ID] = card
	}
	c.cards = cards
	c.refreshed = now

	logger.Info("Card catalog refreshed", "cards", len(cards))
	return c.cards
}

func (c *CardCatalog) lastRefreshed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshed
}
