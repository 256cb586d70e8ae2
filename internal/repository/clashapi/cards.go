package clashapi

import (
	"clanManager/domain"
	"context"
	"fmt"
)

// Mirror has no fixed cost. It is valued at 1.5 for elixir averages.
const (
	mirrorID     = 28000006
	mirrorElixir = 1.5
)

func (r *ClashAPIRepository) Cards(ctx context.Context) ([]domain.Card, error) {
	var raw apiCards
	if err := r.get(ctx, "cards", "/cards", &raw); err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}

	cards := make([]domain.Card, 0, len(raw.Items))
	for _, c := range raw.Items {
		card := domain.Card{
			ID:       c.ID,
			Name:     c.Name,
			Rarity:   c.Rarity,
			MaxLevel: c.MaxLevel,
		}
		switch {
		case c.ID == mirrorID:
			card.Elixir = mirrorElixir
		case c.ElixirCost != nil:
			card.Elixir = float64(*c.ElixirCost)
		}
		cards = append(cards, card)
	}
	return cards, nil
}
