package service

import (
	"github.com/mmynk/platepick/internal/models"
	"github.com/mmynk/platepick/internal/recommend"
	"github.com/mmynk/platepick/internal/scoring"
	"github.com/mmynk/platepick/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

// toAPIGroup converts a group; names maps member IDs to display names.
func toAPIGroup(g *models.Group, names map[string]*models.User) *api.Group {
	members := make([]api.Member, 0, len(g.Members))
	for _, id := range g.Members {
		m := api.Member{UserID: id}
		if u, ok := names[id]; ok {
			m.DisplayName = u.DisplayName
		}
		members = append(members, m)
	}
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func priceTierPtr(t models.PriceTier) *int {
	if !t.Known() {
		return nil
	}
	v := int(t)
	return &v
}

func toAPIRestaurant(r *models.Restaurant) *api.Restaurant {
	return &api.Restaurant{
		ID:          r.ID,
		PlaceID:     r.PlaceID,
		Name:        r.Name,
		Address:     r.Address,
		PriceTier:   priceTierPtr(r.PriceTier),
		PrimaryType: r.PrimaryType,
		Types:       r.Types,

		PriceCurrency:   r.PriceCurrency,
		PriceRangeStart: r.PriceRangeStart,
		PriceRangeEnd:   r.PriceRangeEnd,
	}
}

func toAPIRating(r *models.Rating, d scoring.Defaults) *api.Rating {
	return &api.Rating{
		RestaurantID:       r.RestaurantID,
		Overall:            r.Overall,
		Nutrition:          r.Nutrition,
		EffectiveOverall:   d.OverallOr(r.Overall),
		EffectiveNutrition: d.NutritionOr(r.Nutrition),
		UpdatedAt:          r.UpdatedAt,
	}
}

func toAPIEvent(e *models.Event) *api.Event {
	return &api.Event{
		ID:                 e.ID,
		GroupID:            e.GroupID,
		CreatedBy:          e.CreatedBy,
		Participants:       e.Participants,
		ChosenRestaurantID: e.ChosenRestaurantID,
		CreatedAt:          e.CreatedAt,
		DecidedAt:          e.DecidedAt,
	}
}

func toAPIVisit(v *models.Visit) *api.Visit {
	return &api.Visit{
		ID:           v.ID,
		EventID:      v.EventID,
		RestaurantID: v.RestaurantID,
		VisitedAt:    v.VisitedAt,
	}
}

func toAPIRecommendation(r recommend.Recommendation) *api.Recommendation {
	return &api.Recommendation{
		RestaurantID: r.RestaurantID,
		Name:         r.Name,
		Address:      r.Address,
		PriceTier:    priceTierPtr(r.PriceTier),
		OverallAvg:   r.OverallAvg,
		NutritionAvg: r.NutritionAvg,
		CostScore:    r.CostScore,
		RecencyScore: r.RecencyScore,
		FinalScore:   r.FinalScore,
	}
}
