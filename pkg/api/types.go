package api

// User is a registered account as seen by other users.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	CreatedAt   int64  `json:"createdAt"`
}

// Member is a group member.
type Member struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// Group is a set of people who eat together.
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	CreatedBy string   `json:"createdBy"`
	Members   []Member `json:"members"`
	CreatedAt int64    `json:"createdAt"`
}

// Invite is a token that lets its holder join a group.
type Invite struct {
	Token     string `json:"token"`
	GroupID   string `json:"groupId"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Restaurant is a catalog entry. PriceTier is omitted when unknown.
type Restaurant struct {
	ID          string   `json:"id"`
	PlaceID     string   `json:"placeId,omitempty"`
	Name        string   `json:"name"`
	Address     string   `json:"address,omitempty"`
	PriceTier   *int     `json:"priceTier,omitempty"`
	PrimaryType string   `json:"primaryType,omitempty"`
	Types       []string `json:"types,omitempty"`

	// Typical per-person spend, for display.
	PriceCurrency   string   `json:"priceCurrency,omitempty"`
	PriceRangeStart *float64 `json:"priceRangeStart,omitempty"`
	PriceRangeEnd   *float64 `json:"priceRangeEnd,omitempty"`
}

// PlaceSuggestion is one autocomplete prediction.
type PlaceSuggestion struct {
	PlaceID string `json:"placeId"`
	Text    string `json:"text"`
}

// Rating is the caller's rating of a restaurant. Overall and Nutrition are
// the stored values and are omitted when unrated; the effective values are
// the ones scoring uses, with defaults applied.
type Rating struct {
	RestaurantID       string `json:"restaurantId"`
	Overall            *int   `json:"overall,omitempty"`
	Nutrition          *int   `json:"nutrition,omitempty"`
	EffectiveOverall   int    `json:"effectiveOverall"`
	EffectiveNutrition int    `json:"effectiveNutrition"`
	UpdatedAt          int64  `json:"updatedAt"`
}

// Event is one meal decision of a group.
type Event struct {
	ID                 string   `json:"id"`
	GroupID            string   `json:"groupId"`
	CreatedBy          string   `json:"createdBy"`
	Participants       []string `json:"participants"`
	ChosenRestaurantID string   `json:"chosenRestaurantId,omitempty"`
	CreatedAt          int64    `json:"createdAt"`
	DecidedAt          int64    `json:"decidedAt,omitempty"`
}

// Visit is a group's committed meal at a restaurant.
type Visit struct {
	ID           string `json:"id"`
	EventID      string `json:"eventId"`
	RestaurantID string `json:"restaurantId"`
	VisitedAt    int64  `json:"visitedAt"`
}

// Recommendation is one ranked restaurant with its sub-scores.
type Recommendation struct {
	RestaurantID string  `json:"restaurantId"`
	Name         string  `json:"name"`
	Address      string  `json:"address,omitempty"`
	PriceTier    *int    `json:"priceTier,omitempty"`
	OverallAvg   float64 `json:"overallAvg"`
	NutritionAvg float64 `json:"nutritionAvg"`
	CostScore    float64 `json:"costScore"`
	RecencyScore float64 `json:"recencyScore"`
	FinalScore   float64 `json:"finalScore"`
}
