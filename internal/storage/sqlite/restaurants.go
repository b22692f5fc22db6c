package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/mmynk/platepick/internal/errs"
	"github.com/mmynk/platepick/internal/models"
)

const restaurantColumns = "id, place_id, name, address, price_tier, primary_type, types, " +
	"price_currency, price_range_start, price_range_end, created_by, created_at"

// UpsertRestaurant inserts a restaurant. When a row with the same place ID
// already exists, its lookup fields are refreshed and the existing ID is
// kept.
func (s *SQLiteStore) UpsertRestaurant(ctx context.Context, r *models.Restaurant) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}

	types, err := json.Marshal(nonNil(r.Types))
	if err != nil {
		return fmt.Errorf("failed to encode restaurant types: %w", err)
	}

	var tier sql.NullInt64
	if r.PriceTier.Known() {
		tier = sql.NullInt64{Int64: int64(r.PriceTier), Valid: true}
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO restaurants (`+restaurantColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(place_id) DO UPDATE SET
		     name = excluded.name,
		     address = excluded.address,
		     price_tier = excluded.price_tier,
		     primary_type = excluded.primary_type,
		     types = excluded.types,
		     price_currency = excluded.price_currency,
		     price_range_start = excluded.price_range_start,
		     price_range_end = excluded.price_range_end
		 RETURNING `+restaurantColumns,
		r.ID, nullString(r.PlaceID), r.Name, nullString(r.Address), tier,
		nullString(r.PrimaryType), string(types),
		nullString(r.PriceCurrency), nullFloat(r.PriceRangeStart), nullFloat(r.PriceRangeEnd),
		nullString(r.CreatedBy), r.CreatedAt,
	)

	stored, err := scanRestaurant(row)
	if err != nil {
		return fmt.Errorf("failed to upsert restaurant: %w", classify(err))
	}
	*r = *stored
	return nil
}

// GetRestaurant retrieves a restaurant by ID.
func (s *SQLiteStore) GetRestaurant(ctx context.Context, restaurantID string) (*models.Restaurant, error) {
	r, err := scanRestaurant(s.db.QueryRowContext(ctx,
		"SELECT "+restaurantColumns+" FROM restaurants WHERE id = ?", restaurantID))
	if err == sql.ErrNoRows {
		return nil, errs.Errorf(errs.NotFound, "restaurant not found: %s", restaurantID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	return r, nil
}

// ListRestaurants retrieves the whole catalog ordered by name.
func (s *SQLiteStore) ListRestaurants(ctx context.Context) ([]*models.Restaurant, error) {
	return s.queryRestaurants(ctx,
		"SELECT "+restaurantColumns+" FROM restaurants ORDER BY name COLLATE NOCASE, id")
}

// ListCandidateRestaurants returns every catalog entry; restaurants are
// shared, so the group does not narrow the set.
func (s *SQLiteStore) ListCandidateRestaurants(ctx context.Context, groupID string) ([]*models.Restaurant, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", groupID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, errs.Errorf(errs.NotFound, "group not found: %s", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check group existence: %w", err)
	}

	return s.queryRestaurants(ctx,
		"SELECT "+restaurantColumns+" FROM restaurants ORDER BY id")
}

func (s *SQLiteStore) queryRestaurants(ctx context.Context, query string, args ...any) ([]*models.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	defer rows.Close()

	var restaurants []*models.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan restaurant: %w", err)
		}
		restaurants = append(restaurants, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate restaurants: %w", err)
	}

	return restaurants, nil
}

func scanRestaurant(row rowScanner) (*models.Restaurant, error) {
	var (
		r                                              models.Restaurant
		placeID, address, primary, currency, createdBy sql.NullString
		tier                                           sql.NullInt64
		rangeStart, rangeEnd                           sql.NullFloat64
		types                                          string
	)
	err := row.Scan(&r.ID, &placeID, &r.Name, &address, &tier, &primary, &types,
		&currency, &rangeStart, &rangeEnd, &createdBy, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.PlaceID = placeID.String
	r.Address = address.String
	r.PrimaryType = primary.String
	r.CreatedBy = createdBy.String
	r.PriceCurrency = currency.String
	if rangeStart.Valid {
		r.PriceRangeStart = &rangeStart.Float64
	}
	if rangeEnd.Valid {
		r.PriceRangeEnd = &rangeEnd.Float64
	}
	r.PriceTier = models.PriceUnknown
	if tier.Valid {
		r.PriceTier = models.PriceTier(tier.Int64)
	}
	if err := json.Unmarshal([]byte(types), &r.Types); err != nil {
		return nil, fmt.Errorf("failed to decode restaurant types: %w", err)
	}

	return &r, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
