package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmynk/platepick/internal/models"
)

// UpsertRating inserts a rating or overwrites the user's previous rating of
// the same restaurant. No history is kept.
func (s *SQLiteStore) UpsertRating(ctx context.Context, rating *models.Rating) error {
	if rating.UpdatedAt == 0 {
		rating.UpdatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ratings (user_id, restaurant_id, overall, nutrition, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, restaurant_id) DO UPDATE SET
		     overall = excluded.overall,
		     nutrition = excluded.nutrition,
		     updated_at = excluded.updated_at`,
		rating.UserID, rating.RestaurantID, nullInt(rating.Overall), nullInt(rating.Nutrition), rating.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", classify(err))
	}
	return nil
}

// GetRatings returns the stored ratings of userIDs for one restaurant.
func (s *SQLiteStore) GetRatings(ctx context.Context, userIDs []string, restaurantID string) ([]*models.Rating, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	args := append([]any{restaurantID}, anyArgs(userIDs)...)
	return s.queryRatings(ctx,
		`SELECT user_id, restaurant_id, overall, nutrition, updated_at
		 FROM ratings
		 WHERE restaurant_id = ? AND user_id IN (`+placeholders(len(userIDs))+`)
		 ORDER BY user_id`,
		args...,
	)
}

// ListRatingsByUser returns every rating the user has stored.
func (s *SQLiteStore) ListRatingsByUser(ctx context.Context, userID string) ([]*models.Rating, error) {
	return s.queryRatings(ctx,
		`SELECT user_id, restaurant_id, overall, nutrition, updated_at
		 FROM ratings WHERE user_id = ? ORDER BY restaurant_id`,
		userID,
	)
}

func (s *SQLiteStore) queryRatings(ctx context.Context, query string, args ...any) ([]*models.Rating, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get ratings: %w", err)
	}
	defer rows.Close()

	var ratings []*models.Rating
	for rows.Next() {
		var (
			r                  models.Rating
			overall, nutrition sql.NullInt64
		)
		if err := rows.Scan(&r.UserID, &r.RestaurantID, &overall, &nutrition, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		r.Overall = intFromNull(overall)
		r.Nutrition = intFromNull(nutrition)
		ratings = append(ratings, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}

	return ratings, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
