package repository

import (
	"context"

	"homeboard/internal/database"
	"homeboard/internal/models"
)

type TokenRepository struct {
	db *database.DB
}

func NewTokenRepository(db *database.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Register upserts a device token. Re-registering an existing token moves it
// to the new owner, matching how browsers re-issue the same token after a
// permission reset.
func (r *TokenRepository) Register(ctx context.Context, token *models.DeviceToken) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO device_tokens (token, owner_id, device_name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (token) DO UPDATE SET owner_id = $2, device_name = $3
		 RETURNING created_at`,
		token.Token, token.OwnerID, token.DeviceName,
	).Scan(&token.CreatedAt)
}

func (r *TokenRepository) Unregister(ctx context.Context, token string) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM device_tokens WHERE token = $1`,
		token,
	)
	return err
}

// TokensForOwner returns every registered token for a user, in registration
// order. Zero tokens is a normal answer, not an error.
func (r *TokenRepository) TokensForOwner(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT token FROM device_tokens WHERE owner_id = $1 ORDER BY created_at ASC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}
