package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"homeboard/internal/database"
	"homeboard/internal/models"
)

type ItemRepository struct {
	db *database.DB
}

func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, owner_id, kind, title, description, responsible, anchor_time,
	 lead_time, recurrence, next_trigger_at, status, created_at, updated_at`

// Create inserts a new item with its initial trigger derived from the anchor
// time and lead offset, in the kind's pending status. Anything created here
// is immediately eligible for scanning once the trigger elapses.
func (r *ItemRepository) Create(ctx context.Context, item *models.ReminderItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.LeadTime == "" {
		item.LeadTime = models.LeadNone
	}
	if item.Recurrence == "" {
		item.Recurrence = models.RecurNone
	}
	item.Status = item.Kind.PendingStatus()
	trigger := models.InitialTrigger(item.AnchorTime, item.LeadTime)
	item.NextTriggerAt = &trigger

	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO reminder_items (id, owner_id, kind, title, description, responsible,
		 anchor_time, lead_time, recurrence, next_trigger_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at, updated_at`,
		item.ID, item.OwnerID, item.Kind, item.Title, item.Description, item.Responsible,
		item.AnchorTime, item.LeadTime, item.Recurrence, item.NextTriggerAt, item.Status,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (*models.ReminderItem, error) {
	item := &models.ReminderItem{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM reminder_items WHERE id = $1`,
		id,
	).Scan(&item.ID, &item.OwnerID, &item.Kind, &item.Title, &item.Description,
		&item.Responsible, &item.AnchorTime, &item.LeadTime, &item.Recurrence,
		&item.NextTriggerAt, &item.Status, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *ItemRepository) GetByOwner(ctx context.Context, ownerID string) ([]*models.ReminderItem, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+itemColumns+` FROM reminder_items WHERE owner_id = $1
		 ORDER BY anchor_time ASC NULLS LAST`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM reminder_items WHERE id = $1`,
		id,
	)
	return err
}

// ScanDue returns up to limit items of the given kind whose trigger has
// elapsed and that are still in the kind's pending status.
func (r *ItemRepository) ScanDue(ctx context.Context, kind models.Kind, now time.Time, limit int) ([]*models.ReminderItem, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+itemColumns+` FROM reminder_items
		 WHERE kind = $1 AND status = $2
		 AND next_trigger_at IS NOT NULL AND next_trigger_at <= $3
		 ORDER BY next_trigger_at ASC
		 LIMIT $4`,
		kind, kind.PendingStatus(), now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

// CommitMutations applies a run's status transitions as one transaction. All
// of them land or none do; a failure leaves every item still due for the next
// sweep.
func (r *ItemRepository) CommitMutations(ctx context.Context, muts []models.ItemMutation) error {
	if len(muts) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, mut := range muts {
		batch.Queue(
			`UPDATE reminder_items SET status = $1, next_trigger_at = $2, updated_at = now()
			 WHERE id = $3`,
			mut.Status, mut.NextTriggerAt, mut.ID,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range muts {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to apply mutation: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	return tx.Commit(ctx)
}

func scanItems(rows pgx.Rows) ([]*models.ReminderItem, error) {
	var items []*models.ReminderItem
	for rows.Next() {
		item := &models.ReminderItem{}
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Kind, &item.Title,
			&item.Description, &item.Responsible, &item.AnchorTime, &item.LeadTime,
			&item.Recurrence, &item.NextTriggerAt, &item.Status,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
