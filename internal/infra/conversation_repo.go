package infra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

type conversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) ports.ConversationStore {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) Create(ctx context.Context, c ports.Conversation) (*ports.Conversation, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO conversations (id, user_id, language, title, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, language, title, created_at
	`, c.ID, c.OwnerID, c.Language, c.Title, c.CreatedAt).Scan(
		&c.ID, &c.OwnerID, &c.Language, &c.Title, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *conversationRepo) Get(ctx context.Context, id string) (*ports.Conversation, error) {
	var c ports.Conversation
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, language, title, created_at
		FROM conversations
		WHERE id = $1
	`, id).Scan(&c.ID, &c.OwnerID, &c.Language, &c.Title, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) || isInvalidUUID(err) {
		return nil, ports.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *conversationRepo) ListByOwner(ctx context.Context, ownerID string) ([]ports.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, language, title, created_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.Conversation
	for rows.Next() {
		var c ports.Conversation
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Language, &c.Title, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete — сначала реплики, потом беседа, в одной транзакции
func (r *conversationRepo) Delete(ctx context.Context, id, ownerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM interactions WHERE conversation_id = $1`, id); err != nil {
		if isInvalidUUID(err) {
			return ports.ErrNoRows
		}
		return err
	}

	// чужая или отсутствующая беседа → откат, реплики остаются
	res, err := tx.ExecContext(ctx, `
		DELETE FROM conversations WHERE id = $1 AND user_id = $2
	`, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNoRows
	}

	return tx.Commit()
}
