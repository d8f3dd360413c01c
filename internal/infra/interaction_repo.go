package infra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

const (
	pqForeignKeyViolation = "23503"
	pqInvalidText         = "22P02"
)

type interactionRepo struct {
	db *sql.DB
}

func NewInteractionRepo(db *sql.DB) ports.InteractionStore {
	return &interactionRepo{db: db}
}

// Create — один INSERT ... RETURNING: строка либо есть целиком, либо её нет
func (r *interactionRepo) Create(ctx context.Context, i ports.Interaction) (*ports.Interaction, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO interactions (id, conversation_id, message, sender, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, conversation_id, message, sender, created_at
	`, i.ID, i.ConversationID, i.Message, string(i.Sender), i.CreatedAt).Scan(
		&i.ID, &i.ConversationID, &i.Message, &i.Sender, &i.CreatedAt,
	)
	if hasCode(err, pqForeignKeyViolation) || isInvalidUUID(err) {
		return nil, ports.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *interactionRepo) Get(ctx context.Context, id string) (*ports.Interaction, error) {
	var i ports.Interaction
	err := r.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, message, sender, created_at
		FROM interactions
		WHERE id = $1
	`, id).Scan(&i.ID, &i.ConversationID, &i.Message, &i.Sender, &i.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) || isInvalidUUID(err) {
		return nil, ports.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *interactionRepo) UpdateMessage(ctx context.Context, id, message string) (*ports.Interaction, error) {
	var i ports.Interaction
	err := r.db.QueryRowContext(ctx, `
		UPDATE interactions SET message = $2
		WHERE id = $1
		RETURNING id, conversation_id, message, sender, created_at
	`, id, message).Scan(&i.ID, &i.ConversationID, &i.Message, &i.Sender, &i.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) || isInvalidUUID(err) {
		return nil, ports.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *interactionRepo) ListByConversation(ctx context.Context, conversationID string) ([]ports.Interaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, conversation_id, message, sender, created_at
		FROM interactions
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`, conversationID)
	if isInvalidUUID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.Interaction
	for rows.Next() {
		var i ports.Interaction
		if err := rows.Scan(&i.ID, &i.ConversationID, &i.Message, &i.Sender, &i.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

// кривой uuid в запросе — то же, что отсутствующая запись
func isInvalidUUID(err error) bool {
	return hasCode(err, pqInvalidText)
}
