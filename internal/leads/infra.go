package leads

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) Repo {
	return &repo{db: db}
}

// Создание сессии лениво, на первой записи. ON CONFLICT вместо
// update-then-insert: конкурентный первый контакт не плодит строки.
// Статус при конфликте не трогаем — им управляет SetStatus.
const appendTurnsQuery = `
	INSERT INTO leads_sessions (user_id, status, chat_history, last_update)
	VALUES ($1, 'AI_ACTIVE', $2::jsonb, NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET chat_history = leads_sessions.chat_history || EXCLUDED.chat_history,
	    last_update  = NOW()
`

func (r *repo) GetHistory(ctx context.Context, userID int64) ([]Turn, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT chat_history
		FROM leads_sessions
		WHERE user_id = $1
	`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var history []Turn
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("decode chat_history: %w", err)
	}
	return history, nil
}

func (r *repo) AppendTurn(ctx context.Context, userID int64, turn Turn) error {
	entry, err := json.Marshal([]Turn{turn})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, appendTurnsQuery, userID, entry)
	return err
}

func (r *repo) SetStatus(ctx context.Context, userID int64, status Status) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE leads_sessions
		SET status = $1, last_update = NOW()
		WHERE user_id = $2
	`, string(status), userID)
	return err
}

// RecordExchange — реплики и статус одного сообщения пишутся в одной
// транзакции: статус не может отстать от транскрипта.
func (r *repo) RecordExchange(ctx context.Context, userID int64, turns []Turn, status Status) error {
	if len(turns) == 0 {
		return errors.New("leads: empty exchange")
	}

	entries, err := json.Marshal(turns)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, appendTurnsQuery, userID, entries); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE leads_sessions
		SET status = $1
		WHERE user_id = $2
	`, string(status), userID); err != nil {
		return err
	}

	return tx.Commit()
}
