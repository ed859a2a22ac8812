package mysql

import (
	"context"
	"time"

	"github.com/answerdesk/answerdesk/store"
)

func (d *DB) CreateTurn(ctx context.Context, create *store.Turn) error {
	expires := int64(0)
	if d.ttl > 0 {
		expires = time.Now().Add(d.ttl).Unix()
	}
	stmt := "INSERT INTO `conversation_turn` (`id`, `conversation_id`, `role`, `content`, `created_ts`, `expires_ts`) VALUES (?, ?, ?, ?, ?, ?)"
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID, create.ConversationID, string(create.Role), create.Content, create.CreatedTs, expires,
	); err != nil {
		return err
	}
	_, err := d.db.ExecContext(ctx,
		"DELETE FROM `conversation_turn` WHERE `expires_ts` > 0 AND `expires_ts` < ?", time.Now().Unix())
	return err
}

func (d *DB) ListTurns(ctx context.Context, find *store.FindTurn) ([]*store.Turn, error) {
	query := `SELECT id, conversation_id, role, content, created_ts
	          FROM conversation_turn
	          WHERE conversation_id = ? AND (expires_ts = 0 OR expires_ts >= ?)
	          ORDER BY seq DESC`
	args := []any{find.ConversationID, time.Now().Unix()}
	if find.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, find.Limit)
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.Turn
	for rows.Next() {
		t := &store.Turn{}
		var role string
		if err := rows.Scan(&t.ID, &t.ConversationID, &role, &t.Content, &t.CreatedTs); err != nil {
			return nil, err
		}
		t.Role = store.Role(role)
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

func (d *DB) TrimTurns(ctx context.Context, conversationID string, keep int) error {
	if keep <= 0 {
		return nil
	}
	// MySQL cannot delete from a table referenced in a subquery unless it
	// is wrapped in a derived table.
	stmt := "DELETE FROM `conversation_turn` WHERE `conversation_id` = ? AND `seq` < COALESCE(" +
		"(SELECT MIN(`seq`) FROM (SELECT `seq` FROM `conversation_turn` WHERE `conversation_id` = ? ORDER BY `seq` DESC LIMIT ?) AS kept), 0)"
	_, err := d.db.ExecContext(ctx, stmt, conversationID, conversationID, keep)
	return err
}

func (d *DB) DeleteTurns(ctx context.Context, conversationID string) error {
	_, err := d.db.ExecContext(ctx, "DELETE FROM `conversation_turn` WHERE `conversation_id` = ?", conversationID)
	return err
}
