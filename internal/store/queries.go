package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrQuery = errors.New("query error")

// PlayerRow is a single curated record as stored on disk.
type PlayerRow struct {
	SteamID   string
	Kind      string
	Notes     string
	CreatedOn time.Time
	UpdatedOn time.Time
}

func New(conn *sql.DB) *Queries {
	return &Queries{conn: conn}
}

type Queries struct {
	conn *sql.DB
}

func (q *Queries) PlayerSave(ctx context.Context, row PlayerRow) error {
	const query = `
		INSERT INTO player (steam_id, kind, notes, created_on, updated_on)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (steam_id) DO UPDATE SET kind = excluded.kind,
			notes = excluded.notes, updated_on = excluded.updated_on`

	if _, err := q.conn.ExecContext(ctx, query,
		row.SteamID, row.Kind, row.Notes, row.CreatedOn, row.UpdatedOn); err != nil {
		return errors.Join(err, ErrQuery)
	}

	return nil
}

func (q *Queries) Player(ctx context.Context, steamID string) (PlayerRow, error) {
	const query = `SELECT steam_id, kind, notes, created_on, updated_on FROM player WHERE steam_id = ?`

	var row PlayerRow
	if err := q.conn.QueryRowContext(ctx, query, steamID).
		Scan(&row.SteamID, &row.Kind, &row.Notes, &row.CreatedOn, &row.UpdatedOn); err != nil {
		return row, errors.Join(err, ErrQuery)
	}

	return row, nil
}

func (q *Queries) PlayerDelete(ctx context.Context, steamID string) error {
	if _, err := q.conn.ExecContext(ctx, `DELETE FROM player WHERE steam_id = ?`, steamID); err != nil {
		return errors.Join(err, ErrQuery)
	}

	return nil
}

func (q *Queries) Players(ctx context.Context) ([]PlayerRow, error) {
	const query = `SELECT steam_id, kind, notes, created_on, updated_on FROM player ORDER BY steam_id`

	rows, errQuery := q.conn.QueryContext(ctx, query)
	if errQuery != nil {
		return nil, errors.Join(errQuery, ErrQuery)
	}
	defer rows.Close()

	var players []PlayerRow
	for rows.Next() {
		var row PlayerRow
		if errScan := rows.Scan(&row.SteamID, &row.Kind, &row.Notes,
			&row.CreatedOn, &row.UpdatedOn); errScan != nil {
			return nil, errors.Join(errScan, ErrQuery)
		}
		players = append(players, row)
	}

	if errRows := rows.Err(); errRows != nil {
		return nil, errors.Join(errRows, ErrQuery)
	}

	return players, nil
}
