package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"telegram-fasting-tracker/internal/models"
)

//go:embed schema.sql
var ddl embed.FS

type DB struct{ *sql.DB }

func New(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one connection keeps ":memory:" databases shared and writes serialized
	db.SetMaxOpenConns(1)
	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{db}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

// ClearChat removes the chat's wallet binding and pending input state.
func (d *DB) ClearChat(ctx context.Context, chatID int64) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, tbl := range []string{"wallets", "user_states"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE chat_id = ?", tbl),
			chatID,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ---------- key-value medium ------------------------------------------------

func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := d.QueryRowContext(ctx, `SELECT value FROM kv WHERE key=?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (d *DB) Set(ctx context.Context, key, value string) error {
	_, err := d.ExecContext(ctx, `
        INSERT INTO kv (key, value, updated_at) VALUES (?,?,?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
    `, key, value, time.Now().Unix())
	return err
}

func (d *DB) Delete(ctx context.Context, key string) error {
	_, err := d.ExecContext(ctx, `DELETE FROM kv WHERE key=?`, key)
	return err
}

// ---------- wallets ---------------------------------------------------------

func (d *DB) SetWallet(ctx context.Context, chatID int64, walletID string) error {
	_, err := d.ExecContext(ctx, `
        INSERT INTO wallets (chat_id, wallet_id, updated_at) VALUES (?,?,?)
        ON CONFLICT(chat_id) DO UPDATE SET wallet_id=excluded.wallet_id, updated_at=excluded.updated_at
    `, chatID, walletID, time.Now().Unix())
	return err
}

// GetWallet returns "" when the chat has no wallet connected.
func (d *DB) GetWallet(ctx context.Context, chatID int64) (string, error) {
	var w string
	err := d.QueryRowContext(ctx, `SELECT wallet_id FROM wallets WHERE chat_id=?`, chatID).Scan(&w)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return w, err
}

func (d *DB) DeleteWallet(ctx context.Context, chatID int64) error {
	_, err := d.ExecContext(ctx, `DELETE FROM wallets WHERE chat_id=?`, chatID)
	return err
}

func (d *DB) ListWallets(ctx context.Context) ([]models.WalletBinding, error) {
	rows, err := d.QueryContext(ctx, `SELECT chat_id, wallet_id, updated_at FROM wallets ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []models.WalletBinding
	for rows.Next() {
		var w models.WalletBinding
		if err := rows.Scan(&w.ChatID, &w.WalletID, &w.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

// ---------- user state (fsm) ------------------------------------------------

func (d *DB) SetUserState(ctx context.Context, chatID int64, state models.ChatState) error {
	_, err := d.ExecContext(ctx, `
        INSERT INTO user_states(chat_id, state) VALUES (?,?)
        ON CONFLICT(chat_id) DO UPDATE SET state=excluded.state`, chatID, string(state))
	return err
}

func (d *DB) GetUserState(ctx context.Context, chatID int64) (models.ChatState, error) {
	var st string
	err := d.QueryRowContext(ctx, `SELECT state FROM user_states WHERE chat_id=?`, chatID).Scan(&st)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatIdle, nil
	}
	return models.ChatState(st), err
}

// ---------- zone notifications ----------------------------------------------

// MarkNotified records that the zone was announced; it reports false when it
// already was.
func (d *DB) MarkNotified(ctx context.Context, walletID, zone string, at time.Time) (bool, error) {
	res, err := d.ExecContext(ctx, `
        INSERT OR IGNORE INTO zone_notifications (wallet_id, zone_name, notified_at)
        VALUES (?,?,?)`, walletID, zone, at.Unix())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (d *DB) IsNotified(ctx context.Context, walletID, zone string) bool {
	var c int
	_ = d.QueryRowContext(ctx, `SELECT 1 FROM zone_notifications WHERE wallet_id=? AND zone_name=?`,
		walletID, zone).Scan(&c)
	return c == 1
}

func (d *DB) ClearNotifications(ctx context.Context, walletID string) error {
	_, err := d.ExecContext(ctx, `DELETE FROM zone_notifications WHERE wallet_id=?`, walletID)
	return err
}

// ---------- history ---------------------------------------------------------

// ArchiveFast stores a finished fast and returns its generated id.
func (d *DB) ArchiveFast(ctx context.Context, h models.HistoryEntry) (string, error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	_, err := d.ExecContext(ctx, `
        INSERT INTO fasting_history (id, wallet_id, started_at, ended_at, reached_zone)
        VALUES (?,?,?,?,?)`,
		h.ID, h.WalletID, h.StartedAt.UnixMilli(), h.EndedAt.UnixMilli(), h.ReachedZone)
	if err != nil {
		return "", err
	}
	return h.ID, nil
}

// ListHistory returns the most recent fasts of the wallet, newest first.
func (d *DB) ListHistory(ctx context.Context, walletID string, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := d.QueryContext(ctx, `
        SELECT id, wallet_id, started_at, ended_at, reached_zone
        FROM fasting_history WHERE wallet_id=?
        ORDER BY ended_at DESC LIMIT ?`, walletID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []models.HistoryEntry
	for rows.Next() {
		var (
			h          models.HistoryEntry
			start, end int64
		)
		if err := rows.Scan(&h.ID, &h.WalletID, &start, &end, &h.ReachedZone); err != nil {
			return nil, err
		}
		h.StartedAt = time.UnixMilli(start).UTC()
		h.EndedAt = time.UnixMilli(end).UTC()
		res = append(res, h)
	}
	return res, rows.Err()
}
