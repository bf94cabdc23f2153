// Package session persists at most one active fast per wallet on top of a
// key-value medium. Every failure on the read path degrades to "no session".
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"telegram-fasting-tracker/internal/models"
	"telegram-fasting-tracker/internal/progress"
	"telegram-fasting-tracker/internal/zones"
)

const (
	KeyPrefix     = "fasting_session:"
	DisclaimerKey = "disclaimer_accepted"

	// ISO-8601 with milliseconds, e.g. 2024-01-01T08:00:00.000Z
	timeLayout = "2006-01-02T15:04:05.000Z07:00"
)

var (
	ErrEmptyWallet   = errors.New("wallet id is empty")
	ErrSessionActive = errors.New("a fast is already running, reset it first")
	ErrStartInFuture = errors.New("start time is in the future")
)

// Medium is the persistent key-value storage the store writes to.
type Medium interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Archiver keeps finished fasts and per-wallet zone announcements.
type Archiver interface {
	ArchiveFast(ctx context.Context, h models.HistoryEntry) (string, error)
	ClearNotifications(ctx context.Context, walletID string) error
}

type Store struct {
	kv      Medium
	archive Archiver
	log     *slog.Logger
}

type record struct {
	StartTime string `json:"startTime"`
}

func New(kv Medium, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{kv: kv, log: log}
}

// WithArchive makes Reset keep a history entry of every cleared fast.
func (s *Store) WithArchive(a Archiver) *Store {
	s.archive = a
	return s
}

// Key maps a wallet to its storage key.
func Key(walletID string) string {
	return KeyPrefix + walletID
}

// Load returns the wallet's active fast, or nil when there is none or the
// stored entry cannot be read.
func (s *Store) Load(ctx context.Context, walletID string) *models.FastingSession {
	if walletID == "" {
		return nil
	}
	raw, ok, err := s.kv.Get(ctx, Key(walletID))
	if err != nil {
		s.log.Warn("session read failed", "wallet", walletID, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	start, err := decode(raw)
	if err != nil {
		s.log.Warn("malformed session entry ignored", "wallet", walletID, "error", err)
		return nil
	}
	return &models.FastingSession{WalletID: walletID, StartTime: start}
}

// Save writes or overwrites the wallet's fast.
func (s *Store) Save(ctx context.Context, walletID string, start time.Time) error {
	if walletID == "" {
		return ErrEmptyWallet
	}
	b, err := json.Marshal(record{StartTime: encodeTime(start)})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, Key(walletID), string(b)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the wallet's fast. Clearing nothing is not an error.
func (s *Store) Clear(ctx context.Context, walletID string) error {
	if walletID == "" {
		return ErrEmptyWallet
	}
	if err := s.kv.Delete(ctx, Key(walletID)); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Begin starts a fast. A running fast must be reset first.
func (s *Store) Begin(ctx context.Context, walletID string, start, now time.Time) error {
	if walletID == "" {
		return ErrEmptyWallet
	}
	if start.After(now) {
		return ErrStartInFuture
	}
	if s.Load(ctx, walletID) != nil {
		return ErrSessionActive
	}
	return s.Save(ctx, walletID, start)
}

// Reset ends the running fast and returns it, or nil if none was running.
// Archiving is best effort; only failing to clear the session is an error.
func (s *Store) Reset(ctx context.Context, walletID string, now time.Time) (*models.FastingSession, error) {
	cur := s.Load(ctx, walletID)
	if s.archive != nil && cur != nil {
		h := models.HistoryEntry{WalletID: walletID, StartedAt: cur.StartTime, EndedAt: now.UTC()}
		if z, ok := progress.Current(progress.ComputeAll(zones.List(), cur.StartTime, now)); ok {
			h.ReachedZone = z.Zone.Name
		}
		if _, err := s.archive.ArchiveFast(ctx, h); err != nil {
			s.log.Error("archive fast failed", "wallet", walletID, "error", err)
		}
	}
	if s.archive != nil {
		if err := s.archive.ClearNotifications(ctx, walletID); err != nil {
			s.log.Error("clear zone notifications failed", "wallet", walletID, "error", err)
		}
	}
	if err := s.Clear(ctx, walletID); err != nil {
		return nil, err
	}
	return cur, nil
}

// ---------- disclaimer ------------------------------------------------------

func disclaimerKey(scope string) string {
	if scope == "" {
		return DisclaimerKey
	}
	return DisclaimerKey + ":" + scope
}

func (s *Store) DisclaimerAccepted(ctx context.Context, scope string) bool {
	v, ok, err := s.kv.Get(ctx, disclaimerKey(scope))
	if err != nil {
		s.log.Warn("disclaimer read failed", "scope", scope, "error", err)
		return false
	}
	return ok && strings.EqualFold(v, "true")
}

func (s *Store) AcceptDisclaimer(ctx context.Context, scope string) error {
	return s.kv.Set(ctx, disclaimerKey(scope), "true")
}

func encodeTime(t time.Time) string {
	return t.UTC().Truncate(time.Millisecond).Format(timeLayout)
}

func decode(raw string) (time.Time, error) {
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return time.Time{}, fmt.Errorf("decode session: %w", err)
	}
	if rec.StartTime == "" {
		return time.Time{}, errors.New("startTime missing")
	}
	t, err := time.Parse(time.RFC3339Nano, rec.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse startTime: %w", err)
	}
	return t.UTC(), nil
}
