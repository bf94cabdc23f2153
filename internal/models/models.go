package models

import "time"

// RefeedingGuidance is the static advice on how to end a fast of a given length.
type RefeedingGuidance struct {
	RecommendedFoods []string `yaml:"recommended_foods" json:"recommended_foods"`
	FoodsToAvoid     []string `yaml:"foods_to_avoid"    json:"foods_to_avoid"`
	Notes            string   `yaml:"notes"             json:"notes"`
}

// ZoneDefinition is one physiological milestone of a fast.
type ZoneDefinition struct {
	Name           string            `yaml:"name"            json:"name"`
	ThresholdHours float64           `yaml:"threshold_hours" json:"threshold_hours"`
	BenefitSummary string            `yaml:"benefit_summary" json:"benefit_summary"`
	DisplayColor   string            `yaml:"display_color"   json:"display_color"` // "#RRGGBB"
	Refeeding      RefeedingGuidance `yaml:"refeeding"       json:"refeeding"`
}

// Duration converts ThresholdHours into a time.Duration.
func (z ZoneDefinition) Duration() time.Duration {
	return time.Duration(z.ThresholdHours * float64(time.Hour))
}

// FastingSession is the single active fast of a wallet.
type FastingSession struct {
	WalletID  string    `json:"-"`
	StartTime time.Time `json:"startTime"` // UTC, millisecond precision
}

// ZoneProgress is derived every tick and never persisted.
type ZoneProgress struct {
	Zone            ZoneDefinition
	TargetTime      time.Time
	Elapsed         time.Duration
	Remaining       time.Duration
	IsCompleted     bool
	ProgressPercent float64
}

// State reports Pending or Completed for the zone.
func (p ZoneProgress) State() ZoneState {
	if p.IsCompleted {
		return ZoneCompleted
	}
	return ZonePending
}

// WalletBinding links a telegram chat to the wallet it is currently connected with.
type WalletBinding struct {
	ChatID    int64  `db:"chat_id"`
	WalletID  string `db:"wallet_id"`
	UpdatedAt int64  `db:"updated_at"`
}

// HistoryEntry is an archived (reset) fast.
type HistoryEntry struct {
	ID          string    `db:"id"`
	WalletID    string    `db:"wallet_id"`
	StartedAt   time.Time `db:"started_at"`
	EndedAt     time.Time `db:"ended_at"`
	ReachedZone string    `db:"reached_zone"` // empty -> no zone reached
}

// Duration of the archived fast.
func (h HistoryEntry) Duration() time.Duration {
	return h.EndedAt.Sub(h.StartedAt)
}
