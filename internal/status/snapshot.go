// Package status reads the dedicated server's Status.json and watches it for
// changes.
package status

import (
	"log/slog"
	"strings"
)

// Status values written by the server. Comparisons are case-insensitive.
const (
	StateRunning    = "running"
	StateStopping   = "stopping"
	StateStopped    = "stopped"
	StateNotRunning = "not running"
)

// Snapshot is one parsed reading of Status.json. It is a plain value: two
// snapshots are equal when every field is equal.
type Snapshot struct {
	Status                   string `json:"Status"`
	InviteCode               string `json:"InviteCode"`
	AdvertisedAddressAndPort string `json:"AdvertisedAddressAndPort"`
	WorldName                string `json:"WorldName"`
	WorldSeed                int    `json:"WorldSeed"`
	Players                  string `json:"Players"`
	Version                  string `json:"Version"`
}

// IsRunning reports whether the server says it is running.
func (s Snapshot) IsRunning() bool {
	return strings.EqualFold(s.Status, StateRunning)
}

// IsStopping reports whether the server is shutting down.
func (s Snapshot) IsStopping() bool {
	return strings.EqualFold(s.Status, StateStopping)
}

// IsStopped reports whether the server is stopped. An empty status counts as
// stopped.
func (s Snapshot) IsStopped() bool {
	return s.Status == "" || strings.EqualFold(s.Status, StateStopped)
}

// IsNotRunning reports the "not running" state the server writes after exit.
func (s Snapshot) IsNotRunning() bool {
	return strings.EqualFold(s.Status, StateNotRunning)
}

// IsZero reports whether s carries no information at all.
func (s Snapshot) IsZero() bool {
	return s == Snapshot{}
}

// HasWorld reports whether the snapshot refers to an existing world.
//
// A "stopping" or "not running" status also counts even when WorldName is
// empty. This looks like a workaround for the server clearing the name before
// the final flush rather than a real rule, but callers rely on it to keep
// showing world details during shutdown.
func (s Snapshot) HasWorld() bool {
	return s.WorldName != "" || s.IsStopping() || s.IsNotRunning()
}

// LogValue implements slog.LogValuer.
func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("status", s.Status),
		slog.String("world", s.WorldName),
		slog.Int("seed", s.WorldSeed),
		slog.String("invite", s.InviteCode),
		slog.String("players", s.Players),
	)
}
