// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"strings"
	"time"
)

// UnknownValue marks weapon or ship metadata that the log did not reveal.
const UnknownValue = "Unknown"

// MillisPerSecond is the sample spacing of every RateCurve.
const MillisPerSecond = 1000

// Role selects one side of an attacker -> target relationship.
type Role int

const (
	RoleAttacker Role = iota
	RoleTarget
)

// ErrUnknownRole is returned by ParseRole for unrecognised names.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole accepts "attacker" or "target" (case-insensitive).
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attacker":
		return RoleAttacker, nil
	case "target":
		return RoleTarget, nil
	default:
		return RoleAttacker, ErrUnknownRole
	}
}

// Opposite returns the other side of the relationship.
func (r Role) Opposite() Role {
	if r == RoleAttacker {
		return RoleTarget
	}
	return RoleAttacker
}

func (r Role) String() string {
	if r == RoleTarget {
		return "target"
	}
	return "attacker"
}

// DamageEvent is one timestamped damage amount.
type DamageEvent struct {
	Timestamp int64   // milliseconds since epoch
	Amount    float64 // damage dealt at Timestamp
}

// DamageStream aggregates the damage one attacker dealt to one target with
// one weapon over an engagement. Events are ordered by Timestamp (ascending)
// and lie within [StartTime, EndTime]. A stream is read-only once built.
type DamageStream struct {
	Attacker    string
	Target      string
	Weapon      string
	Ticker      string
	EnemyShips  string
	TotalDamage float64
	StartTime   int64
	EndTime     int64
	Events      []DamageEvent
}

// StreamOption customises NewDamageStream.
type StreamOption func(*DamageStream)

// WithWeapon sets the weapon name; empty keeps UnknownValue.
func WithWeapon(weapon string) StreamOption {
	return func(s *DamageStream) {
		if weapon != "" {
			s.Weapon = weapon
		}
	}
}

// WithTicker sets the enemy corporation/alliance ticker.
func WithTicker(ticker string) StreamOption {
	return func(s *DamageStream) {
		s.Ticker = ticker
	}
}

// WithEnemyShips records the ship types the enemy flew.
func WithEnemyShips(ships ...string) StreamOption {
	return func(s *DamageStream) {
		if joined := strings.Join(ships, ", "); joined != "" {
			s.EnemyShips = joined
		}
	}
}

// NewDamageStream builds a stream from ordered events. Start and end times
// come from the first and last event and TotalDamage is the sum of amounts.
// A stream without events has zero bounds.
func NewDamageStream(attacker, target string, events []DamageEvent, opts ...StreamOption) DamageStream {
	s := DamageStream{
		Attacker:   attacker,
		Target:     target,
		Weapon:     UnknownValue,
		EnemyShips: UnknownValue,
		Events:     append([]DamageEvent(nil), events...),
	}
	for _, opt := range opts {
		opt(&s)
	}
	for _, e := range s.Events {
		s.TotalDamage += e.Amount
	}
	if n := len(s.Events); n > 0 {
		s.StartTime = s.Events[0].Timestamp
		s.EndTime = s.Events[n-1].Timestamp
	}
	return s
}

// RoleValue returns the identity string found in the given role.
func (s *DamageStream) RoleValue(role Role) string {
	if role == RoleTarget {
		return s.Target
	}
	return s.Attacker
}

// EnemyName returns the identity opposite to the role "you" occupy.
func (s *DamageStream) EnemyName(you Role) string {
	return s.RoleValue(you.Opposite())
}

// Overlaps reports whether [StartTime, EndTime] intersects [min, max].
func (s *DamageStream) Overlaps(min, max int64) bool {
	return s.StartTime <= max && s.EndTime >= min
}

// RatePoint is one sample of a smoothed damage-rate curve.
type RatePoint struct {
	Timestamp int64
	Rate      float64
}

// RateCurve is a dense curve sampled every MillisPerSecond.
type RateCurve []RatePoint

// CurveLength returns the number of samples covering [start, end].
func CurveLength(start, end int64) int {
	return int((end-start)/MillisPerSecond) + 1
}

// Cell is one table value; Valid is false for an empty cell.
type Cell struct {
	Value float64
	Valid bool
}

// MergedRow holds the values of every stream at one timestamp.
type MergedRow struct {
	Timestamp int64
	Cells     []Cell
}

// MergedTable is the chronological union of several streams, one column per
// input stream in input order.
type MergedTable struct {
	Columns int
	Rows    []MergedRow
}

// Dataset is one uploaded combat log reduced to its damage streams.
type Dataset struct {
	ID        string
	You       string
	Digest    string
	CreatedAt time.Time
	Streams   []DamageStream
}
