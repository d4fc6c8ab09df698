package service

import (
	"fmt"
	"strings"

	"github.com/okian/combatlog/internal/domain/model"
	"github.com/okian/combatlog/internal/domain/selection"
	"github.com/okian/combatlog/internal/domain/smoothing"
)

// View selects which side of the fight a chart shows.
type View string

const (
	// ViewAttack plots the damage you dealt, one series per target.
	ViewAttack View = "attack"
	// ViewDefense plots the damage you received, one series per attacker.
	ViewDefense View = "defense"
)

// ParseView accepts "attack" or "defense"; empty means attack.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return ViewAttack, nil
	case ViewAttack, ViewDefense:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidView, s)
	}
}

// Role is the role you occupy in the streams of this view.
func (v View) Role() model.Role {
	if v == ViewDefense {
		return model.RoleTarget
	}
	return model.RoleAttacker
}

// UploadRequest carries streams already extracted from a combat log.
type UploadRequest struct {
	// You overrides the configured listener identity.
	You     string
	Streams []model.DamageStream
	// Digest identifies the upload content; empty disables dedupe.
	Digest string
}

// UploadResult names the dataset an upload landed in.
type UploadResult struct {
	ID        string
	Duplicate bool
}

// PlotRequest describes one chart.
type PlotRequest struct {
	View  View
	Range *selection.TimeRange
	// Window overrides the service default when set.
	Window *smoothing.Window
}

// Series is one labelled rate curve.
type Series struct {
	Label     string
	Attacker  string
	Target    string
	Weapon    string
	StartTime int64
	EndTime   int64
	Total     float64
	Curve     model.RateCurve
}

// PlotResult holds every series of a chart plus the range it resets to.
type PlotResult struct {
	DatasetID string
	View      View
	Window    smoothing.Window
	Bounds    selection.TimeRange
	HasBounds bool
	Series    []Series
}

// TableResult is the merged export of a dataset.
type TableResult struct {
	DatasetID string
	Headers   []string
	Table     model.MergedTable
}
