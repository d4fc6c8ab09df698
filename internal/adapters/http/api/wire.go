package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/combatlog/internal/adapters/export"
	service "github.com/okian/combatlog/internal/app"
	"github.com/okian/combatlog/internal/domain/model"
)

// streamJSON is one damage stream as uploaded. Start, end and total are
// derived from the damage pairs.
type streamJSON struct {
	Attacker   string       `json:"attacker"`
	Target     string       `json:"target"`
	Weapon     string       `json:"weapon,omitempty"`
	Ticker     string       `json:"ticker,omitempty"`
	EnemyShips []string     `json:"enemy_ships,omitempty"`
	Damage     [][2]float64 `json:"damage"`
}

type uploadJSON struct {
	You     string       `json:"you"`
	Streams []streamJSON `json:"streams"`
}

// decodeUpload accepts either a bare array of streams or {"you", "streams"}.
func decodeUpload(body []byte) (uploadJSON, error) {
	var up uploadJSON
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &up.Streams); err != nil {
			return up, err
		}
		return up, nil
	}
	if err := json.Unmarshal(trimmed, &up); err != nil {
		return up, err
	}
	return up, nil
}

func (s streamJSON) toModel(index int) (model.DamageStream, error) {
	if s.Attacker == "" || s.Target == "" {
		return model.DamageStream{}, fmt.Errorf("stream %d: attacker and target are required", index)
	}
	if len(s.Damage) == 0 {
		return model.DamageStream{}, fmt.Errorf("stream %d: damage must not be empty", index)
	}
	events := make([]model.DamageEvent, len(s.Damage))
	for i, d := range s.Damage {
		events[i] = model.DamageEvent{Timestamp: int64(d[0]), Amount: d[1]}
	}
	return model.NewDamageStream(s.Attacker, s.Target, events,
		model.WithWeapon(s.Weapon),
		model.WithTicker(s.Ticker),
		model.WithEnemyShips(s.EnemyShips...),
	), nil
}

type uploadResponse struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

type streamSummary struct {
	Attacker    string  `json:"attacker"`
	Target      string  `json:"target"`
	Weapon      string  `json:"weapon"`
	Ticker      string  `json:"ticker,omitempty"`
	EnemyShips  string  `json:"enemy_ships"`
	TotalDamage float64 `json:"total_damage"`
	StartTime   int64   `json:"start_time"`
	EndTime     int64   `json:"end_time"`
	Events      int     `json:"events"`
}

type datasetResponse struct {
	ID        string          `json:"id"`
	You       string          `json:"you"`
	CreatedAt string          `json:"created_at"`
	Streams   []streamSummary `json:"streams"`
}

func newDatasetResponse(ds model.Dataset) datasetResponse {
	resp := datasetResponse{
		ID:        ds.ID,
		You:       ds.You,
		CreatedAt: ds.CreatedAt.Format(time.RFC3339),
		Streams:   make([]streamSummary, len(ds.Streams)),
	}
	for i, s := range ds.Streams {
		resp.Streams[i] = streamSummary{
			Attacker:    s.Attacker,
			Target:      s.Target,
			Weapon:      s.Weapon,
			Ticker:      s.Ticker,
			EnemyShips:  s.EnemyShips,
			TotalDamage: s.TotalDamage,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			Events:      len(s.Events),
		}
	}
	return resp
}

type windowJSON struct {
	Mode  string `json:"mode"`
	Width int    `json:"width"`
}

type boundsJSON struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

type seriesJSON struct {
	Label       string       `json:"label"`
	Attacker    string       `json:"attacker"`
	Target      string       `json:"target"`
	Weapon      string       `json:"weapon"`
	StartTime   int64        `json:"start_time"`
	EndTime     int64        `json:"end_time"`
	TotalDamage float64      `json:"total_damage"`
	Points      [][2]float64 `json:"points"`
}

type plotsResponse struct {
	DatasetID string       `json:"dataset_id"`
	View      string       `json:"view"`
	Window    windowJSON   `json:"window"`
	Bounds    *boundsJSON  `json:"bounds,omitempty"`
	Series    []seriesJSON `json:"series"`
}

func newPlotsResponse(res service.PlotResult) plotsResponse { //nolint:gocritic // hugeParam: read once per request
	resp := plotsResponse{
		DatasetID: res.DatasetID,
		View:      string(res.View),
		Window:    windowJSON{Mode: string(res.Window.Mode), Width: res.Window.Width},
		Series:    make([]seriesJSON, len(res.Series)),
	}
	if res.HasBounds {
		resp.Bounds = &boundsJSON{Min: res.Bounds.Min, Max: res.Bounds.Max}
	}
	for i, s := range res.Series {
		points := make([][2]float64, len(s.Curve))
		for j, p := range s.Curve {
			points[j] = [2]float64{float64(p.Timestamp), p.Rate}
		}
		resp.Series[i] = seriesJSON{
			Label:       s.Label,
			Attacker:    s.Attacker,
			Target:      s.Target,
			Weapon:      s.Weapon,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			TotalDamage: s.Total,
			Points:      points,
		}
	}
	return resp
}

type rowJSON struct {
	Timestamp int64      `json:"timestamp"`
	Time      string     `json:"time"`
	Values    []*float64 `json:"values"`
}

type tableResponse struct {
	DatasetID string    `json:"dataset_id"`
	Headers   []string  `json:"headers"`
	Rows      []rowJSON `json:"rows"`
}

func newTableResponse(res service.TableResult) tableResponse {
	resp := tableResponse{
		DatasetID: res.DatasetID,
		Headers:   append([]string{}, res.Headers...),
		Rows:      make([]rowJSON, len(res.Table.Rows)),
	}
	for i, row := range res.Table.Rows {
		values := make([]*float64, len(row.Cells))
		for j, c := range row.Cells {
			if c.Valid {
				v := c.Value
				values[j] = &v
			}
		}
		resp.Rows[i] = rowJSON{Timestamp: row.Timestamp, Time: export.FormatTimestamp(row.Timestamp), Values: values}
	}
	return resp
}
