// Package loadgen generates synthetic engagements, pushes them through a
// running analyzer and checks what comes back.
package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL         string        // Base URL of the service
	Datasets        int           // Number of engagements to upload
	Enemies         int           // Enemies per engagement
	EventsPerStream int           // Damage events per stream
	Workers         int           // Concurrent uploaders
	Timeout         time.Duration // HTTP request timeout
	Seed            uint64        // Generator seed, runs with the same seed are identical
	Verbose         bool          // Log every dataset
}

// Stream is one damage stream in upload form.
type Stream struct {
	Attacker   string       `json:"attacker"`
	Target     string       `json:"target"`
	Weapon     string       `json:"weapon,omitempty"`
	Ticker     string       `json:"ticker,omitempty"`
	EnemyShips []string     `json:"enemy_ships,omitempty"`
	Damage     [][2]float64 `json:"damage"`
}

// Upload is the body of POST /datasets.
type Upload struct {
	You     string   `json:"you"`
	Streams []Stream `json:"streams"`
}

// UploadResponse mirrors the POST /datasets answer.
type UploadResponse struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// Plots mirrors GET /datasets/{id}/plots.
type Plots struct {
	View   string `json:"view"`
	Window struct {
		Mode  string `json:"mode"`
		Width int    `json:"width"`
	} `json:"window"`
	Series []struct {
		Label     string       `json:"label"`
		StartTime int64        `json:"start_time"`
		EndTime   int64        `json:"end_time"`
		Points    [][2]float64 `json:"points"`
	} `json:"series"`
}

// Row is one merged table row; nil values are empty cells.
type Row struct {
	Timestamp int64      `json:"timestamp"`
	Values    []*float64 `json:"values"`
}

// Table mirrors GET /datasets/{id}/table?format=json.
type Table struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// Stats holds run statistics.
type Stats struct {
	Uploaded   int
	Duplicates int
	Failed     int
	Verified   int
	Rows       int
	StartTime  time.Time
	Duration   time.Duration
}
