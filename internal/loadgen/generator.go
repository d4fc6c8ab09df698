package loadgen

import (
	"fmt"
	"math/rand/v2"
)

const (
	you          = "You"
	engagementMs = 120_000
	maxHitDamage = 400
)

var (
	weapons = []string{"Light Missile", "Heavy Pulse Laser", "Warrior II", "Unknown"}
	ships   = []string{"Rifter", "Slasher", "Merlin", "Punisher", "Thrasher"}
	tickers = []string{"", "PIR", "GOON", "BRAVE"}
)

// Generator produces deterministic engagements from a seed.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator seeds a generator.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Engagement builds one fight between You and the given number of enemies.
// Every enemy gets one stream in each direction; streams do not overlap
// perfectly so merged rows interleave.
func (g *Generator) Engagement(index, enemies, events int) Upload {
	up := Upload{You: you}
	base := int64(1_600_000_000_000) + int64(index)*engagementMs*2
	for e := 0; e < enemies; e++ {
		name := fmt.Sprintf("Pilot-%d-%d", index, e)
		ticker := tickers[g.rng.IntN(len(tickers))]
		ship := ships[g.rng.IntN(len(ships))]

		out := Stream{Attacker: you, Target: name, Weapon: weapons[g.rng.IntN(len(weapons))], Ticker: ticker, EnemyShips: []string{ship}}
		out.Damage = g.damage(base, events)
		in := Stream{Attacker: name, Target: you, Weapon: weapons[g.rng.IntN(len(weapons))], Ticker: ticker, EnemyShips: []string{ship}}
		in.Damage = g.damage(base, events)
		up.Streams = append(up.Streams, out, in)
	}
	// A stream between two other pilots must never show up in your views.
	if enemies > 1 {
		third := Stream{Attacker: fmt.Sprintf("Pilot-%d-0", index), Target: fmt.Sprintf("Pilot-%d-1", index)}
		third.Damage = g.damage(base, events)
		up.Streams = append(up.Streams, third)
	}
	return up
}

// damage returns sorted [ts, amount] pairs inside one engagement window.
// Repeated timestamps are allowed.
func (g *Generator) damage(base int64, events int) [][2]float64 {
	out := make([][2]float64, events)
	ts := base + g.rng.Int64N(engagementMs/4)
	for i := range out {
		out[i] = [2]float64{float64(ts), float64(1 + g.rng.IntN(maxHitDamage))}
		ts += g.rng.Int64N(3_000)
	}
	return out
}
