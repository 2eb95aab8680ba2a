// Package grouping partitions supplier records into candidate groups of
// records believed to denote the same real-world concept.
package grouping

import (
	"math"

	"github.com/Ramsey-B/laurel/pkg/catalog"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/normalizers"
	"github.com/Ramsey-B/laurel/pkg/scoring"
)

// Config contains configuration for the grouping engine
type Config struct {
	SimilarityThreshold int     // Minimum weighted score to join a group by similarity (default: 90)
	NameWeight          float64 // Weight of name similarity in the weighted score (default: 0.7)
	CodeWeight          float64 // Weight of exact code match in the weighted score (default: 0.3)
	CodeBonus           int     // Flat bonus when auxiliary codes match exactly, capped at 100 (default: 10)
}

// DefaultConfig returns default grouping configuration
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 90,
		NameWeight:          0.7,
		CodeWeight:          0.3,
		CodeBonus:           10,
	}
}

// Group is a transient cluster of supplier records. It is recomputed on
// demand and never persisted. The key is display-only: it depends on which
// record arrived first and must not be used as a stable identifier.
type Group struct {
	Key     string                  `json:"key"`
	Members []models.SupplierRecord `json:"members"`
	// Scores holds the placement score per record id, used as the match
	// confidence when the group is auto-matched
	Scores map[string]int `json:"scores"`
}

// Founder returns the record that started the group
func (g *Group) Founder() *models.SupplierRecord {
	if len(g.Members) == 0 {
		return nil
	}
	return &g.Members[0]
}

// Pending returns the members not yet linked to a master record
func (g *Group) Pending() []models.SupplierRecord {
	var pending []models.SupplierRecord
	for _, m := range g.Members {
		if m.Status == models.RecordStatusPending {
			pending = append(pending, m)
		}
	}
	return pending
}

// MappedMasters returns the distinct master ids among mapped members.
// More than one means the group is in conflict.
func (g *Group) MappedMasters() []string {
	seen := make(map[string]struct{})
	var masters []string
	for _, m := range g.Members {
		if m.Status == models.RecordStatusMapped && m.HasMaster() {
			if _, ok := seen[*m.MasterID]; !ok {
				seen[*m.MasterID] = struct{}{}
				masters = append(masters, *m.MasterID)
			}
		}
	}
	return masters
}

// Engine partitions supplier records using a priority cascade:
// existing master linkage, then reference-catalog cross-match, then weighted
// similarity, then a literal-label fallback. Grouping is a pure read; it can
// run concurrently with other reads over an immutable snapshot.
type Engine struct {
	scorer  *scoring.Scorer
	catalog *catalog.Catalog
	cfg     Config
}

// NewEngine creates a new grouping engine. The catalog may be nil, in which
// case the catalog cross-match rule never fires.
func NewEngine(scorer *scoring.Scorer, cat *catalog.Catalog, cfg Config) *Engine {
	return &Engine{
		scorer:  scorer,
		catalog: cat,
		cfg:     cfg,
	}
}

// groupState tracks per-group facts the cascade needs without rescanning members
type groupState struct {
	group       *Group
	masterIDs   map[string]struct{}
	founderCode string // primary code of the founder's catalog entry, if resolved
}

// Group partitions records into candidate groups. Records are processed in
// input order; the first rule that yields a group wins. Membership is stable
// for a fixed input set.
func (e *Engine) Group(records []models.SupplierRecord) []Group {
	states := make([]*groupState, 0)

	for _, rec := range records {
		if state, score := e.place(states, rec); state != nil {
			state.group.Members = append(state.group.Members, rec)
			state.group.Scores[rec.ID] = score
			if rec.HasMaster() {
				state.masterIDs[*rec.MasterID] = struct{}{}
			}
			continue
		}

		state := &groupState{
			group: &Group{
				Key:     rec.Label,
				Members: []models.SupplierRecord{rec},
				Scores:  map[string]int{rec.ID: 100},
			},
			masterIDs: make(map[string]struct{}),
		}
		if rec.HasMaster() {
			state.masterIDs[*rec.MasterID] = struct{}{}
		}
		if entry := e.resolve(rec); entry != nil {
			state.founderCode = entry.Code
		}
		states = append(states, state)
	}

	groups := make([]Group, 0, len(states))
	for _, state := range states {
		groups = append(groups, *state.group)
	}
	return groups
}

// place runs the cascade for one record against the groups seen so far.
// Returns nil when the record should start a new group.
func (e *Engine) place(states []*groupState, rec models.SupplierRecord) (*groupState, int) {
	// Rule 1: existing master linkage
	if rec.HasMaster() {
		for _, state := range states {
			if _, ok := state.masterIDs[*rec.MasterID]; ok {
				return state, e.founderScore(state, rec)
			}
		}
	}

	// Rule 2: reference-catalog cross-match unifies records that resolve to
	// the same catalog entry even when the literal labels differ
	if entry := e.resolve(rec); entry != nil {
		for _, state := range states {
			if state.founderCode != "" && state.founderCode == entry.Code {
				return state, e.founderScore(state, rec)
			}
		}
	}

	// Rule 3: weighted similarity against each group's founder
	var best *groupState
	bestScore := 0
	for _, state := range states {
		founder := state.group.Founder()
		score := e.weightedScore(rec, *founder)
		if score >= e.cfg.SimilarityThreshold && score > bestScore {
			best = state
			bestScore = score
		}
	}
	if best != nil {
		return best, bestScore
	}

	return nil, 0
}

func (e *Engine) resolve(rec models.SupplierRecord) *catalog.Entry {
	if e.catalog == nil {
		return nil
	}
	return e.catalog.Resolve(rec.Label, rec.Code())
}

// founderScore scores a record against its group's founder, with the flat
// code bonus applied when the auxiliary codes match exactly
func (e *Engine) founderScore(state *groupState, rec models.SupplierRecord) int {
	founder := state.group.Founder()
	score := e.scorer.Score(rec.Label, founder.Label)
	if codesMatch(rec, *founder) {
		score += e.cfg.CodeBonus
		if score > 100 {
			score = 100
		}
	}
	return score
}

// weightedScore blends name similarity with exact code agreement
func (e *Engine) weightedScore(a, b models.SupplierRecord) int {
	nameScore := float64(e.scorer.Score(a.Label, b.Label))
	codeScore := 0.0
	if codesMatch(a, b) {
		codeScore = 100.0
	}
	return int(math.Round(e.cfg.NameWeight*nameScore + e.cfg.CodeWeight*codeScore))
}

func codesMatch(a, b models.SupplierRecord) bool {
	ca := normalizers.NormalizeCode(a.Code())
	cb := normalizers.NormalizeCode(b.Code())
	return ca != "" && ca == cb
}
