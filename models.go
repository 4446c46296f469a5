package main

import "database/sql"

// Mob is one monster entry from the mob database. The ID comes from the
// source site and is stable across scrapes.
type Mob struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Image string   `json:"image"`
	Mode  []string `json:"mode"`
}

// MobStats holds the combat attributes scraped from the stat table.
// Attack and the threshold columns stay textual because the site renders
// them as ranges ("120~150") rather than plain numbers.
type MobStats struct {
	MobID         int            `json:"mob_id"`
	HP            sql.NullInt64  `json:"hp"`
	Level         sql.NullInt64  `json:"level"`
	BaseExp       sql.NullInt64  `json:"base_exp"`
	JobExp        sql.NullInt64  `json:"job_exp"`
	Attack        string         `json:"attack"`
	Defense       sql.NullInt64  `json:"defense"`
	MagicDef      sql.NullInt64  `json:"magic_def"`
	Flee95        string         `json:"flee_95"`
	Hit100        string         `json:"hit_100"`
	AtkDelay      string         `json:"atk_delay"`
	AtkRange      string         `json:"atk_range"`
	DelayAfterHit string         `json:"delay_after_hit"`
	Str           sql.NullInt64  `json:"str"`
	Agi           sql.NullInt64  `json:"agi"`
	Vit           sql.NullInt64  `json:"vit"`
	Int           sql.NullInt64  `json:"int_stat"`
	Dex           sql.NullInt64  `json:"dex"`
	Luk           sql.NullInt64  `json:"luk"`
	// Extra keeps stat labels the site added that we don't recognize yet,
	// so a re-export still carries them.
	Extra map[string]string `json:"extra,omitempty"`
}

// Respawn rule kinds. The source site renders spawn timing in exactly two
// formats, and anything else falls through as unparsed raw text.
const (
	RespawnFixed    = "fixed"
	RespawnDynamic  = "dynamic"
	RespawnUnparsed = "unparsed"
)

// RespawnRules is the tagged result of parseRespawnRules. Kind is always
// one of the Respawn* constants; Raw is only set for unparsed input.
type RespawnRules struct {
	Kind  string `json:"type"`
	Count int    `json:"count,omitempty"`
	Min   int    `json:"min,omitempty"`
	Max   int    `json:"max,omitempty"`
	Raw   string `json:"-"`
}

// MobRespawn is one (map, spawn rule) pair for a mob.
type MobRespawn struct {
	MobID   int          `json:"mob_id"`
	Map     string       `json:"map"`
	MapName string       `json:"map_name,omitempty"`
	Count   int          `json:"count"`
	Rules   RespawnRules `json:"respawn_rules"`
}

// MobDrop says "this mob can drop this item at this rate". Rate is a
// percentage, possibly fractional (0.05 is a real drop rate).
type MobDrop struct {
	MobID  int     `json:"mob_id"`
	ItemID int     `json:"item_id"`
	Name   string  `json:"name"`
	Image  string  `json:"image"`
	Rate   float64 `json:"rate"`
}

// MobSkill is purely descriptive: a skill name plus its reference link.
type MobSkill struct {
	MobID int    `json:"mob_id"`
	Name  string `json:"name"`
	Link  string `json:"link"`
}

// MobElement is the elemental affinity of a mob for one named element.
type MobElement struct {
	MobID   int    `json:"mob_id"`
	Element string `json:"element"`
	Value   int    `json:"value"`
}

// MobRecord is one fully assembled entity graph for a single mob, ready
// for the upsert pipeline.
type MobRecord struct {
	Mob      Mob
	Stats    MobStats
	Respawns []MobRespawn
	Drops    []MobDrop
	Skills   []MobSkill
	Elements []MobElement
}

// Item is the canonical item row shared by mob drops and container drops.
type Item struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Container is a lootable box/album. GID is the business key the source
// site uses; the surrogate ID only exists in our store.
type Container struct {
	ID     int    `json:"id"`
	GID    int    `json:"gid"`
	Name   string `json:"name"`
	ItemID int    `json:"item_id"`
}

// ContainerDrop is one item obtainable from a container. The source page
// does not expose drop rates for containers, so Rate is usually null.
type ContainerDrop struct {
	ContainerGID int             `json:"container_gid"`
	ItemID       int             `json:"item_id"`
	Item         *Item           `json:"item,omitempty"`
	Rate         sql.NullFloat64 `json:"rate"`
	Quantity     int             `json:"quantity"`
}

// ContainerRecord is the assembled graph for one container scrape pass.
type ContainerRecord struct {
	GID   int
	Name  string
	Drops []ContainerDrop
}

// ContainerReport tallies one container's ingestion for the batch report.
type ContainerReport struct {
	GID            int    `json:"gid"`
	Name           string `json:"name"`
	ItemsFound     int    `json:"items_found"`
	ItemsProcessed int    `json:"items_processed"`
	ItemsSkipped   int    `json:"items_skipped"`
	Err            string `json:"error,omitempty"`
}

// ItemSource is one row of the unified item-source view: either a mob
// drop or a container drop, normalized to the same shape.
type ItemSource struct {
	ItemID     int             `json:"item_id"`
	ItemName   string          `json:"item_name"`
	SourceType string          `json:"source_type"`
	SourceID   int             `json:"source_id"`
	SourceName string          `json:"source_name"`
	Rate       sql.NullFloat64 `json:"rate"`
	Quantity   int             `json:"quantity"`
}

// ItemStatistics aggregates the unified view per item.
type ItemStatistics struct {
	ItemID           int             `json:"item_id"`
	Name             string          `json:"name"`
	Image            string          `json:"image"`
	Type             string          `json:"type"`
	MobSources       int             `json:"mob_sources"`
	ContainerSources int             `json:"container_sources"`
	TotalSources     int             `json:"total_sources"`
	MinRate          sql.NullFloat64 `json:"min_rate"`
	MaxRate          sql.NullFloat64 `json:"max_rate"`
	AvgRate          sql.NullFloat64 `json:"avg_rate"`
}

// Hybrid reports whether the item drops from at least one mob and at
// least one container.
func (s ItemStatistics) Hybrid() bool {
	return s.MobSources > 0 && s.ContainerSources > 0
}

// AvailabilityType mirrors the classification of the valuable-items
// report: hybrid, mob_only, container_only or unknown.
func (s ItemStatistics) AvailabilityType() string {
	switch {
	case s.Hybrid():
		return "hybrid"
	case s.MobSources > 0:
		return "mob_only"
	case s.ContainerSources > 0:
		return "container_only"
	}
	return "unknown"
}

// DatabaseStats holds the totals shown by the stats subcommand.
type DatabaseStats struct {
	TotalItems          int `json:"total_items"`
	TotalMobs           int `json:"total_mobs"`
	TotalContainers     int `json:"total_containers"`
	ItemsFromMobs       int `json:"items_from_mobs"`
	ItemsFromContainers int `json:"items_from_containers"`
	HybridItems         int `json:"hybrid_items"`
}

// ItemSearchResult is one hit from the item name search, ranked by edit
// distance when no exact match exists.
type ItemSearchResult struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Distance int    `json:"distance"`
}
