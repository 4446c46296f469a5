package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// ErrContainerNotFound signals that a batch of drops referenced a gid the
// container catalog doesn't know. Unlike a single bad drop this aborts
// the whole batch: there is no parent row to attach the drops to.
var ErrContainerNotFound = errors.New("container not found")

// Store is the write side of the database. The *sql.DB is handed in at
// construction; Store never opens or closes connections itself.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// marshalRespawnRules serializes a respawn rule the way the store expects
// it: dynamic rules keep their timing fields, everything else collapses
// to a bare fixed tag (a rule whose timing could not be determined has no
// variable fields to record).
func marshalRespawnRules(rules RespawnRules) string {
	if rules.Kind == RespawnDynamic {
		data, _ := json.Marshal(struct {
			Type  string `json:"type"`
			Count int    `json:"count"`
			Min   int    `json:"min"`
			Max   int    `json:"max"`
		}{RespawnDynamic, rules.Count, rules.Min, rules.Max})
		return string(data)
	}
	return `{"type":"fixed"}`
}

// InsertCompleteMob writes one assembled mob graph inside a single
// transaction. Parent-before-child order is a hard requirement of the
// foreign keys: the mob row goes first, and each drop's item row goes in
// before its mob_drops edge. Every statement is a conflict no-op, so
// replaying the same graph leaves the store untouched.
func (s *Store) InsertCompleteMob(rec MobRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction for mob %d: %w", rec.Mob.ID, err)
	}
	defer tx.Rollback()

	if err := insertMob(tx, rec.Mob); err != nil {
		return err
	}

	for _, drop := range rec.Drops {
		if drop.ItemID <= 0 {
			log.Printf("⚠️ Skipping drop '%s' for mob %d: no usable item id", drop.Name, rec.Mob.ID)
			continue
		}
		if err := insertItemStub(tx, drop); err != nil {
			return err
		}
		if err := insertMobDrop(tx, drop); err != nil {
			return err
		}
	}

	if err := insertMobRespawns(tx, rec.Mob.ID, rec.Respawns); err != nil {
		return err
	}
	if err := insertMobSkills(tx, rec.Mob.ID, rec.Skills); err != nil {
		return err
	}
	rec.Stats.MobID = rec.Mob.ID
	if err := insertMobStats(tx, rec.Stats); err != nil {
		return err
	}
	if err := insertMobElements(tx, rec.Elements); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mob %d: %w", rec.Mob.ID, err)
	}

	log.Printf("✅ Mob %s (ID: %d) stored.", rec.Mob.Name, rec.Mob.ID)
	return nil
}

// insertMob creates the mob row once. A later scrape of the same ID never
// touches the existing row, stale name included.
func insertMob(tx *sql.Tx, mob Mob) error {
	mode := mob.Mode
	if mode == nil {
		mode = []string{}
	}
	modeJSON, err := json.Marshal(mode)
	if err != nil {
		return fmt.Errorf("failed to marshal mode for mob %d: %w", mob.ID, err)
	}

	_, err = tx.Exec(`
		INSERT INTO mobs (id, name, image, mode)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		mob.ID, mob.Name, mob.Image, string(modeJSON))
	if err != nil {
		return fmt.Errorf("failed to insert mob %d: %w", mob.ID, err)
	}
	return nil
}

// insertItemStub plants the item row a mob drop references. A mob scrape
// only knows name and image; the full item scrape owns the row content,
// so an existing row is left alone here.
func insertItemStub(tx *sql.Tx, drop MobDrop) error {
	_, err := tx.Exec(`
		INSERT INTO items (id, name, image)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		drop.ItemID, drop.Name, drop.Image)
	if err != nil {
		return fmt.Errorf("failed to insert item %d: %w", drop.ItemID, err)
	}
	return nil
}

func insertMobDrop(tx *sql.Tx, drop MobDrop) error {
	_, err := tx.Exec(`
		INSERT INTO mob_drops (mob_id, item_id, name, image, rate)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (mob_id, item_id) DO NOTHING`,
		drop.MobID, drop.ItemID, drop.Name, drop.Image, drop.Rate)
	if err != nil {
		return fmt.Errorf("failed to insert drop %d for mob %d: %w", drop.ItemID, drop.MobID, err)
	}
	return nil
}

// insertMobRespawns records one row per (mob, map) pair. Re-scraping an
// already known pair is a silent no-op: respawn rules are never updated,
// only new maps are added.
func insertMobRespawns(tx *sql.Tx, mobID int, respawns []MobRespawn) error {
	stmt, err := tx.Prepare(`
		INSERT INTO mob_respawns (mob_id, map, count, respawn_rules)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (mob_id, map) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare respawn insert for mob %d: %w", mobID, err)
	}
	defer stmt.Close()

	for _, r := range respawns {
		if _, err := stmt.Exec(mobID, r.Map, r.Count, marshalRespawnRules(r.Rules)); err != nil {
			return fmt.Errorf("failed to insert respawn on %s for mob %d: %w", r.Map, mobID, err)
		}
	}
	return nil
}

func insertMobSkills(tx *sql.Tx, mobID int, skills []MobSkill) error {
	stmt, err := tx.Prepare(`
		INSERT INTO mob_skills (mob_id, name, link)
		VALUES (?, ?, ?)
		ON CONFLICT (mob_id, name) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare skill insert for mob %d: %w", mobID, err)
	}
	defer stmt.Close()

	for _, sk := range skills {
		if _, err := stmt.Exec(mobID, sk.Name, sk.Link); err != nil {
			return fmt.Errorf("failed to insert skill '%s' for mob %d: %w", sk.Name, mobID, err)
		}
	}
	return nil
}

// insertMobStats is one-shot: once recorded, a mob's stats are frozen
// against future re-scrapes even if the site changes them.
func insertMobStats(tx *sql.Tx, stats MobStats) error {
	var extraJSON sql.NullString
	if len(stats.Extra) > 0 {
		data, err := json.Marshal(stats.Extra)
		if err != nil {
			return fmt.Errorf("failed to marshal extra stats for mob %d: %w", stats.MobID, err)
		}
		extraJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := tx.Exec(`
		INSERT INTO mob_stats (
			mob_id, hp, level, base_exp, job_exp, attack, defense,
			magic_def, flee_95, hit_100, atk_delay, atk_range, delay_after_hit,
			str, agi, vit, int_stat, dex, luk, extra_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (mob_id) DO NOTHING`,
		stats.MobID, stats.HP, stats.Level, stats.BaseExp, stats.JobExp,
		stats.Attack, stats.Defense, stats.MagicDef, stats.Flee95, stats.Hit100,
		stats.AtkDelay, stats.AtkRange, stats.DelayAfterHit,
		stats.Str, stats.Agi, stats.Vit, stats.Int, stats.Dex, stats.Luk,
		extraJSON)
	if err != nil {
		return fmt.Errorf("failed to insert stats for mob %d: %w", stats.MobID, err)
	}
	return nil
}

func insertMobElements(tx *sql.Tx, elements []MobElement) error {
	stmt, err := tx.Prepare(`
		INSERT INTO mob_elements (mob_id, element, value)
		VALUES (?, ?, ?)
		ON CONFLICT (mob_id, element) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to prepare element insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range elements {
		if _, err := stmt.Exec(e.MobID, e.Element, e.Value); err != nil {
			return fmt.Errorf("failed to insert element '%s' for mob %d: %w", e.Element, e.MobID, err)
		}
	}
	return nil
}

// InsertOrUpdateItem is the full-replacement item upsert. Items, unlike
// mobs, are mutable: every pass refreshes name/image/type/description and
// bumps updated_at.
func (s *Store) InsertOrUpdateItem(item Item) error {
	_, err := s.db.Exec(`
		INSERT INTO items (id, name, image, type, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			image = excluded.image,
			type = excluded.type,
			description = excluded.description,
			updated_at = datetime('now')`,
		item.ID, item.Name, item.Image, item.Type, item.Description)
	if err != nil {
		return fmt.Errorf("failed to upsert item %d (%s): %w", item.ID, item.Name, err)
	}
	return nil
}

// containerIDByGID resolves a catalog gid to its surrogate key, returning
// ErrContainerNotFound for an unknown gid.
func (s *Store) containerIDByGID(gid int) (int, error) {
	var id int
	err := s.db.QueryRow(`SELECT id FROM containers WHERE gid = ?`, gid).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("gid %d: %w", gid, ErrContainerNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up container gid %d: %w", gid, err)
	}
	return id, nil
}

// InsertContainerDrops attaches a batch of drops to an already seeded
// container. A missing gid fails the whole batch before anything is
// written; a single bad drop is logged, counted as skipped and does not
// stop the rest. Container drops, unlike mob drops, refresh rate and
// quantity on every pass.
func (s *Store) InsertContainerDrops(gid int, drops []ContainerDrop) (processed, skipped int, err error) {
	if len(drops) == 0 {
		log.Printf("ℹ️ No drops to insert for container gid %d.", gid)
		return 0, 0, nil
	}

	containerID, err := s.containerIDByGID(gid)
	if err != nil {
		return 0, 0, err
	}

	for _, drop := range drops {
		if drop.ItemID <= 0 {
			log.Printf("⚠️ Skipping drop for container gid %d: no usable item id (%s)", gid, dropLabel(drop))
			skipped++
			continue
		}

		if drop.Item != nil {
			if err := s.InsertOrUpdateItem(*drop.Item); err != nil {
				log.Printf("⚠️ Failed to upsert item %d for container gid %d: %v", drop.ItemID, gid, err)
				skipped++
				continue
			}
		}

		quantity := drop.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		_, execErr := s.db.Exec(`
			INSERT INTO container_drops (container_id, item_id, rate, quantity)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (container_id, item_id) DO UPDATE SET
				rate = excluded.rate,
				quantity = excluded.quantity`,
			containerID, drop.ItemID, drop.Rate, quantity)
		if execErr != nil {
			log.Printf("⚠️ Failed to insert drop %d for container gid %d: %v", drop.ItemID, gid, execErr)
			skipped++
			continue
		}
		processed++
	}

	log.Printf("✅ %d drop(s) stored for container gid %d (%d skipped).", processed, gid, skipped)
	return processed, skipped, nil
}

// InsertCompleteContainer ingests one assembled container graph and
// returns its batch report. The container row itself is never created
// here; seeding owns that.
func (s *Store) InsertCompleteContainer(rec ContainerRecord) ContainerReport {
	report := ContainerReport{GID: rec.GID, Name: rec.Name, ItemsFound: len(rec.Drops)}

	processed, skipped, err := s.InsertContainerDrops(rec.GID, rec.Drops)
	if err != nil {
		log.Printf("❌ Failed to store container %s (gid %d): %v", rec.Name, rec.GID, err)
		report.Err = err.Error()
		return report
	}

	report.ItemsProcessed = processed
	report.ItemsSkipped = skipped
	return report
}

// ExistingMobIDs returns the set of mob IDs already stored, so the
// driving loop can skip them before fetching anything.
func (s *Store) ExistingMobIDs() (map[int]bool, error) {
	rows, err := s.db.Query(`SELECT id FROM mobs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing mob ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func dropLabel(drop ContainerDrop) string {
	if drop.Item != nil && drop.Item.Name != "" {
		return drop.Item.Name
	}
	return fmt.Sprintf("item_id=%d", drop.ItemID)
}
