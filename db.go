package main

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const (
	createMobsTableSQL = `
	CREATE TABLE IF NOT EXISTS mobs (
		"id" INTEGER NOT NULL PRIMARY KEY,
		"name" TEXT NOT NULL,
		"image" TEXT,
		"mode" TEXT NOT NULL DEFAULT '[]',
		"created_at" TEXT NOT NULL DEFAULT (datetime('now')),
		"updated_at" TEXT NOT NULL DEFAULT (datetime('now'))
	);`

	createMobStatsTableSQL = `
	CREATE TABLE IF NOT EXISTS mob_stats (
		"mob_id" INTEGER NOT NULL PRIMARY KEY REFERENCES mobs(id) ON DELETE CASCADE,
		"hp" INTEGER,
		"level" INTEGER,
		"base_exp" INTEGER,
		"job_exp" INTEGER,
		"attack" TEXT,
		"defense" INTEGER,
		"magic_def" INTEGER,
		"flee_95" TEXT,
		"hit_100" TEXT,
		"atk_delay" TEXT,
		"atk_range" TEXT,
		"delay_after_hit" TEXT,
		"str" INTEGER,
		"agi" INTEGER,
		"vit" INTEGER,
		"int_stat" INTEGER,
		"dex" INTEGER,
		"luk" INTEGER,
		"extra_json" TEXT,
		"created_at" TEXT NOT NULL DEFAULT (datetime('now')),
		"updated_at" TEXT NOT NULL DEFAULT (datetime('now'))
	);`

	createMobRespawnsTableSQL = `
	CREATE TABLE IF NOT EXISTS mob_respawns (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"mob_id" INTEGER NOT NULL REFERENCES mobs(id) ON DELETE CASCADE,
		"map" TEXT,
		"count" INTEGER,
		"respawn_rules" TEXT,
		"created_at" TEXT NOT NULL DEFAULT (datetime('now')),
		UNIQUE("mob_id", "map")
	);`

	createMobDropsTableSQL = `
	CREATE TABLE IF NOT EXISTS mob_drops (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"mob_id" INTEGER NOT NULL REFERENCES mobs(id) ON DELETE CASCADE,
		"item_id" INTEGER,
		"name" TEXT,
		"image" TEXT,
		"rate" REAL,
		"created_at" TEXT NOT NULL DEFAULT (datetime('now')),
		UNIQUE("mob_id", "item_id")
	);`

	createMobSkillsTableSQL = `
	CREATE TABLE IF NOT EXISTS mob_skills (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"mob_id" INTEGER NOT NULL REFERENCES mobs(id) ON DELETE CASCADE,
		"name" TEXT,
		"link" TEXT,
		"created_at" TEXT NOT NULL DEFAULT (datetime('now')),
		UNIQUE("mob_id", "name")
	);`

	createMobElementsTableSQL = `
	CREATE TABLE IF NOT EXISTS mob_elements (
		"mob_id" INTEGER NOT NULL REFERENCES mobs(id) ON DELETE CASCADE,
		"element" TEXT NOT NULL,
		"value" INTEGER,
		"created_at" TEXT NOT NULL DEFAULT (datetime('now')),
		PRIMARY KEY ("mob_id", "element")
	);`

	createItemsTableSQL = `
	CREATE TABLE IF NOT EXISTS items (
		"id" INTEGER NOT NULL PRIMARY KEY,
		"name" TEXT NOT NULL,
		"image" TEXT,
		"type" TEXT,
		"description" TEXT,
		"created_at" TEXT NOT NULL DEFAULT (datetime('now')),
		"updated_at" TEXT NOT NULL DEFAULT (datetime('now'))
	);`

	createContainersTableSQL = `
	CREATE TABLE IF NOT EXISTS containers (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"gid" INTEGER NOT NULL UNIQUE,
		"name" TEXT NOT NULL,
		"item_id" INTEGER REFERENCES items(id) ON DELETE SET NULL,
		"description" TEXT,
		"created_at" TEXT NOT NULL DEFAULT (datetime('now')),
		"updated_at" TEXT NOT NULL DEFAULT (datetime('now'))
	);`

	createContainerDropsTableSQL = `
	CREATE TABLE IF NOT EXISTS container_drops (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"container_id" INTEGER NOT NULL REFERENCES containers(id) ON DELETE CASCADE,
		"item_id" INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		"rate" REAL,
		"quantity" INTEGER NOT NULL DEFAULT 1,
		"created_at" TEXT NOT NULL DEFAULT (datetime('now')),
		UNIQUE("container_id", "item_id")
	);`

	// item_sources_unified folds the two structurally different "item has
	// a source" relations into one. Mob drops have no quantity concept, so
	// their quantity is a constant 1.
	createItemSourcesViewSQL = `
	CREATE VIEW IF NOT EXISTS item_sources_unified AS
	SELECT
		i.id AS item_id,
		i.name AS item_name,
		i.image AS item_image,
		i.type AS item_type,
		'mob' AS source_type,
		m.id AS source_id,
		m.name AS source_name,
		md.rate AS rate,
		1 AS quantity
	FROM items i
	JOIN mob_drops md ON i.id = md.item_id
	JOIN mobs m ON md.mob_id = m.id
	UNION ALL
	SELECT
		i.id AS item_id,
		i.name AS item_name,
		i.image AS item_image,
		i.type AS item_type,
		'container' AS source_type,
		c.gid AS source_id,
		c.name AS source_name,
		cd.rate AS rate,
		cd.quantity AS quantity
	FROM items i
	JOIN container_drops cd ON i.id = cd.item_id
	JOIN containers c ON cd.container_id = c.id;`

	// NULL rates (container pages don't publish them) drop out of the
	// MIN/MAX/AVG aggregates on their own.
	createItemStatisticsViewSQL = `
	CREATE VIEW IF NOT EXISTS item_statistics AS
	SELECT
		i.id,
		i.name,
		i.image,
		i.type,
		COUNT(CASE WHEN u.source_type = 'mob' THEN 1 END) AS mob_sources,
		COUNT(CASE WHEN u.source_type = 'container' THEN 1 END) AS container_sources,
		COUNT(*) AS total_sources,
		MIN(u.rate) AS min_rate,
		MAX(u.rate) AS max_rate,
		AVG(u.rate) AS avg_rate
	FROM items i
	JOIN item_sources_unified u ON i.id = u.item_id
	GROUP BY i.id, i.name, i.image, i.type;`
)

// containerCatalog is the ground-truth list of lootable boxes/albums. The
// source site identifies them by gid; these rows are seeded verbatim, not
// scraped.
var containerCatalog = []Container{
	{GID: 1, Name: "Old Blue Box", ItemID: 603},
	{GID: 2, Name: "Old Purple Box", ItemID: 617},
	{GID: 3, Name: "Old Card Album", ItemID: 616},
	{GID: 4, Name: "Gift Box", ItemID: 665},
	{GID: 25, Name: "Wrapped Mask", ItemID: 12107},
	{GID: 26, Name: "Jewelry Box", ItemID: 12106},
	{GID: 40, Name: "Old Red Box", ItemID: 12186},
	{GID: 38, Name: "Old Red Box 2", ItemID: 12189},
	{GID: 42, Name: "Old Yellow Box", ItemID: 12240},
	{GID: 43, Name: "Old Gift Box", ItemID: 12244},
	{GID: 44, Name: "Mystical Card Album", ItemID: 12246},
	{GID: 46, Name: "Fancy Ball Box", ItemID: 12248},
	{GID: 48, Name: "Masquerade Ball Box 2", ItemID: 12286},
	{GID: 51, Name: "Treasure Ed. Helm Box", ItemID: 12334},
	{GID: 52, Name: "Treasure Ed. Box", ItemID: 12339},
}

// initDB opens the SQLite database, creates every table, index and view,
// and seeds the container catalog. Foreign keys are switched on through
// the DSN so the cascade constraints actually fire.
func initDB(filepath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", filepath+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer. One pooled connection sidesteps
	// SQLITE_BUSY and keeps an in-memory database on one connection.
	db.SetMaxOpenConns(1)

	queries := []struct {
		name string
		sql  string
	}{
		{"mobs", createMobsTableSQL},
		{"mob_stats", createMobStatsTableSQL},
		{"mob_respawns", createMobRespawnsTableSQL},
		{"mob_drops", createMobDropsTableSQL},
		{"mob_skills", createMobSkillsTableSQL},
		{"mob_elements", createMobElementsTableSQL},
		{"items", createItemsTableSQL},
		{"containers", createContainersTableSQL},
		{"container_drops", createContainerDropsTableSQL},
		{"item_sources_unified", createItemSourcesViewSQL},
		{"item_statistics", createItemStatisticsViewSQL},
	}

	for _, q := range queries {
		if _, err = db.Exec(q.sql); err != nil {
			db.Close()
			return nil, fmt.Errorf("could not create table/view '%s': %w", q.name, err)
		}
	}

	indexQueries := []string{
		`CREATE INDEX IF NOT EXISTS idx_mob_drops_mob ON mob_drops (mob_id);`,
		`CREATE INDEX IF NOT EXISTS idx_mob_drops_item ON mob_drops (item_id);`,
		`CREATE INDEX IF NOT EXISTS idx_mob_respawns_mob ON mob_respawns (mob_id);`,
		`CREATE INDEX IF NOT EXISTS idx_container_drops_container ON container_drops (container_id);`,
		`CREATE INDEX IF NOT EXISTS idx_container_drops_item ON container_drops (item_id);`,
		`CREATE INDEX IF NOT EXISTS idx_containers_item ON containers (item_id);`,
		`CREATE INDEX IF NOT EXISTS idx_containers_gid ON containers (gid);`,
	}

	for i, query := range indexQueries {
		if _, err = db.Exec(query); err != nil {
			db.Close()
			return nil, fmt.Errorf("could not create index #%d: %w", i, err)
		}
	}

	if err := seedContainers(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// seedContainers upserts the fixed container catalog. Re-running setup
// refreshes name/item_id in place; gid is the conflict key. Each catalog
// entry references the item that represents the box itself, so a stub
// item row is planted first; a later item scrape fills in the rest.
func seedContainers(db *sql.DB) error {
	itemStmt, err := db.Prepare(`
		INSERT INTO items (id, name)
		VALUES (?, ?)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("could not prepare container item stub: %w", err)
	}
	defer itemStmt.Close()

	stmt, err := db.Prepare(`
		INSERT INTO containers (gid, name, item_id)
		VALUES (?, ?, ?)
		ON CONFLICT (gid) DO UPDATE SET
			name = excluded.name,
			item_id = excluded.item_id,
			updated_at = datetime('now')`)
	if err != nil {
		return fmt.Errorf("could not prepare container seed: %w", err)
	}
	defer stmt.Close()

	for _, c := range containerCatalog {
		if _, err := itemStmt.Exec(c.ItemID, c.Name); err != nil {
			return fmt.Errorf("could not seed item stub %d (%s): %w", c.ItemID, c.Name, err)
		}
		if _, err := stmt.Exec(c.GID, c.Name, c.ItemID); err != nil {
			return fmt.Errorf("could not seed container gid %d (%s): %w", c.GID, c.Name, err)
		}
	}
	return nil
}
