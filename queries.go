package main

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Queries is the read side over the unified views. Like Store it borrows
// its *sql.DB and owns no lifecycle. Every method recomputes from the
// base tables; nothing here is cached or incrementally maintained.
type Queries struct {
	db *sql.DB
}

func NewQueries(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// ItemFilters narrows the items-with-stats report. Zero values mean "no
// filter".
type ItemFilters struct {
	HasMobSources       bool
	HasContainerSources bool
	MinRate             float64
	ItemType            string
	Limit               int
}

const itemStatisticsColumns = `
	id, name, IFNULL(image, ''), IFNULL(type, ''),
	mob_sources, container_sources, total_sources,
	min_rate, max_rate, avg_rate`

func scanItemStatistics(rows *sql.Rows) (ItemStatistics, error) {
	var s ItemStatistics
	err := rows.Scan(
		&s.ItemID, &s.Name, &s.Image, &s.Type,
		&s.MobSources, &s.ContainerSources, &s.TotalSources,
		&s.MinRate, &s.MaxRate, &s.AvgRate,
	)
	return s, err
}

// ItemsWithStats lists per-item aggregates from the item_statistics view,
// most-sourced first.
func (q *Queries) ItemsWithStats(filters ItemFilters) ([]ItemStatistics, error) {
	query := `SELECT ` + itemStatisticsColumns + ` FROM item_statistics WHERE 1=1`
	var params []interface{}

	if filters.HasMobSources {
		query += ` AND mob_sources > 0`
	}
	if filters.HasContainerSources {
		query += ` AND container_sources > 0`
	}
	if filters.MinRate > 0 {
		query += ` AND max_rate >= ?`
		params = append(params, filters.MinRate)
	}
	if filters.ItemType != "" {
		query += ` AND type = ?`
		params = append(params, filters.ItemType)
	}
	query += ` ORDER BY total_sources DESC, avg_rate DESC`
	if filters.Limit > 0 {
		query += ` LIMIT ?`
		params = append(params, filters.Limit)
	}

	rows, err := q.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to query item statistics: %w", err)
	}
	defer rows.Close()

	var result []ItemStatistics
	for rows.Next() {
		s, err := scanItemStatistics(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// ItemStats returns the aggregates for a single item. sql.ErrNoRows means
// the item has no sources at all (or doesn't exist).
func (q *Queries) ItemStats(itemID int) (ItemStatistics, error) {
	rows, err := q.db.Query(
		`SELECT `+itemStatisticsColumns+` FROM item_statistics WHERE id = ?`, itemID)
	if err != nil {
		return ItemStatistics{}, fmt.Errorf("failed to query statistics for item %d: %w", itemID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return ItemStatistics{}, err
		}
		return ItemStatistics{}, sql.ErrNoRows
	}
	return scanItemStatistics(rows)
}

// ItemSources lists every (item, source) pair for one item from the
// unified view, best rate first. Mob rows carry quantity 1 by
// construction of the view.
func (q *Queries) ItemSources(itemID int) ([]ItemSource, error) {
	rows, err := q.db.Query(`
		SELECT item_id, item_name, source_type, source_id, source_name, rate, quantity
		FROM item_sources_unified
		WHERE item_id = ?
		ORDER BY rate DESC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources for item %d: %w", itemID, err)
	}
	defer rows.Close()

	var sources []ItemSource
	for rows.Next() {
		var s ItemSource
		if err := rows.Scan(&s.ItemID, &s.ItemName, &s.SourceType, &s.SourceID, &s.SourceName, &s.Rate, &s.Quantity); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// ValuableItems reports items with more than one source, tagged with
// their availability classification.
func (q *Queries) ValuableItems(limit int) ([]ItemStatistics, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.Query(`
		SELECT `+itemStatisticsColumns+`
		FROM item_statistics
		WHERE total_sources > 1
		ORDER BY total_sources DESC, avg_rate DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query valuable items: %w", err)
	}
	defer rows.Close()

	var result []ItemStatistics
	for rows.Next() {
		s, err := scanItemStatistics(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// HybridItems lists items obtainable from both at least one mob and at
// least one container.
func (q *Queries) HybridItems() ([]ItemStatistics, error) {
	return q.ItemsWithStats(ItemFilters{HasMobSources: true, HasContainerSources: true})
}

// ContainerSummary describes one catalog container together with the
// item that represents it and its drop pool size.
type ContainerSummary struct {
	GID        int             `json:"gid"`
	Name       string          `json:"name"`
	ItemID     int             `json:"item_id"`
	ItemName   string          `json:"item_name"`
	ItemType   string          `json:"item_type"`
	DropsCount int             `json:"drops_count"`
	AvgRate    sql.NullFloat64 `json:"avg_drop_rate"`
}

// ContainersWithItemInfo lists the catalog with per-container drop pool
// counts, in gid order.
func (q *Queries) ContainersWithItemInfo() ([]ContainerSummary, error) {
	rows, err := q.db.Query(`
		SELECT
			c.gid, c.name, IFNULL(c.item_id, 0),
			IFNULL(i.name, ''), IFNULL(i.type, ''),
			COUNT(cd.item_id), AVG(cd.rate)
		FROM containers c
		LEFT JOIN items i ON c.item_id = i.id
		LEFT JOIN container_drops cd ON c.id = cd.container_id
		GROUP BY c.id, c.gid, c.name, c.item_id, i.name, i.type
		ORDER BY c.gid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query container summaries: %w", err)
	}
	defer rows.Close()

	var result []ContainerSummary
	for rows.Next() {
		var s ContainerSummary
		if err := rows.Scan(&s.GID, &s.Name, &s.ItemID, &s.ItemName, &s.ItemType, &s.DropsCount, &s.AvgRate); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// MobDroppedContainer is a container whose representing item drops from a
// mob, i.e. a box you can farm rather than buy.
type MobDroppedContainer struct {
	ContainerName string  `json:"container_name"`
	ContainerGID  int     `json:"container_gid"`
	ItemName      string  `json:"item_name"`
	MobName       string  `json:"mob_name"`
	MobDropRate   float64 `json:"mob_drop_rate"`
	DropsCount    int     `json:"container_drops_count"`
}

// ContainersFromMobs lists the containers that are themselves mob drops,
// best drop rate first.
func (q *Queries) ContainersFromMobs() ([]MobDroppedContainer, error) {
	rows, err := q.db.Query(`
		SELECT
			c.name, c.gid, i.name, m.name, md.rate,
			(SELECT COUNT(*) FROM container_drops cd WHERE cd.container_id = c.id)
		FROM containers c
		JOIN items i ON c.item_id = i.id
		JOIN mob_drops md ON i.id = md.item_id
		JOIN mobs m ON md.mob_id = m.id
		ORDER BY md.rate DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mob-dropped containers: %w", err)
	}
	defer rows.Close()

	var result []MobDroppedContainer
	for rows.Next() {
		var c MobDroppedContainer
		if err := rows.Scan(&c.ContainerName, &c.ContainerGID, &c.ItemName, &c.MobName, &c.MobDropRate, &c.DropsCount); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// DatabaseStats computes the totals for the stats subcommand.
func (q *Queries) DatabaseStats() (DatabaseStats, error) {
	var stats DatabaseStats
	counts := []struct {
		dest  *int
		query string
	}{
		{&stats.TotalItems, `SELECT COUNT(*) FROM items`},
		{&stats.TotalMobs, `SELECT COUNT(*) FROM mobs`},
		{&stats.TotalContainers, `SELECT COUNT(*) FROM containers`},
		{&stats.ItemsFromMobs, `SELECT COUNT(DISTINCT item_id) FROM mob_drops`},
		{&stats.ItemsFromContainers, `SELECT COUNT(DISTINCT item_id) FROM container_drops`},
		{&stats.HybridItems, `SELECT COUNT(*) FROM item_statistics WHERE mob_sources > 0 AND container_sources > 0`},
	}
	for _, c := range counts {
		if err := q.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return stats, fmt.Errorf("failed to compute database stats: %w", err)
		}
	}
	return stats, nil
}

// SearchItems finds items by name. Substring matches come back first in
// name order; when nothing matches, the whole item list is ranked by edit
// distance so a typo still finds its item.
func (q *Queries) SearchItems(query string, limit int) ([]ItemSearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := q.db.Query(`
		SELECT id, name, IFNULL(type, '')
		FROM items
		WHERE name LIKE ? COLLATE NOCASE
		ORDER BY name
		LIMIT ?`, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	defer rows.Close()

	var results []ItemSearchResult
	for rows.Next() {
		var r ItemSearchResult
		if err := rows.Scan(&r.ID, &r.Name, &r.Type); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(results) > 0 {
		return results, nil
	}

	// No substring hit; fall back to fuzzy ranking over all names.
	all, err := q.db.Query(`SELECT id, name, IFNULL(type, '') FROM items`)
	if err != nil {
		return nil, fmt.Errorf("failed to load items for fuzzy search: %w", err)
	}
	defer all.Close()

	lowered := strings.ToLower(query)
	for all.Next() {
		var r ItemSearchResult
		if err := all.Scan(&r.ID, &r.Name, &r.Type); err != nil {
			return nil, err
		}
		r.Distance = levenshtein.ComputeDistance(lowered, strings.ToLower(r.Name))
		results = append(results, r)
	}
	if err := all.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Name < results[j].Name
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// LastUpdateTime returns the max value of a timestamp column, or "Never"
// when the table is empty.
func (q *Queries) LastUpdateTime(columnName, tableName string) string {
	var last sql.NullString
	query := fmt.Sprintf("SELECT MAX(%s) FROM %s", columnName, tableName)
	if err := q.db.QueryRow(query).Scan(&last); err != nil || !last.Valid {
		return "Never"
	}
	return last.String
}
