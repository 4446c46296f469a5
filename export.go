package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// DatabaseExport is the full JSON snapshot of the scraped database, one
// array per table.
type DatabaseExport struct {
	GeneratedAt string             `json:"generated_at"`
	Mobs        []ExportMob        `json:"mobs"`
	Items       []ExportItem       `json:"items"`
	MobDrops    []ExportMobDrop    `json:"mob_drops"`
	MobRespawns []ExportMobRespawn `json:"mob_respawns"`
	MobSkills   []ExportMobSkill   `json:"mob_skills"`
	MobStats    []ExportMobStat    `json:"mob_stats"`
	MobElements []ExportMobElement `json:"mob_elements"`
}

type ExportMob struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Image *string  `json:"image"`
	Mode  []string `json:"mode"`
}

type ExportItem struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Image       *string `json:"image"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
}

type ExportMobDrop struct {
	MobID  int      `json:"mob_id"`
	ItemID *int64   `json:"item_id"`
	Name   *string  `json:"name"`
	Image  *string  `json:"image"`
	Rate   *float64 `json:"rate"`
}

type ExportMobRespawn struct {
	MobID        int             `json:"mob_id"`
	Map          *string         `json:"map"`
	Count        *int64          `json:"count"`
	RespawnRules json.RawMessage `json:"respawn_rules"`
}

type ExportMobSkill struct {
	MobID int     `json:"mob_id"`
	Name  *string `json:"name"`
	Link  *string `json:"link"`
}

type ExportMobStat struct {
	MobID         int               `json:"mob_id"`
	HP            *int64            `json:"hp"`
	Level         *int64            `json:"level"`
	BaseExp       *int64            `json:"base_exp"`
	JobExp        *int64            `json:"job_exp"`
	Attack        *string           `json:"attack"`
	Defense       *int64            `json:"defense"`
	MagicDef      *int64            `json:"magic_def"`
	Flee95        *string           `json:"flee_95"`
	Hit100        *string           `json:"hit_100"`
	AtkDelay      *string           `json:"atk_delay"`
	AtkRange      *string           `json:"atk_range"`
	DelayAfterHit *string           `json:"delay_after_hit"`
	Str           *int64            `json:"str"`
	Agi           *int64            `json:"agi"`
	Vit           *int64            `json:"vit"`
	Int           *int64            `json:"int_stat"`
	Dex           *int64            `json:"dex"`
	Luk           *int64            `json:"luk"`
	Extra         map[string]string `json:"extra,omitempty"`
}

type ExportMobElement struct {
	MobID   int    `json:"mob_id"`
	Element string `json:"element"`
	Value   *int64 `json:"value"`
}

// exportMobName trims the trailing parenthetical IDs the site appends to
// mob names, so the snapshot carries clean display names.
func exportMobName(name string) string {
	if i := strings.Index(name, "("); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// BuildExport reads every table into the snapshot structure.
func (q *Queries) BuildExport() (*DatabaseExport, error) {
	export := &DatabaseExport{GeneratedAt: time.Now().UTC().Format(time.RFC3339)}

	if err := q.exportMobs(export); err != nil {
		return nil, err
	}
	if err := q.exportItems(export); err != nil {
		return nil, err
	}
	if err := q.exportMobDrops(export); err != nil {
		return nil, err
	}
	if err := q.exportMobRespawns(export); err != nil {
		return nil, err
	}
	if err := q.exportMobSkills(export); err != nil {
		return nil, err
	}
	if err := q.exportMobStats(export); err != nil {
		return nil, err
	}
	if err := q.exportMobElements(export); err != nil {
		return nil, err
	}

	return export, nil
}

// WriteExport streams the snapshot as indented JSON.
func (q *Queries) WriteExport(w io.Writer) error {
	export, err := q.BuildExport()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// ExportToFile writes the snapshot to a file and logs per-table counts.
func (q *Queries) ExportToFile(path string) error {
	export, err := q.BuildExport()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	log.Printf("✅ Exported to %s: %d mobs, %d items, %d drops, %d respawns, %d skills, %d stat rows, %d elements.",
		path, len(export.Mobs), len(export.Items), len(export.MobDrops),
		len(export.MobRespawns), len(export.MobSkills), len(export.MobStats), len(export.MobElements))
	return nil
}

func (q *Queries) exportMobs(export *DatabaseExport) error {
	rows, err := q.db.Query(`SELECT id, name, image, mode FROM mobs ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to export mobs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mob ExportMob
		var image sql.NullString
		var modeJSON string
		if err := rows.Scan(&mob.ID, &mob.Name, &image, &modeJSON); err != nil {
			return err
		}
		mob.Name = exportMobName(mob.Name)
		mob.Image = nullStringPtr(image)
		mob.Mode = []string{}
		if modeJSON != "" {
			if err := json.Unmarshal([]byte(modeJSON), &mob.Mode); err != nil {
				log.Printf("⚠️ Mob %d has unreadable mode %q, exporting empty.", mob.ID, modeJSON)
				mob.Mode = []string{}
			}
		}
		export.Mobs = append(export.Mobs, mob)
	}
	return rows.Err()
}

func (q *Queries) exportItems(export *DatabaseExport) error {
	rows, err := q.db.Query(`SELECT id, name, image, type, description FROM items ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to export items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item ExportItem
		var image, itemType, description sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &image, &itemType, &description); err != nil {
			return err
		}
		item.Image = nullStringPtr(image)
		item.Type = nullStringPtr(itemType)
		item.Description = nullStringPtr(description)
		export.Items = append(export.Items, item)
	}
	return rows.Err()
}

func (q *Queries) exportMobDrops(export *DatabaseExport) error {
	rows, err := q.db.Query(`SELECT mob_id, item_id, name, image, rate FROM mob_drops ORDER BY mob_id, item_id`)
	if err != nil {
		return fmt.Errorf("failed to export mob drops: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var drop ExportMobDrop
		var itemID sql.NullInt64
		var name, image sql.NullString
		var rate sql.NullFloat64
		if err := rows.Scan(&drop.MobID, &itemID, &name, &image, &rate); err != nil {
			return err
		}
		drop.ItemID = nullInt64Ptr(itemID)
		drop.Name = nullStringPtr(name)
		drop.Image = nullStringPtr(image)
		drop.Rate = nullFloat64Ptr(rate)
		export.MobDrops = append(export.MobDrops, drop)
	}
	return rows.Err()
}

func (q *Queries) exportMobRespawns(export *DatabaseExport) error {
	rows, err := q.db.Query(`SELECT mob_id, map, count, respawn_rules FROM mob_respawns ORDER BY mob_id, map`)
	if err != nil {
		return fmt.Errorf("failed to export mob respawns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var respawn ExportMobRespawn
		var mapCode sql.NullString
		var count sql.NullInt64
		var rules sql.NullString
		if err := rows.Scan(&respawn.MobID, &mapCode, &count, &rules); err != nil {
			return err
		}
		respawn.Map = nullStringPtr(mapCode)
		respawn.Count = nullInt64Ptr(count)
		if rules.Valid && json.Valid([]byte(rules.String)) {
			respawn.RespawnRules = json.RawMessage(rules.String)
		} else {
			respawn.RespawnRules = json.RawMessage("null")
		}
		export.MobRespawns = append(export.MobRespawns, respawn)
	}
	return rows.Err()
}

func (q *Queries) exportMobSkills(export *DatabaseExport) error {
	rows, err := q.db.Query(`SELECT mob_id, name, link FROM mob_skills ORDER BY mob_id, name`)
	if err != nil {
		return fmt.Errorf("failed to export mob skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var skill ExportMobSkill
		var name, link sql.NullString
		if err := rows.Scan(&skill.MobID, &name, &link); err != nil {
			return err
		}
		skill.Name = nullStringPtr(name)
		skill.Link = nullStringPtr(link)
		export.MobSkills = append(export.MobSkills, skill)
	}
	return rows.Err()
}

func (q *Queries) exportMobStats(export *DatabaseExport) error {
	rows, err := q.db.Query(`
		SELECT mob_id, hp, level, base_exp, job_exp, attack, defense,
		       magic_def, flee_95, hit_100, atk_delay, atk_range, delay_after_hit,
		       str, agi, vit, int_stat, dex, luk, extra_json
		FROM mob_stats ORDER BY mob_id`)
	if err != nil {
		return fmt.Errorf("failed to export mob stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stat ExportMobStat
		var hp, level, baseExp, jobExp, defense, magicDef sql.NullInt64
		var str, agi, vit, intStat, dex, luk sql.NullInt64
		var attack, flee95, hit100, atkDelay, atkRange, delayAfterHit sql.NullString
		var extraJSON sql.NullString
		if err := rows.Scan(&stat.MobID, &hp, &level, &baseExp, &jobExp, &attack, &defense,
			&magicDef, &flee95, &hit100, &atkDelay, &atkRange, &delayAfterHit,
			&str, &agi, &vit, &intStat, &dex, &luk, &extraJSON); err != nil {
			return err
		}
		stat.HP = nullInt64Ptr(hp)
		stat.Level = nullInt64Ptr(level)
		stat.BaseExp = nullInt64Ptr(baseExp)
		stat.JobExp = nullInt64Ptr(jobExp)
		stat.Attack = nullStringPtr(attack)
		stat.Defense = nullInt64Ptr(defense)
		stat.MagicDef = nullInt64Ptr(magicDef)
		stat.Flee95 = nullStringPtr(flee95)
		stat.Hit100 = nullStringPtr(hit100)
		stat.AtkDelay = nullStringPtr(atkDelay)
		stat.AtkRange = nullStringPtr(atkRange)
		stat.DelayAfterHit = nullStringPtr(delayAfterHit)
		stat.Str = nullInt64Ptr(str)
		stat.Agi = nullInt64Ptr(agi)
		stat.Vit = nullInt64Ptr(vit)
		stat.Int = nullInt64Ptr(intStat)
		stat.Dex = nullInt64Ptr(dex)
		stat.Luk = nullInt64Ptr(luk)
		if extraJSON.Valid {
			_ = json.Unmarshal([]byte(extraJSON.String), &stat.Extra)
		}
		export.MobStats = append(export.MobStats, stat)
	}
	return rows.Err()
}

func (q *Queries) exportMobElements(export *DatabaseExport) error {
	rows, err := q.db.Query(`SELECT mob_id, element, value FROM mob_elements ORDER BY mob_id, element`)
	if err != nil {
		return fmt.Errorf("failed to export mob elements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var element ExportMobElement
		var value sql.NullInt64
		if err := rows.Scan(&element.MobID, &element.Element, &value); err != nil {
			return err
		}
		element.Value = nullInt64Ptr(value)
		export.MobElements = append(export.MobElements, element)
	}
	return rows.Err()
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullFloat64Ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
