package main

import (
	"database/sql"
	"strconv"
	"strings"
)

// assembleStatTable folds the raw stat table cells into a flat label ->
// value map. The site packs 1-3 label/value pairs per row (2, 3, 4 or 6
// cells), so every row is walked pairwise: cell 2k is the label, cell
// 2k+1 its value. Pairs with an empty label are skipped. Values stay raw
// text here; typed coercion happens when the MobStats row is built.
func assembleStatTable(rows [][]string) map[string]string {
	stats := make(map[string]string)
	for _, cells := range rows {
		for i := 0; i+1 < len(cells); i += 2 {
			label := strings.TrimSpace(cells[i])
			if label == "" {
				continue
			}
			stats[label] = strings.TrimSpace(cells[i+1])
		}
	}
	return stats
}

// statLabels enumerates every stat label we recognize on the mob page and
// the MobStats field it feeds. Anything else lands in the Extra bag so a
// site-side addition survives a round trip instead of being dropped.
var statLabels = map[string]func(*MobStats, string){
	"HP":              func(s *MobStats, v string) { s.HP = toNullInt(v) },
	"Level":           func(s *MobStats, v string) { s.Level = toNullInt(v) },
	"Base Exp":        func(s *MobStats, v string) { s.BaseExp = toNullInt(v) },
	"Job Exp":         func(s *MobStats, v string) { s.JobExp = toNullInt(v) },
	"Attack":          func(s *MobStats, v string) { s.Attack = v },
	"Def":             func(s *MobStats, v string) { s.Defense = toNullInt(v) },
	"Magic Def":       func(s *MobStats, v string) { s.MagicDef = toNullInt(v) },
	"Flee(95%)":       func(s *MobStats, v string) { s.Flee95 = v },
	"Hit(100%)":       func(s *MobStats, v string) { s.Hit100 = v },
	"Atk Delay":       func(s *MobStats, v string) { s.AtkDelay = v },
	"Atk Range":       func(s *MobStats, v string) { s.AtkRange = v },
	"Delay After Hit": func(s *MobStats, v string) { s.DelayAfterHit = v },
	"Str":             func(s *MobStats, v string) { s.Str = toNullInt(v) },
	"Agi":             func(s *MobStats, v string) { s.Agi = toNullInt(v) },
	"Vit":             func(s *MobStats, v string) { s.Vit = toNullInt(v) },
	"Int":             func(s *MobStats, v string) { s.Int = toNullInt(v) },
	"Dex":             func(s *MobStats, v string) { s.Dex = toNullInt(v) },
	"Luk":             func(s *MobStats, v string) { s.Luk = toNullInt(v) },
}

// assembleMobStats turns the raw label map into a typed MobStats row.
func assembleMobStats(mobID int, raw map[string]string) MobStats {
	stats := MobStats{MobID: mobID}
	for label, value := range raw {
		if set, ok := statLabels[label]; ok {
			set(&stats, value)
			continue
		}
		if stats.Extra == nil {
			stats.Extra = make(map[string]string)
		}
		stats.Extra[label] = value
	}
	return stats
}

// toNullInt is a lenient integer coercion for scraped numbers: commas are
// thousands separators on the site, and anything unparseable becomes
// NULL rather than a bogus zero.
func toNullInt(text string) sql.NullInt64 {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

// assembleRespawn combines the map-code fragment with the tooltip texts
// of one spawn block. When the rule tooltip parsed, its count is the
// authoritative one and overrides the inline count from the map fragment.
func assembleRespawn(mobID int, mapText, mapName, rulesText string) MobRespawn {
	info := parseMapInfo(mapText)
	respawn := MobRespawn{
		MobID:   mobID,
		Map:     info.MapCode,
		MapName: strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(mapName), "- ")),
		Count:   info.Count,
		Rules:   RespawnRules{Kind: RespawnUnparsed},
	}
	if rulesText != "" {
		respawn.Rules = parseRespawnRules(rulesText)
		if respawn.Rules.Kind != RespawnUnparsed && respawn.Rules.Count > 0 {
			respawn.Count = respawn.Rules.Count
		}
	}
	return respawn
}

// assembleElements walks the alternating name/value cells of the element
// grid. A trailing odd cell is ignored.
func assembleElements(mobID int, cells []string) []MobElement {
	var elements []MobElement
	for i := 0; i+1 < len(cells); i += 2 {
		name := strings.TrimSpace(cells[i])
		if name == "" {
			continue
		}
		elements = append(elements, MobElement{
			MobID:   mobID,
			Element: name,
			Value:   parsePercentValue(cells[i+1]),
		})
	}
	return elements
}

// assembleDrop builds one MobDrop from a drop grid entry. The item id is
// the join key and comes from the link's item_id query parameter; a link
// without one yields ItemID 0, which the upsert pipeline rejects per-row.
func assembleDrop(mobID int, cellText, link, image string) MobDrop {
	info := parseDropInfo(cellText)
	return MobDrop{
		MobID:  mobID,
		ItemID: parseItemIDFromURL(link),
		Name:   info.Name,
		Image:  image,
		Rate:   info.Rate,
	}
}
