package main

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	mobIDMarkerRegex  = regexp.MustCompile(`Mob-ID#\d+`)
	mobNameRegex      = regexp.MustCompile(`^(.+?)\s*\((.+?)\)\s*$`)
	mapInfoRegex      = regexp.MustCompile(`^(.+?)\((\d+)\)$`)
	respawnCountRegex = regexp.MustCompile(`(\d+)x`)
	respawnRangeRegex = regexp.MustCompile(`(\d+)~(\d+)\s*min`)
	respawnFixedRegex = regexp.MustCompile(`(\d+)\s*min`)
	itemIDParamRegex  = regexp.MustCompile(`item_id=(\d+)`)
)

// cleanText strips the "Mob-ID#<n>" marker the site prepends to headers,
// cuts any trailing parenthetical and trims whitespace. It runs before
// the more specific parsers.
func cleanText(text string) string {
	text = mobIDMarkerRegex.ReplaceAllString(text, "")
	if i := strings.Index(text, "("); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// parseMobName returns the primary mob name, dropping the secondary name
// the site appends in parentheses ("Poring (poring)" -> "Poring").
func parseMobName(name string) string {
	name = strings.ReplaceAll(name, " ", " ")
	name = strings.ReplaceAll(name, "&nbsp;", " ")
	if m := mobNameRegex.FindStringSubmatch(name); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(name)
}

// MapInfo is the parsed form of a spawn map fragment like "prt_maze03(1)".
type MapInfo struct {
	MapCode string
	Count   int
}

// parseMapInfo extracts the map code and concurrent spawn count. Without
// a trailing "(<n>)" the whole text is the map code and the count is 1;
// malformed input never fails.
func parseMapInfo(text string) MapInfo {
	if m := mapInfoRegex.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil {
			return MapInfo{MapCode: m[1], Count: n}
		}
	}
	return MapInfo{MapCode: text, Count: 1}
}

// DropInfo is the parsed form of a drop cell like "Red Potion(2.5%)".
type DropInfo struct {
	Name string
	Rate float64
}

// parseDropInfo splits a drop cell into name and rate. Rates are decimal
// because the site lists fractional ones like 0.05. A cell without a
// parenthesis is all name with rate 0; empty rate text inside the
// parenthesis counts as 1 (the site's shorthand for a guaranteed drop).
func parseDropInfo(text string) DropInfo {
	i := strings.Index(text, "(")
	if i < 0 {
		return DropInfo{Name: text, Rate: 0}
	}
	name := strings.TrimSpace(text[:i])
	rateText := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text[i+1:]), ")"))
	rateText = strings.TrimSpace(strings.ReplaceAll(rateText, "%", ""))
	if rateText == "" {
		rateText = "1"
	}
	rate, err := strconv.ParseFloat(rateText, 64)
	if err != nil {
		rate = 0
	}
	return DropInfo{Name: name, Rate: rate}
}

// parseRespawnRules classifies a respawn tooltip such as
// "+ 5x / 10~20 min" (dynamic range) or "+ 3x / 30 min" (fixed interval).
// Input that matches neither shape comes back as RespawnUnparsed with the
// cleaned raw text; callers must handle all three kinds.
func parseRespawnRules(text string) RespawnRules {
	cleaned := strings.ReplaceAll(text, "&nbsp;", " ")
	cleaned = strings.ReplaceAll(cleaned, " ", " ")
	cleaned = strings.TrimSpace(strings.ReplaceAll(cleaned, "+", ""))

	parts := strings.Split(cleaned, "/")
	if len(parts) != 2 {
		return RespawnRules{Kind: RespawnUnparsed, Raw: cleaned}
	}

	count := 1
	if m := respawnCountRegex.FindStringSubmatch(strings.TrimSpace(parts[0])); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			count = n
		}
	}

	timePart := strings.TrimSpace(parts[1])
	if strings.Contains(timePart, "~") {
		rules := RespawnRules{Kind: RespawnDynamic, Count: count}
		if m := respawnRangeRegex.FindStringSubmatch(timePart); m != nil {
			rules.Min, _ = strconv.Atoi(m[1])
			rules.Max, _ = strconv.Atoi(m[2])
		}
		return rules
	}

	rules := RespawnRules{Kind: RespawnFixed, Count: count}
	if m := respawnFixedRegex.FindStringSubmatch(timePart); m != nil {
		rules.Min, _ = strconv.Atoi(m[1])
		rules.Max = rules.Min
	}
	return rules
}

// parseItemIDFromURL pulls the item_id query parameter out of a drop or
// container link. Returns 0 when the link carries no usable id.
func parseItemIDFromURL(link string) int {
	if u, err := url.Parse(link); err == nil {
		if v := u.Query().Get("item_id"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				return id
			}
		}
	}
	// Some cells carry relative or otherwise unparseable hrefs; fall back
	// to a plain substring match like the site search scraper does.
	if m := itemIDParamRegex.FindStringSubmatch(link); m != nil {
		if id, err := strconv.Atoi(m[1]); err == nil {
			return id
		}
	}
	return 0
}

// parsePercentValue coerces an element grid cell like "125%" or "-25 %"
// to its integer value. Malformed cells degrade to 0.
func parsePercentValue(text string) int {
	text = strings.TrimSpace(strings.ReplaceAll(text, "%", ""))
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return n
}
