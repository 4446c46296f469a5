package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	require.Equal(t, "Poring", cleanText("Mob-ID#1002 Poring"))
	require.Equal(t, "Poring", cleanText("Poring (poring)"))
	require.Equal(t, "Poring", cleanText("  Mob-ID#1002 Poring (poring)  "))
	require.Equal(t, "", cleanText("Mob-ID#1002"))
}

func TestParseMobName(t *testing.T) {
	require.Equal(t, "Poring", parseMobName("Poring (poring)"))
	require.Equal(t, "Poring", parseMobName("Poring"))
	require.Equal(t, "Poring", parseMobName("Poring (poring)"))
	require.Equal(t, "Baphomet Jr.", parseMobName("Baphomet Jr. (baphomet_)"))
}

func TestParseMapInfo(t *testing.T) {
	info := parseMapInfo("prt_maze03(5)")
	require.Equal(t, "prt_maze03", info.MapCode)
	require.Equal(t, 5, info.Count)

	info = parseMapInfo("prt_fild08")
	require.Equal(t, "prt_fild08", info.MapCode)
	require.Equal(t, 1, info.Count)
}

func TestParseDropInfo(t *testing.T) {
	drop := parseDropInfo("Red Potion(2.5%)")
	require.Equal(t, "Red Potion", drop.Name)
	require.InDelta(t, 2.5, drop.Rate, 1e-9)

	drop = parseDropInfo("Jellopy(0.05%)")
	require.InDelta(t, 0.05, drop.Rate, 1e-9)

	// No parenthesis at all: the whole cell is the name, rate unknown.
	drop = parseDropInfo("Jellopy")
	require.Equal(t, "Jellopy", drop.Name)
	require.Zero(t, drop.Rate)

	// Empty parenthesis is the site's shorthand for a guaranteed drop.
	drop = parseDropInfo("Old Blue Box()")
	require.Equal(t, "Old Blue Box", drop.Name)
	require.InDelta(t, 1.0, drop.Rate, 1e-9)

	drop = parseDropInfo("Weird Cell(abc%)")
	require.Zero(t, drop.Rate)
}

func TestParseRespawnRulesDynamic(t *testing.T) {
	rules := parseRespawnRules("+ 5x / 10~20 min")
	require.Equal(t, RespawnDynamic, rules.Kind)
	require.Equal(t, 5, rules.Count)
	require.Equal(t, 10, rules.Min)
	require.Equal(t, 20, rules.Max)
}

func TestParseRespawnRulesFixed(t *testing.T) {
	rules := parseRespawnRules("+ 3x / 30 min")
	require.Equal(t, RespawnFixed, rules.Kind)
	require.Equal(t, 3, rules.Count)
	require.Equal(t, 30, rules.Min)
	require.Equal(t, 30, rules.Max)
}

func TestParseRespawnRulesDefaults(t *testing.T) {
	// No explicit count defaults to 1.
	rules := parseRespawnRules("+ / 60 min")
	require.Equal(t, RespawnFixed, rules.Kind)
	require.Equal(t, 1, rules.Count)
	require.Equal(t, 60, rules.Min)

	rules = parseRespawnRules("+&nbsp;2x&nbsp;/&nbsp;5~10&nbsp;min")
	require.Equal(t, RespawnDynamic, rules.Kind)
	require.Equal(t, 2, rules.Count)
	require.Equal(t, 5, rules.Min)
	require.Equal(t, 10, rules.Max)
}

func TestParseRespawnRulesUnparsed(t *testing.T) {
	rules := parseRespawnRules("immediately")
	require.Equal(t, RespawnUnparsed, rules.Kind)
	require.Equal(t, "immediately", rules.Raw)

	rules = parseRespawnRules("+ 1x / 2 / 3")
	require.Equal(t, RespawnUnparsed, rules.Kind)
}

func TestParseItemIDFromURL(t *testing.T) {
	require.Equal(t, 501, parseItemIDFromURL("https://ratemyserver.net/index.php?page=item_db&item_id=501"))
	require.Equal(t, 501, parseItemIDFromURL("index.php?page=item_db&item_id=501&small=1"))
	require.Equal(t, 0, parseItemIDFromURL("index.php?page=item_db"))
	require.Equal(t, 0, parseItemIDFromURL(""))
	require.Equal(t, 0, parseItemIDFromURL("index.php?item_id=abc"))
}

func TestParsePercentValue(t *testing.T) {
	require.Equal(t, 125, parsePercentValue("125%"))
	require.Equal(t, -25, parsePercentValue("-25 %"))
	require.Equal(t, 0, parsePercentValue("n/a"))
}
