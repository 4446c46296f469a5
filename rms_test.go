package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const mobPageFixture = `
<html><body>
<div class="mob_stat_head"><span class="filled_header_text">Mob-ID#1002 Poring (poring)</span></div>
<img class="mob_img" src="img/poring.gif">
<div class="mob_stat"><table><tbody>
  <tr><th>HP</th><td>50</td><th>Level</th><td>1</td></tr>
  <tr><th>Attack</th><td>7~10</td><th>Race</th><td>Plant</td></tr>
  <tr><th>Str</th><td>1</td><th>Agi</th><td>1</td><th>Vit</th><td>1</td></tr>
</tbody></table></div>
<div class="mob_spawn">
  <div style="margin: 2px">
    <a href="#">prt_fild08(70)</a>
    <span class="tips_mm">- Prontera Field</span>
    <span class="tips_mm">+ 70x / 1~2 min</span>
  </div>
  <div style="margin: 2px">
    <a href="#">gef_fild07</a>
    <span class="tips_mm">+ 5x / 30 min</span>
  </div>
</div>
<div class="mob_ele"><div class="ele_grid_container">
  <div class="ele_grid_mob">Neutral</div><div class="ele_grid_mob">100%</div>
  <div class="ele_grid_mob">Fire</div><div class="ele_grid_mob">125%</div>
</div></div>
<div class="mob_mode"><span class="tips_mm"><ul><li>Can Move</li><li>Looter</li></ul></span></div>
<div class="drop_grid_container">
  <a href="index.php?page=item_db&item_id=909"><span class="grid_cell">Jellopy(70%)</span><span class="mob_drop_icon"><img src="img/jellopy.png"></span></a>
  <a href="index.php?page=item_db&item_id=501"><span class="grid_cell">Red Potion(2.5%)</span></a>
</div>
<div class="mob_skill_grid">
  <div class="grid_cell"><a href="skill_db?id=1">NPC_SUICIDE</a></div>
  <div class="grid_cell"></div>
</div>
</body></html>`

func fixtureDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestHasPageError(t *testing.T) {
	require.True(t, hasPageError(fixtureDoc(t, `<div class="eitext">Sorry, no entry found.</div>`)))
	require.False(t, hasPageError(fixtureDoc(t, mobPageFixture)))
}

func TestScrapeStatTable(t *testing.T) {
	stats := scrapeStatTable(fixtureDoc(t, mobPageFixture))
	require.Equal(t, "50", stats["HP"])
	require.Equal(t, "1", stats["Level"])
	require.Equal(t, "7~10", stats["Attack"])
	require.Equal(t, "Plant", stats["Race"])
	require.Equal(t, "1", stats["Vit"])
}

func TestScrapeRespawns(t *testing.T) {
	respawns := scrapeRespawns(fixtureDoc(t, mobPageFixture), 1002)
	require.Len(t, respawns, 2)

	require.Equal(t, "prt_fild08", respawns[0].Map)
	require.Equal(t, "Prontera Field", respawns[0].MapName)
	require.Equal(t, RespawnDynamic, respawns[0].Rules.Kind)
	require.Equal(t, 70, respawns[0].Count)
	require.Equal(t, 1, respawns[0].Rules.Min)
	require.Equal(t, 2, respawns[0].Rules.Max)

	require.Equal(t, "gef_fild07", respawns[1].Map)
	require.Empty(t, respawns[1].MapName)
	require.Equal(t, RespawnFixed, respawns[1].Rules.Kind)
	require.Equal(t, 5, respawns[1].Count)
	require.Equal(t, 30, respawns[1].Rules.Min)
}

func TestScrapeDrops(t *testing.T) {
	drops := scrapeDrops(fixtureDoc(t, mobPageFixture), 1002)
	require.Len(t, drops, 2)
	require.Equal(t, MobDrop{MobID: 1002, ItemID: 909, Name: "Jellopy", Image: "img/jellopy.png", Rate: 70}, drops[0])
	require.Equal(t, 501, drops[1].ItemID)
	require.InDelta(t, 2.5, drops[1].Rate, 1e-9)
}

func TestScrapeSkillsAndMode(t *testing.T) {
	doc := fixtureDoc(t, mobPageFixture)

	skills := scrapeSkills(doc, 1002)
	require.Len(t, skills, 1)
	require.Equal(t, MobSkill{MobID: 1002, Name: "NPC_SUICIDE", Link: "skill_db?id=1"}, skills[0])

	require.Equal(t, []string{"Can Move", "Looter"}, scrapeMode(doc))
}

func TestScrapeElementCells(t *testing.T) {
	elements := assembleElements(1002, scrapeElementCells(fixtureDoc(t, mobPageFixture)))
	require.Len(t, elements, 2)
	require.Equal(t, MobElement{MobID: 1002, Element: "Fire", Value: 125}, elements[1])
}

func TestGetPageRetriesOnServerError(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	sc := NewScraperClient()
	body, err := sc.getPage(ts.URL, "[test]")
	require.NoError(t, err)
	require.Equal(t, "ok", body)
	require.Equal(t, 3, calls)
}

func TestGetPageGivesUp(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	sc := NewScraperClient()
	_, err := sc.getPage(ts.URL, "[test]")
	require.Error(t, err)
	require.Contains(t, err.Error(), "giving up")
}

func TestGetPageSetsUserAgent(t *testing.T) {
	var seen string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("User-Agent")
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	sc := NewScraperClient()
	_, err := sc.getPage(ts.URL, "[test]")
	require.NoError(t, err)
	require.Equal(t, defaultUserAgent, seen)
}

const containerPageFixture = `
<html><body>
<table class="content_box_db">
  <tr class="filled_header_db"><th>Usable Item</th></tr>
  <tr>
    <td class="bborder"><a href="index.php?page=item_db&item_id=501">Red Potion</a> <img src="img/red_potion.png"></td>
    <td class="bborder">1</td>
    <td class="bborder"><a href="index.php?page=item_db&item_id=502">Orange Potion</a></td>
    <td class="bborder">1</td>
  </tr>
  <tr>
    <td class="bborder">-</td>
    <td class="bborder">-</td>
  </tr>
</table>
<table class="content_box_db">
  <tr class="filled_header_db"><th>Weapon</th></tr>
  <tr>
    <td class="bborder"><a href="index.php?page=item_db&item_id=1201">Knife</a></td>
    <td class="bborder">3</td>
  </tr>
</table>
</body></html>`

func TestExtractContainerRecord(t *testing.T) {
	container := Container{GID: 1, Name: "Old Blue Box", ItemID: 603}
	rec := extractContainerRecord(fixtureDoc(t, containerPageFixture), container, "[test]")

	require.Equal(t, 1, rec.GID)
	require.Equal(t, "Old Blue Box", rec.Name)
	require.Len(t, rec.Drops, 3)

	first := rec.Drops[0]
	require.Equal(t, 501, first.ItemID)
	require.Equal(t, 1, first.Quantity)
	require.False(t, first.Rate.Valid)
	require.NotNil(t, first.Item)
	require.Equal(t, "Red Potion", first.Item.Name)
	require.Equal(t, "Usable Item", first.Item.Type)
	require.Equal(t, "img/red_potion.png", first.Item.Image)
	require.Equal(t, "Item from Old Blue Box", first.Item.Description)

	require.Equal(t, 502, rec.Drops[1].ItemID)
	require.Equal(t, "Weapon", rec.Drops[2].Item.Type)
	require.Equal(t, 1201, rec.Drops[2].ItemID)
}
