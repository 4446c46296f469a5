package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	defaultTimeout   = 45 * time.Second
	maxScrapeRetries = 3
	retryScrapeDelay = 3 * time.Second

	mobPageURL       = "https://ratemyserver.net/index.php?mob_id=%d&page=mob_db&quick=1&f=1&mob_search=Search"
	containerPageURL = "https://ratemyserver.net/index.php?page=random_db&op=1&gid=%d"
)

// ErrMobNotFound signals that the source site has no page for a mob ID.
// The driving loop logs and moves on; it is not a scrape failure.
var ErrMobNotFound = errors.New("mob not found")

// ScraperClient holds the shared HTTP client and user agent for all page
// fetches. One client, one page at a time; the site is scraped strictly
// sequentially.
type ScraperClient struct {
	Client    *http.Client
	UserAgent string
}

func NewScraperClient() *ScraperClient {
	return &ScraperClient{
		Client:    &http.Client{Timeout: defaultTimeout},
		UserAgent: defaultUserAgent,
	}
}

// getPage performs a GET with the shared client and retry on transport
// errors or non-200s. Retries cover infrastructure flakes only; a page
// that loads but carries the site's error marker is handled by callers.
func (sc *ScraperClient) getPage(url, logPrefix string) (string, error) {
	var err error
	for attempt := 1; attempt <= maxScrapeRetries; attempt++ {
		req, reqErr := http.NewRequest("GET", url, nil)
		if reqErr != nil {
			return "", fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header.Set("User-Agent", sc.UserAgent)

		resp, doErr := sc.Client.Do(req)
		if doErr != nil {
			err = doErr
			log.Printf("[W] %s Error on page (attempt %d/%d): %v", logPrefix, attempt, maxScrapeRetries, doErr)
			time.Sleep(retryScrapeDelay)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("received non-200 status: %d", resp.StatusCode)
			log.Printf("[W] %s Non-200 status (attempt %d/%d): %d", logPrefix, attempt, maxScrapeRetries, resp.StatusCode)
			resp.Body.Close()
			time.Sleep(retryScrapeDelay)
			continue
		}

		bodyBytes, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			err = readErr
			log.Printf("[W] %s Error reading body (attempt %d/%d): %v", logPrefix, attempt, maxScrapeRetries, readErr)
			time.Sleep(retryScrapeDelay)
			continue
		}

		return string(bodyBytes), nil
	}
	return "", fmt.Errorf("giving up after %d attempts: %w", maxScrapeRetries, err)
}

// getDocument fetches a page and parses it.
func (sc *ScraperClient) getDocument(url, logPrefix string) (*goquery.Document, error) {
	body, err := sc.getPage(url, logPrefix)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// hasPageError reports the site's "no such entry" marker.
func hasPageError(doc *goquery.Document) bool {
	return doc.Find(".eitext").Length() > 0
}

// ScrapeMob fetches and assembles the full entity graph for one mob ID.
func (sc *ScraperClient) ScrapeMob(mobID int) (MobRecord, error) {
	logPrefix := fmt.Sprintf("[Mob %d]", mobID)
	doc, err := sc.getDocument(fmt.Sprintf(mobPageURL, mobID), logPrefix)
	if err != nil {
		return MobRecord{}, err
	}

	if hasPageError(doc) {
		return MobRecord{}, fmt.Errorf("mob id %d: %w", mobID, ErrMobNotFound)
	}

	rec := MobRecord{}
	rec.Mob.ID = mobID

	rawName := doc.Find(".mob_stat_head .filled_header_text").First().Text()
	rec.Mob.Name = parseMobName(cleanText(rawName))
	rec.Mob.Image, _ = doc.Find(".mob_img").First().Attr("src")
	log.Printf("ℹ️ %s Name: %s", logPrefix, rec.Mob.Name)

	rec.Stats = assembleMobStats(mobID, scrapeStatTable(doc))
	rec.Respawns = scrapeRespawns(doc, mobID)
	rec.Elements = assembleElements(mobID, scrapeElementCells(doc))
	rec.Mob.Mode = scrapeMode(doc)
	rec.Drops = scrapeDrops(doc, mobID)
	rec.Skills = scrapeSkills(doc, mobID)

	return rec, nil
}

// scrapeStatTable collects the raw cell texts of the stat table, row by
// row. Row widths vary (1-3 label/value pairs per row); the assembler
// deals with that.
func scrapeStatTable(doc *goquery.Document) map[string]string {
	var rows [][]string
	doc.Find(".mob_stat table tbody tr").Each(func(i int, row *goquery.Selection) {
		var cells []string
		row.Find("th, td").Each(func(j int, cell *goquery.Selection) {
			cells = append(cells, cell.Text())
		})
		rows = append(rows, cells)
	})
	return assembleStatTable(rows)
}

// scrapeRespawns walks the spawn blocks. Each block carries the map link
// text ("prt_maze03(1)") and two tooltips: the human map name ("- Maze")
// and the respawn rule ("+ 5x / 10~20 min").
func scrapeRespawns(doc *goquery.Document, mobID int) []MobRespawn {
	var respawns []MobRespawn
	spawn := doc.Find(".mob_spawn").First()
	if spawn.Length() == 0 {
		return nil
	}

	spawn.Find(`div[style*="margin"]`).Each(func(i int, block *goquery.Selection) {
		mapText := strings.TrimSpace(block.Find("a").First().Text())
		if mapText == "" {
			return
		}

		var mapName, rulesText string
		block.Find(".tips_mm").Each(func(j int, tip *goquery.Selection) {
			text := strings.TrimSpace(tip.Text())
			if strings.HasPrefix(text, "- ") {
				mapName = text
			} else if strings.Contains(text, "+") {
				rulesText = text
			}
		})

		respawns = append(respawns, assembleRespawn(mobID, mapText, mapName, rulesText))
	})
	return respawns
}

func scrapeElementCells(doc *goquery.Document) []string {
	var cells []string
	doc.Find(".mob_ele .ele_grid_container .ele_grid_mob").Each(func(i int, cell *goquery.Selection) {
		cells = append(cells, cell.Text())
	})
	return cells
}

func scrapeMode(doc *goquery.Document) []string {
	var mode []string
	doc.Find(".mob_mode .tips_mm ul li").Each(func(i int, li *goquery.Selection) {
		if text := strings.TrimSpace(li.Text()); text != "" {
			mode = append(mode, text)
		}
	})
	return mode
}

func scrapeDrops(doc *goquery.Document, mobID int) []MobDrop {
	var drops []MobDrop
	doc.Find(".drop_grid_container a").Each(func(i int, a *goquery.Selection) {
		cellText := strings.TrimSpace(a.Find(".grid_cell").First().Text())
		if cellText == "" {
			return
		}
		link, _ := a.Attr("href")
		image, _ := a.Find(".mob_drop_icon img").First().Attr("src")
		drops = append(drops, assembleDrop(mobID, cellText, link, image))
	})
	return drops
}

func scrapeSkills(doc *goquery.Document, mobID int) []MobSkill {
	var skills []MobSkill
	doc.Find(".mob_skill_grid .grid_cell").Each(func(i int, cell *goquery.Selection) {
		a := cell.Find("a").First()
		name := strings.TrimSpace(a.Text())
		if name == "" {
			return
		}
		link, _ := a.Attr("href")
		skills = append(skills, MobSkill{MobID: mobID, Name: name, Link: link})
	})
	return skills
}

// ScrapeContainer fetches the random_db page of one catalog container and
// assembles its drop pool. The page groups items into category tables
// (Weapon, Armor, Usable Item, ...); the category becomes the item type.
// Container pages never publish drop rates, so every drop's rate is null.
func (sc *ScraperClient) ScrapeContainer(container Container) (ContainerRecord, error) {
	logPrefix := fmt.Sprintf("[Container %s]", container.Name)
	doc, err := sc.getDocument(fmt.Sprintf(containerPageURL, container.GID), logPrefix)
	if err != nil {
		return ContainerRecord{}, err
	}

	if hasPageError(doc) {
		return ContainerRecord{}, fmt.Errorf("container gid %d: page error", container.GID)
	}

	rec := extractContainerRecord(doc, container, logPrefix)
	log.Printf("✅ %s Collected %d item(s).", logPrefix, len(rec.Drops))
	return rec, nil
}

// extractContainerRecord walks the category tables of a random_db page.
func extractContainerRecord(doc *goquery.Document, container Container, logPrefix string) ContainerRecord {
	rec := ContainerRecord{GID: container.GID, Name: container.Name}
	description := fmt.Sprintf("Item from %s", container.Name)

	doc.Find("table.content_box_db").Each(func(i int, table *goquery.Selection) {
		category := strings.TrimSpace(table.Find("tr.filled_header_db th").First().Text())
		if category == "" {
			return
		}
		log.Printf("   📦 %s Category: %s", logPrefix, category)

		table.Find("tr:not(.filled_header_db)").Each(func(j int, row *goquery.Selection) {
			cells := row.Find("td.bborder")
			// Item and slot cells alternate across the row.
			for k := 0; k+1 < cells.Length(); k += 2 {
				itemCell := cells.Eq(k)
				itemText := strings.TrimSpace(itemCell.Text())
				if itemText == "" || itemText == "-" {
					continue
				}

				a := itemCell.Find("a").First()
				if a.Length() == 0 {
					continue
				}
				name := strings.TrimSpace(a.Text())
				link, _ := a.Attr("href")
				image, _ := itemCell.Find("img").First().Attr("src")

				itemID := parseItemIDFromURL(link)
				rec.Drops = append(rec.Drops, ContainerDrop{
					ContainerGID: container.GID,
					ItemID:       itemID,
					Quantity:     1,
					Item: &Item{
						ID:          itemID,
						Name:        name,
						Image:       image,
						Type:        category,
						Description: description,
					},
				})
			}
		})
	})

	return rec
}
