package main

import (
	"errors"
	"fmt"
	"log"
	"time"
)

// containerScrapeDelay spaces out container page fetches. The catalog is
// small and the site is someone else's server.
const containerScrapeDelay = 2 * time.Second

// MobRangeReport tallies one scrape-mobs run.
type MobRangeReport struct {
	FromID  int `json:"from_id"`
	ToID    int `json:"to_id"`
	Scraped int `json:"scraped"`
	Skipped int `json:"skipped"`
	Missing int `json:"missing"`
	Failed  int `json:"failed"`
}

// ContainerBatchReport tallies one scrape-containers run.
type ContainerBatchReport struct {
	Successful     int               `json:"successful"`
	Failed         int               `json:"failed"`
	TotalFound     int               `json:"total_found"`
	TotalProcessed int               `json:"total_processed"`
	TotalSkipped   int               `json:"total_skipped"`
	Containers     []ContainerReport `json:"containers"`
}

// validMobRecord rejects graphs that scraped "successfully" but came back
// hollow, which usually means the page layout shifted under us.
func validMobRecord(rec MobRecord) error {
	if rec.Mob.ID <= 0 {
		return errors.New("missing mob id")
	}
	if rec.Mob.Name == "" {
		return errors.New("missing mob name")
	}
	if !rec.Stats.HP.Valid && !rec.Stats.Level.Valid {
		return errors.New("stat table came back empty")
	}
	return nil
}

// ScrapeMobRange walks mob IDs fromID..toID inclusive, skipping IDs the
// store already has, and upserts each fetched graph. One bad mob never
// stops the run.
func ScrapeMobRange(sc *ScraperClient, store *Store, fromID, toID int) (MobRangeReport, error) {
	report := MobRangeReport{FromID: fromID, ToID: toID}

	existing, err := store.ExistingMobIDs()
	if err != nil {
		return report, err
	}
	log.Printf("ℹ️ Scraping mobs %d..%d (%d already stored).", fromID, toID, len(existing))

	for mobID := fromID; mobID <= toID; mobID++ {
		if existing[mobID] {
			log.Printf("🔁 Mob %d already stored, skipping.", mobID)
			report.Skipped++
			continue
		}

		rec, err := sc.ScrapeMob(mobID)
		if err != nil {
			if errors.Is(err, ErrMobNotFound) {
				log.Printf("ℹ️ Mob %d: no such entry.", mobID)
				report.Missing++
			} else {
				log.Printf("❌ Mob %d scrape failed: %v", mobID, err)
				report.Failed++
			}
			continue
		}

		if err := validMobRecord(rec); err != nil {
			log.Printf("⚠️ Mob %d looks incomplete (%v), not storing.", mobID, err)
			report.Failed++
			continue
		}

		if err := store.InsertCompleteMob(rec); err != nil {
			log.Printf("❌ Mob %d store failed: %v", mobID, err)
			report.Failed++
			continue
		}
		report.Scraped++
	}

	log.Printf("✅ Mob range done: %d scraped, %d skipped, %d missing, %d failed.",
		report.Scraped, report.Skipped, report.Missing, report.Failed)
	return report, nil
}

// ScrapeAllContainers walks the seeded catalog, scraping and ingesting
// each container in turn with a courtesy delay between page fetches.
func ScrapeAllContainers(sc *ScraperClient, store *Store) ContainerBatchReport {
	var batch ContainerBatchReport

	for i, container := range containerCatalog {
		log.Printf("📦 [%d/%d] Scraping container %s (gid %d)...",
			i+1, len(containerCatalog), container.Name, container.GID)

		report := scrapeOneContainer(sc, store, container)
		batch.Containers = append(batch.Containers, report)
		batch.TotalFound += report.ItemsFound
		batch.TotalProcessed += report.ItemsProcessed
		batch.TotalSkipped += report.ItemsSkipped
		if report.Err == "" {
			batch.Successful++
		} else {
			batch.Failed++
		}

		if i < len(containerCatalog)-1 {
			time.Sleep(containerScrapeDelay)
		}
	}

	log.Printf("✅ Container batch done: %d ok, %d failed, %d items found, %d processed, %d skipped.",
		batch.Successful, batch.Failed, batch.TotalFound, batch.TotalProcessed, batch.TotalSkipped)
	return batch
}

func scrapeOneContainer(sc *ScraperClient, store *Store, container Container) ContainerReport {
	rec, err := sc.ScrapeContainer(container)
	if err != nil {
		log.Printf("❌ Container %s (gid %d) scrape failed: %v", container.Name, container.GID, err)
		return ContainerReport{GID: container.GID, Name: container.Name, Err: err.Error()}
	}
	return store.InsertCompleteContainer(rec)
}

// ScrapeSingleContainer looks up one gid in the catalog and runs it alone.
func ScrapeSingleContainer(sc *ScraperClient, store *Store, gid int) (ContainerReport, error) {
	for _, container := range containerCatalog {
		if container.GID == gid {
			return scrapeOneContainer(sc, store, container), nil
		}
	}
	return ContainerReport{}, fmt.Errorf("gid %d: %w", gid, ErrContainerNotFound)
}
