package main

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

// itemDBFiles are the rAthena item database files the importer looks for
// in the working directory. Missing files are skipped with a warning.
var itemDBFiles = []string{
	"item_db_usable.yml",
	"item_db_etc.yml",
	"item_db_equip.yml",
}

// ItemDBFile mirrors the top level of an rAthena item_db YAML file.
type ItemDBFile struct {
	Body []ItemDBEntry `yaml:"Body"`
}

// ItemDBEntry is one item definition. Only the fields the catalog needs
// are mapped; scripts, prices and job masks are ignored.
type ItemDBEntry struct {
	ID        int    `yaml:"Id"`
	AegisName string `yaml:"AegisName"`
	Name      string `yaml:"Name"`
	Type      string `yaml:"Type"`
}

// ImportItemDB reads the rAthena YAML files and seeds the item catalog
// with names and types the scraper may never visit. Rows already owned by
// a scrape are left alone.
func (s *Store) ImportItemDB(filenames []string) error {
	var allItems []ItemDBEntry
	for _, filename := range filenames {
		log.Printf("[D] [ItemDB] Parsing file: %s", filename)
		data, err := os.ReadFile(filename)
		if err != nil {
			log.Printf("[W] [ItemDB] Could not read file %s: %v. Skipping.", filename, err)
			continue
		}

		var itemFile ItemDBFile
		if err := yaml.Unmarshal(data, &itemFile); err != nil {
			log.Printf("[W] [ItemDB] Could not parse YAML from %s: %v. Skipping.", filename, err)
			continue
		}

		if len(itemFile.Body) > 0 {
			allItems = append(allItems, itemFile.Body...)
			log.Printf("[D] [ItemDB] Found %d items in %s.", len(itemFile.Body), filename)
		}
	}

	if len(allItems) == 0 {
		log.Println("[W] [ItemDB] No items found in any YAML files. Nothing to import.")
		return nil
	}

	log.Printf("[I] [ItemDB] Importing %d item definitions.", len(allItems))
	return s.storeItemDBEntries(allItems)
}

// storeItemDBEntries inserts the parsed entries in one transaction. The
// import never overwrites an existing row: scraped item data always wins
// over the static database.
func (s *Store) storeItemDBEntries(entries []ItemDBEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO items (id, name, type)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var successCount int
	for _, entry := range entries {
		if entry.ID <= 0 || entry.Name == "" {
			log.Printf("[W] [ItemDB] Skipping malformed entry (id=%d, aegis=%q).", entry.ID, entry.AegisName)
			continue
		}

		res, err := stmt.Exec(entry.ID, entry.Name, entry.Type)
		if err != nil {
			log.Printf("[W] [ItemDB] Failed to insert item %d (%s): %v", entry.ID, entry.Name, err)
			continue
		}

		rowsAffected, _ := res.RowsAffected()
		if rowsAffected > 0 {
			successCount++
		}
	}

	log.Printf("[I] [ItemDB] Inserted %d new items (skipped existing).", successCount)
	return tx.Commit()
}
