package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
)

const defaultDBPath = "farm.db"

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: yufa-farm <command> [flags]

Commands:
  setup              Create the database schema and seed the container catalog
  scrape-mobs        Scrape a range of mob IDs (-from, -to)
  scrape-containers  Scrape the container catalog (-gid for a single one)
  import-itemdb      Import rAthena item_db YAML files
  export             Write the full database snapshot as JSON (-out)
  stats              Print database totals
  serve              Run the HTTP API (FARMDB_LISTEN, default :8080)
  farm-guide         Generate a farming guide for one item (-item)
  gen-admin-token    Generate an admin token and its ADMIN_TOKEN_HASH value`)
	os.Exit(2)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, relying on environment variables.")
	}

	if len(os.Args) < 2 {
		usage()
	}

	dbPath := os.Getenv("FARMDB_PATH")
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	db, err := initDB(dbPath)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database at %s: %v", dbPath, err)
	}
	defer db.Close()

	store := NewStore(db)
	queries := NewQueries(db)

	switch os.Args[1] {
	case "setup":
		log.Printf("✅ Database ready at %s.", dbPath)

	case "scrape-mobs":
		fs := flag.NewFlagSet("scrape-mobs", flag.ExitOnError)
		fromID := fs.Int("from", 1001, "first mob ID to scrape")
		toID := fs.Int("to", 1001, "last mob ID to scrape (inclusive)")
		fs.Parse(os.Args[2:])
		if *fromID <= 0 || *toID < *fromID {
			log.Fatalf("❌ Invalid range %d..%d.", *fromID, *toID)
		}

		notifier := NewDiscordNotifier()
		report, err := ScrapeMobRange(NewScraperClient(), store, *fromID, *toID)
		if err != nil {
			log.Fatalf("❌ Mob scrape failed: %v", err)
		}
		notifier.NotifyMobRange(report)
		if report.Failed > 0 {
			os.Exit(1)
		}

	case "scrape-containers":
		fs := flag.NewFlagSet("scrape-containers", flag.ExitOnError)
		gid := fs.Int("gid", 0, "scrape only this container gid")
		fs.Parse(os.Args[2:])

		notifier := NewDiscordNotifier()
		if *gid > 0 {
			report, err := ScrapeSingleContainer(NewScraperClient(), store, *gid)
			if err != nil {
				log.Fatalf("❌ Container scrape failed: %v", err)
			}
			if report.Err != "" {
				log.Fatalf("❌ Container %s failed: %s", report.Name, report.Err)
			}
			log.Printf("✅ Container %s: %d found, %d processed, %d skipped.",
				report.Name, report.ItemsFound, report.ItemsProcessed, report.ItemsSkipped)
			return
		}

		batch := ScrapeAllContainers(NewScraperClient(), store)
		notifier.NotifyContainerBatch(batch)
		if batch.Failed > 0 {
			os.Exit(1)
		}

	case "import-itemdb":
		files := os.Args[2:]
		if len(files) == 0 {
			files = itemDBFiles
		}
		if err := store.ImportItemDB(files); err != nil {
			log.Fatalf("❌ Item DB import failed: %v", err)
		}

	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		out := fs.String("out", "farmdb-export.json", "output file path")
		fs.Parse(os.Args[2:])
		if err := queries.ExportToFile(*out); err != nil {
			log.Fatalf("❌ Export failed: %v", err)
		}

	case "stats":
		stats, err := queries.DatabaseStats()
		if err != nil {
			log.Fatalf("❌ Failed to read stats: %v", err)
		}
		fmt.Printf("Items:                 %d\n", stats.TotalItems)
		fmt.Printf("Mobs:                  %d\n", stats.TotalMobs)
		fmt.Printf("Containers:            %d\n", stats.TotalContainers)
		fmt.Printf("Items from mobs:       %d\n", stats.ItemsFromMobs)
		fmt.Printf("Items from containers: %d\n", stats.ItemsFromContainers)
		fmt.Printf("Hybrid items:          %d\n", stats.HybridItems)
		fmt.Printf("Last item update:      %s\n", queries.LastUpdateTime("updated_at", "items"))
		fmt.Printf("Last mob scraped:      %s\n", queries.LastUpdateTime("created_at", "mobs"))

	case "serve":
		listen := os.Getenv("FARMDB_LISTEN")
		if listen == "" {
			listen = ":8080"
		}
		server := NewServer(queries, store, NewScraperClient(), os.Getenv("ADMIN_TOKEN_HASH"))
		log.Printf("🚀 Listening on %s.", listen)
		if err := http.ListenAndServe(listen, server.Routes()); err != nil {
			log.Fatalf("❌ Server stopped: %v", err)
		}

	case "farm-guide":
		fs := flag.NewFlagSet("farm-guide", flag.ExitOnError)
		item := fs.String("item", "", "item name or fragment to build a guide for")
		fs.Parse(os.Args[2:])
		if *item == "" {
			log.Fatal("❌ -item is required.")
		}
		guide, err := GenerateFarmGuide(queries, *item)
		if err != nil {
			log.Fatalf("❌ Failed to generate farm guide: %v", err)
		}
		fmt.Println(guide)

	case "gen-admin-token":
		if err := printNewAdminToken(); err != nil {
			log.Fatalf("❌ Failed to generate admin token: %v", err)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
	}
}
