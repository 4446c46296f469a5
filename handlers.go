package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Server exposes the query layer over HTTP and gates the scrape triggers
// behind an admin token.
type Server struct {
	queries        *Queries
	store          *Store
	scraper        *ScraperClient
	adminTokenHash string

	// scrapeMu serializes admin-triggered scrapes. The site is scraped
	// one page at a time, so two concurrent runs make no sense.
	scrapeMu sync.Mutex
}

func NewServer(queries *Queries, store *Store, scraper *ScraperClient, adminTokenHash string) *Server {
	return &Server{
		queries:        queries,
		store:          store,
		scraper:        scraper,
		adminTokenHash: adminTokenHash,
	}
}

func (srv *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items", srv.handleItems)
	mux.HandleFunc("GET /api/items/{id}", srv.handleItemStats)
	mux.HandleFunc("GET /api/items/{id}/sources", srv.handleItemSources)
	mux.HandleFunc("GET /api/search", srv.handleSearch)
	mux.HandleFunc("GET /api/reports/valuable", srv.handleValuable)
	mux.HandleFunc("GET /api/reports/hybrid", srv.handleHybrid)
	mux.HandleFunc("GET /api/containers", srv.handleContainers)
	mux.HandleFunc("GET /api/containers/from-mobs", srv.handleContainersFromMobs)
	mux.HandleFunc("GET /api/stats", srv.handleStats)
	mux.HandleFunc("GET /api/export", srv.handleExport)
	mux.HandleFunc("POST /admin/scrape/mobs", srv.requireAdmin(srv.handleScrapeMobs))
	mux.HandleFunc("POST /admin/scrape/containers", srv.requireAdmin(srv.handleScrapeContainers))
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️ Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requireAdmin checks a bearer token against the configured bcrypt hash.
// With no hash configured the admin surface is off entirely.
func (srv *Server) requireAdmin(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if srv.adminTokenHash == "" {
			writeError(w, http.StatusServiceUnavailable, "admin endpoints are disabled")
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || bcrypt.CompareHashAndPassword([]byte(srv.adminTokenHash), []byte(token)) != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		handler(w, r)
	}
}

func (srv *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	filters := ItemFilters{
		HasMobSources:       r.URL.Query().Get("mob_sources") == "true",
		HasContainerSources: r.URL.Query().Get("container_sources") == "true",
		ItemType:            r.URL.Query().Get("type"),
	}
	if v := r.URL.Query().Get("min_rate"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "min_rate must be a number")
			return
		}
		filters.MinRate = rate
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		filters.Limit = limit
	}

	items, err := srv.queries.ItemsWithStats(filters)
	if err != nil {
		log.Printf("❌ Items query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (srv *Server) pathItemID(w http.ResponseWriter, r *http.Request) (int, bool) {
	itemID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || itemID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return 0, false
	}
	return itemID, true
}

func (srv *Server) handleItemStats(w http.ResponseWriter, r *http.Request) {
	itemID, ok := srv.pathItemID(w, r)
	if !ok {
		return
	}

	stats, err := srv.queries.ItemStats(itemID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("item %d not found", itemID))
		return
	}
	if err != nil {
		log.Printf("❌ Item stats query failed for %d: %v", itemID, err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (srv *Server) handleItemSources(w http.ResponseWriter, r *http.Request) {
	itemID, ok := srv.pathItemID(w, r)
	if !ok {
		return
	}

	sources, err := srv.queries.ItemSources(itemID)
	if err != nil {
		log.Printf("❌ Item sources query failed for %d: %v", itemID, err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

func (srv *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q parameter is required")
		return
	}

	results, err := srv.queries.SearchItems(query, 0)
	if err != nil {
		log.Printf("❌ Item search failed for %q: %v", query, err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (srv *Server) handleValuable(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	items, err := srv.queries.ValuableItems(limit)
	if err != nil {
		log.Printf("❌ Valuable items query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (srv *Server) handleHybrid(w http.ResponseWriter, r *http.Request) {
	items, err := srv.queries.HybridItems()
	if err != nil {
		log.Printf("❌ Hybrid items query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (srv *Server) handleContainers(w http.ResponseWriter, r *http.Request) {
	containers, err := srv.queries.ContainersWithItemInfo()
	if err != nil {
		log.Printf("❌ Containers query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, containers)
}

func (srv *Server) handleContainersFromMobs(w http.ResponseWriter, r *http.Request) {
	containers, err := srv.queries.ContainersFromMobs()
	if err != nil {
		log.Printf("❌ Containers-from-mobs query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, containers)
}

func (srv *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := srv.queries.DatabaseStats()
	if err != nil {
		log.Printf("❌ Stats query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (srv *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="farmdb-export.json"`)
	if err := srv.queries.WriteExport(w); err != nil {
		log.Printf("❌ Export failed: %v", err)
	}
}

func (srv *Server) handleScrapeMobs(w http.ResponseWriter, r *http.Request) {
	fromID, err := strconv.Atoi(r.URL.Query().Get("from"))
	if err != nil || fromID <= 0 {
		writeError(w, http.StatusBadRequest, "from must be a positive mob id")
		return
	}
	toID, err := strconv.Atoi(r.URL.Query().Get("to"))
	if err != nil || toID < fromID {
		writeError(w, http.StatusBadRequest, "to must be >= from")
		return
	}

	if !srv.scrapeMu.TryLock() {
		writeError(w, http.StatusConflict, "a scrape is already running")
		return
	}

	go func() {
		defer srv.scrapeMu.Unlock()
		if _, err := ScrapeMobRange(srv.scraper, srv.store, fromID, toID); err != nil {
			log.Printf("❌ Admin-triggered mob scrape failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "started",
		"from":   fromID,
		"to":     toID,
	})
}

func (srv *Server) handleScrapeContainers(w http.ResponseWriter, r *http.Request) {
	if !srv.scrapeMu.TryLock() {
		writeError(w, http.StatusConflict, "a scrape is already running")
		return
	}

	go func() {
		defer srv.scrapeMu.Unlock()
		ScrapeAllContainers(srv.scraper, srv.store)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}
