package main

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*sql.DB, *Store, *Queries) {
	t.Helper()
	db, err := initDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, NewStore(db), NewQueries(db)
}

func tableCount(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func sampleMobRecord() MobRecord {
	rec := MobRecord{}
	rec.Mob = Mob{ID: 1002, Name: "Poring", Image: "img/poring.gif", Mode: []string{"Can Move", "Looter"}}
	rec.Stats = MobStats{
		MobID:  1002,
		HP:     sql.NullInt64{Int64: 50, Valid: true},
		Level:  sql.NullInt64{Int64: 1, Valid: true},
		Attack: "7~10",
		Extra:  map[string]string{"Race": "Plant"},
	}
	rec.Respawns = []MobRespawn{
		{MobID: 1002, Map: "prt_fild08", MapName: "Prontera Field", Count: 70,
			Rules: RespawnRules{Kind: RespawnDynamic, Count: 70, Min: 1, Max: 2}},
		{MobID: 1002, Map: "gef_fild07", Count: 5,
			Rules: RespawnRules{Kind: RespawnUnparsed, Raw: "whenever"}},
	}
	rec.Drops = []MobDrop{
		{MobID: 1002, ItemID: 909, Name: "Jellopy", Image: "img/jellopy.png", Rate: 70},
		{MobID: 1002, ItemID: 501, Name: "Red Potion", Rate: 2.5},
	}
	rec.Skills = []MobSkill{{MobID: 1002, Name: "NPC_SUICIDE", Link: "skill_db?id=1"}}
	rec.Elements = []MobElement{
		{MobID: 1002, Element: "Neutral", Value: 100},
		{MobID: 1002, Element: "Fire", Value: 125},
	}
	return rec
}

func TestInsertCompleteMob(t *testing.T) {
	db, store, _ := newTestDB(t)

	require.NoError(t, store.InsertCompleteMob(sampleMobRecord()))

	require.Equal(t, 1, tableCount(t, db, "mobs"))
	require.Equal(t, 1, tableCount(t, db, "mob_stats"))
	require.Equal(t, 2, tableCount(t, db, "mob_respawns"))
	require.Equal(t, 2, tableCount(t, db, "mob_drops"))
	require.Equal(t, 1, tableCount(t, db, "mob_skills"))
	require.Equal(t, 2, tableCount(t, db, "mob_elements"))

	var mode string
	require.NoError(t, db.QueryRow(`SELECT mode FROM mobs WHERE id = 1002`).Scan(&mode))
	var decoded []string
	require.NoError(t, json.Unmarshal([]byte(mode), &decoded))
	require.Equal(t, []string{"Can Move", "Looter"}, decoded)

	// Drop items were planted as stub rows.
	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM items WHERE id = 909`).Scan(&name))
	require.Equal(t, "Jellopy", name)

	var extraJSON string
	require.NoError(t, db.QueryRow(`SELECT extra_json FROM mob_stats WHERE mob_id = 1002`).Scan(&extraJSON))
	require.JSONEq(t, `{"Race":"Plant"}`, extraJSON)
}

func TestInsertCompleteMobIdempotent(t *testing.T) {
	db, store, _ := newTestDB(t)

	rec := sampleMobRecord()
	require.NoError(t, store.InsertCompleteMob(rec))

	// A second pass with changed data must be a complete no-op.
	rec.Mob.Name = "Renamed Poring"
	rec.Stats.HP = sql.NullInt64{Int64: 9999, Valid: true}
	rec.Drops[0].Rate = 1
	require.NoError(t, store.InsertCompleteMob(rec))

	require.Equal(t, 1, tableCount(t, db, "mobs"))
	require.Equal(t, 2, tableCount(t, db, "mob_drops"))
	require.Equal(t, 2, tableCount(t, db, "mob_respawns"))

	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM mobs WHERE id = 1002`).Scan(&name))
	require.Equal(t, "Poring", name)

	var hp int64
	require.NoError(t, db.QueryRow(`SELECT hp FROM mob_stats WHERE mob_id = 1002`).Scan(&hp))
	require.EqualValues(t, 50, hp)

	var rate float64
	require.NoError(t, db.QueryRow(`SELECT rate FROM mob_drops WHERE mob_id = 1002 AND item_id = 909`).Scan(&rate))
	require.InDelta(t, 70, rate, 1e-9)
}

func TestInsertCompleteMobSkipsBadDropIDs(t *testing.T) {
	db, store, _ := newTestDB(t)

	rec := sampleMobRecord()
	rec.Drops = append(rec.Drops, MobDrop{MobID: 1002, ItemID: 0, Name: "Broken Link"})
	require.NoError(t, store.InsertCompleteMob(rec))

	require.Equal(t, 2, tableCount(t, db, "mob_drops"))
}

func TestMarshalRespawnRules(t *testing.T) {
	dynamic := marshalRespawnRules(RespawnRules{Kind: RespawnDynamic, Count: 5, Min: 10, Max: 20})
	require.JSONEq(t, `{"type":"dynamic","count":5,"min":10,"max":20}`, dynamic)

	require.JSONEq(t, `{"type":"fixed"}`, marshalRespawnRules(RespawnRules{Kind: RespawnFixed, Count: 3, Min: 30, Max: 30}))
	require.JSONEq(t, `{"type":"fixed"}`, marshalRespawnRules(RespawnRules{Kind: RespawnUnparsed, Raw: "whenever"}))
}

func TestInsertOrUpdateItemReplaces(t *testing.T) {
	db, store, _ := newTestDB(t)

	require.NoError(t, store.InsertOrUpdateItem(Item{ID: 501, Name: "Red Potion", Type: "Healing Item"}))
	require.NoError(t, store.InsertOrUpdateItem(Item{
		ID: 501, Name: "Red Potion", Image: "img/red_potion.png",
		Type: "Usable Item", Description: "Item from Old Blue Box",
	}))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items WHERE id = 501`).Scan(&n))
	require.Equal(t, 1, n)

	var itemType, description string
	require.NoError(t, db.QueryRow(`SELECT type, description FROM items WHERE id = 501`).Scan(&itemType, &description))
	require.Equal(t, "Usable Item", itemType)
	require.Equal(t, "Item from Old Blue Box", description)
}

func TestInsertContainerDropsUnknownGID(t *testing.T) {
	db, store, _ := newTestDB(t)

	drops := []ContainerDrop{{ContainerGID: 999, ItemID: 501, Item: &Item{ID: 501, Name: "Red Potion"}}}
	_, _, err := store.InsertContainerDrops(999, drops)
	require.ErrorIs(t, err, ErrContainerNotFound)
	require.Equal(t, 0, tableCount(t, db, "container_drops"))
}

func TestInsertContainerDropsSkipsBadRows(t *testing.T) {
	db, store, _ := newTestDB(t)

	drops := []ContainerDrop{
		{ContainerGID: 1, ItemID: 501, Item: &Item{ID: 501, Name: "Red Potion"}},
		{ContainerGID: 1, ItemID: 0, Item: &Item{Name: "Broken Link"}},
		{ContainerGID: 1, ItemID: 502, Item: &Item{ID: 502, Name: "Orange Potion"}},
		{ContainerGID: 1, ItemID: 503, Item: &Item{ID: 503, Name: "Yellow Potion"}},
		{ContainerGID: 1, ItemID: 504, Item: &Item{ID: 504, Name: "White Potion"}},
	}
	processed, skipped, err := store.InsertContainerDrops(1, drops)
	require.NoError(t, err)
	require.Equal(t, 4, processed)
	require.Equal(t, 1, skipped)
	require.Equal(t, 4, tableCount(t, db, "container_drops"))
}

func TestInsertContainerDropsRefreshesInPlace(t *testing.T) {
	db, store, _ := newTestDB(t)

	first := []ContainerDrop{{ContainerGID: 1, ItemID: 501, Item: &Item{ID: 501, Name: "Red Potion"}}}
	_, _, err := store.InsertContainerDrops(1, first)
	require.NoError(t, err)

	second := []ContainerDrop{{
		ContainerGID: 1, ItemID: 501,
		Item:     &Item{ID: 501, Name: "Red Potion"},
		Rate:     sql.NullFloat64{Float64: 5, Valid: true},
		Quantity: 3,
	}}
	_, _, err = store.InsertContainerDrops(1, second)
	require.NoError(t, err)

	require.Equal(t, 1, tableCount(t, db, "container_drops"))
	var rate sql.NullFloat64
	var quantity int
	require.NoError(t, db.QueryRow(`SELECT rate, quantity FROM container_drops WHERE item_id = 501`).Scan(&rate, &quantity))
	require.True(t, rate.Valid)
	require.InDelta(t, 5, rate.Float64, 1e-9)
	require.Equal(t, 3, quantity)
}

func TestInsertCompleteContainerReport(t *testing.T) {
	_, store, _ := newTestDB(t)

	rec := ContainerRecord{GID: 1, Name: "Old Blue Box", Drops: []ContainerDrop{
		{ContainerGID: 1, ItemID: 501, Item: &Item{ID: 501, Name: "Red Potion"}},
		{ContainerGID: 1, ItemID: 0},
	}}
	report := store.InsertCompleteContainer(rec)
	require.Empty(t, report.Err)
	require.Equal(t, 2, report.ItemsFound)
	require.Equal(t, 1, report.ItemsProcessed)
	require.Equal(t, 1, report.ItemsSkipped)

	missing := store.InsertCompleteContainer(ContainerRecord{GID: 999, Name: "Ghost Box",
		Drops: []ContainerDrop{{ContainerGID: 999, ItemID: 501}}})
	require.NotEmpty(t, missing.Err)
	require.Zero(t, missing.ItemsProcessed)
}

func TestExistingMobIDs(t *testing.T) {
	_, store, _ := newTestDB(t)

	ids, err := store.ExistingMobIDs()
	require.NoError(t, err)
	require.Empty(t, ids)

	require.NoError(t, store.InsertCompleteMob(sampleMobRecord()))
	ids, err = store.ExistingMobIDs()
	require.NoError(t, err)
	require.True(t, ids[1002])
	require.False(t, ids[1001])
}

func TestSeedContainersIdempotent(t *testing.T) {
	db, _, _ := newTestDB(t)

	require.Equal(t, len(containerCatalog), tableCount(t, db, "containers"))
	require.NoError(t, seedContainers(db))
	require.Equal(t, len(containerCatalog), tableCount(t, db, "containers"))
}
