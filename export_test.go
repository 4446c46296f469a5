package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExportMobName(t *testing.T) {
	require.Equal(t, "Poring", exportMobName("Poring (poring)"))
	require.Equal(t, "Poring", exportMobName("Poring"))
	require.Equal(t, "Baphomet Jr.", exportMobName("Baphomet Jr. (baphomet_)"))
	require.Equal(t, "", exportMobName("(orphan)"))
}

func TestBuildExport(t *testing.T) {
	_, store, queries := newTestDB(t)
	require.NoError(t, store.InsertCompleteMob(sampleMobRecord()))

	export, err := queries.BuildExport()
	require.NoError(t, err)
	require.NotEmpty(t, export.GeneratedAt)

	require.Len(t, export.Mobs, 1)
	require.Equal(t, 1002, export.Mobs[0].ID)
	require.Equal(t, "Poring", export.Mobs[0].Name)
	require.Equal(t, []string{"Can Move", "Looter"}, export.Mobs[0].Mode)

	// Two drop stub items on top of the seeded catalog.
	require.Len(t, export.Items, len(containerCatalog)+2)

	require.Len(t, export.MobDrops, 2)
	require.Len(t, export.MobRespawns, 2)
	require.Len(t, export.MobSkills, 1)
	require.Len(t, export.MobElements, 2)

	require.Len(t, export.MobStats, 1)
	stat := export.MobStats[0]
	require.NotNil(t, stat.HP)
	require.EqualValues(t, 50, *stat.HP)
	require.Nil(t, stat.Str)
	require.Equal(t, map[string]string{"Race": "Plant"}, stat.Extra)
}

func TestExportTrimsMobName(t *testing.T) {
	_, store, queries := newTestDB(t)

	rec := MobRecord{}
	rec.Mob = Mob{ID: 1039, Name: "Baphomet (baphomet)"}
	require.NoError(t, store.InsertCompleteMob(rec))

	export, err := queries.BuildExport()
	require.NoError(t, err)
	require.Len(t, export.Mobs, 1)
	require.Equal(t, "Baphomet", export.Mobs[0].Name)
}

func TestExportRespawnRulesRoundTrip(t *testing.T) {
	_, store, queries := newTestDB(t)
	require.NoError(t, store.InsertCompleteMob(sampleMobRecord()))

	export, err := queries.BuildExport()
	require.NoError(t, err)
	require.Len(t, export.MobRespawns, 2)

	rulesByMap := map[string]json.RawMessage{}
	for _, r := range export.MobRespawns {
		require.NotNil(t, r.Map)
		rulesByMap[*r.Map] = r.RespawnRules
	}
	require.JSONEq(t, `{"type":"dynamic","count":70,"min":1,"max":2}`, string(rulesByMap["prt_fild08"]))
	require.JSONEq(t, `{"type":"fixed"}`, string(rulesByMap["gef_fild07"]))
}

func TestWriteExportIsValidJSON(t *testing.T) {
	_, store, queries := newTestDB(t)
	seedHybridScenario(t, store)

	var buf bytes.Buffer
	require.NoError(t, queries.WriteExport(&buf))

	var decoded DatabaseExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Mobs, 1)
	require.Len(t, decoded.MobDrops, 1)
}

func TestExportNullableColumns(t *testing.T) {
	db, store, queries := newTestDB(t)

	rec := MobRecord{}
	rec.Mob = Mob{ID: 1002, Name: "Poring"}
	require.NoError(t, store.InsertCompleteMob(rec))

	// A drop row written without rate stays null end to end.
	_, err := db.Exec(`INSERT INTO mob_drops (mob_id, item_id, name) VALUES (1002, 909, 'Jellopy')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO items (id, name) VALUES (909, 'Jellopy') ON CONFLICT (id) DO NOTHING`)
	require.NoError(t, err)

	export, err := queries.BuildExport()
	require.NoError(t, err)
	require.Len(t, export.MobDrops, 1)
	require.Nil(t, export.MobDrops[0].Rate)
	require.NotNil(t, export.MobDrops[0].ItemID)
}
