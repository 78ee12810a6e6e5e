package ddragon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metagrid/internal/catalog"
)

const (
	versionsJSON = `["14.1.1", "13.24.1"]`

	itemJSON = `{"type":"tft-item","data":{
		"TFT_Item_Bloodthirster":{"id":"TFT_Item_Bloodthirster","name":"Bloodthirster","image":{"full":"TFT_Item_Bloodthirster.png"}},
		"TFT_Item_InfinityEdge":{"id":"TFT_Item_InfinityEdge","name":"Infinity Edge","image":{"full":"TFT_Item_InfinityEdge.png"}},
		"TFT_Item_Redemption":{"id":"TFT_Item_Redemption","name":"","image":{"full":"TFT_Item_Redemption.png"}},
		"TFT_Item_Broken":{"id":"TFT_Item_Broken","name":"Broken","image":{"full":""}}
	}}`

	traitJSON = `{"type":"tft-trait","data":{
		"TFT13_Sniper":{"id":"TFT13_Sniper","name":"Sniper","image":{"full":"Trait_Icon_13_Sniper.png"}}
	}}`

	championJSON = `{"type":"champion","data":{
		"MonkeyKing":{"id":"MonkeyKing","key":"62","name":"Wukong"},
		"MissFortune":{"id":"MissFortune","key":"21","name":"Miss Fortune"}
	}}`

	teamplannerJSON = `{
		"TFTSet9":[{"display_name":"Ahri","character_id":"TFT9_Ahri","tier":2,"traits":["Ionia"]}],
		"TFTSet13":[
			{"display_name":"Ahri","character_id":"TFT13_Ahri","tier":3,"traits":["Arcana"]},
			{"display_name":"Jinx","character_id":"TFT13_Jinx","tier":3,"traits":["Rebel"]}
		],
		"metadata":{"generated":"today"}
	}`
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		}
	}
	mux.HandleFunc("/api/versions.json", serve(versionsJSON))
	mux.HandleFunc("/cdn/14.1.1/data/en_US/tft-item.json", serve(itemJSON))
	mux.HandleFunc("/cdn/14.1.1/data/en_US/tft-trait.json", serve(traitJSON))
	mux.HandleFunc("/cdn/14.1.1/data/en_US/champion.json", serve(championJSON))
	mux.HandleFunc("/teamplanner.json", serve(teamplannerJSON))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(Options{
		VersionsURL:    server.URL + "/api/versions.json",
		CDNBase:        server.URL + "/cdn/",
		TeamplannerURL: server.URL + "/teamplanner.json",
		MetaTFTBase:    "https://meta.test/champions/",
	})
}

func TestLatestVersion(t *testing.T) {
	client := newTestClient(newTestServer(t))

	v, err := client.LatestVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "14.1.1", v)
}

func TestLatestVersionErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"empty list", http.StatusOK, `[]`},
		{"bad json", http.StatusOK, `not json`},
		{"server error", http.StatusInternalServerError, `oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(Options{VersionsURL: server.URL})
			_, err := client.LatestVersion(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestItemSource(t *testing.T) {
	server := newTestServer(t)
	src := newTestClient(server).Items()

	entries, err := src.Fetch(context.Background(), "14.1.1")
	require.NoError(t, err)

	assert.Equal(t, catalog.AssetRef("TFT_Item_Bloodthirster.png"), entries["bloodthirster"])
	assert.Equal(t, catalog.AssetRef("TFT_Item_Bloodthirster.png"), entries["tftitembloodthirster"])
	assert.Equal(t, catalog.AssetRef("TFT_Item_InfinityEdge.png"), entries["infinityedge"])
	// nameless items stay reachable by id
	assert.Equal(t, catalog.AssetRef("TFT_Item_Redemption.png"), entries["tftitemredemption"])
	assert.NotContains(t, entries, "broken")

	assert.Equal(t, "items", src.Name())
	assert.Equal(t, server.URL+"/cdn/14.1.1/img/tft-item/TFT_Item_InfinityEdge.png",
		src.ImageURL("14.1.1", "TFT_Item_InfinityEdge.png"))
}

func TestTraitSource(t *testing.T) {
	server := newTestServer(t)
	src := newTestClient(server).Traits()

	entries, err := src.Fetch(context.Background(), "14.1.1")
	require.NoError(t, err)
	assert.Equal(t, catalog.AssetRef("Trait_Icon_13_Sniper.png"), entries["sniper"])
	assert.Equal(t, server.URL+"/cdn/14.1.1/img/tft-trait/Trait_Icon_13_Sniper.png",
		src.ImageURL("14.1.1", "Trait_Icon_13_Sniper.png"))
}

func TestChampionSource(t *testing.T) {
	server := newTestServer(t)
	src := newTestClient(server).Champions()

	entries, err := src.Fetch(context.Background(), "14.1.1")
	require.NoError(t, err)
	assert.Equal(t, catalog.AssetRef("MonkeyKing"), entries["wukong"])
	assert.Equal(t, catalog.AssetRef("MonkeyKing"), entries["monkeyking"])
	assert.Equal(t, catalog.AssetRef("MissFortune"), entries["missfortune"])
	assert.Equal(t, server.URL+"/cdn/14.1.1/img/champion/MonkeyKing.png", src.ImageURL("14.1.1", "MonkeyKing"))
}

func TestCharacterSource(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(server)

	t.Run("set filter", func(t *testing.T) {
		src := client.Characters("TFTSet13")
		assert.Equal(t, "characters-TFTSet13", src.Name())

		entries, err := src.Fetch(context.Background(), "14.1.1")
		require.NoError(t, err)
		assert.Equal(t, catalog.AssetRef("TFT13_Ahri"), entries["ahri"])
		assert.Equal(t, catalog.AssetRef("TFT13_Jinx"), entries["jinx"])
		assert.NotContains(t, entries, "tft9ahri")
	})

	t.Run("all sets", func(t *testing.T) {
		src := client.Characters("")
		assert.Equal(t, "characters-all", src.Name())

		entries, err := src.Fetch(context.Background(), "14.1.1")
		require.NoError(t, err)
		// collisions keep the smaller ref regardless of map order
		assert.Equal(t, catalog.AssetRef("TFT13_Ahri"), entries["ahri"])
		assert.Equal(t, catalog.AssetRef("TFT9_Ahri"), entries["tft9ahri"])
	})

	t.Run("unknown set falls back to all", func(t *testing.T) {
		entries, err := client.Characters("TFTSet99").Fetch(context.Background(), "14.1.1")
		require.NoError(t, err)
		assert.Contains(t, entries, "tft9ahri")
	})

	t.Run("image url", func(t *testing.T) {
		assert.Equal(t, "https://meta.test/champions/tft13_jinx.png",
			client.Characters("").ImageURL("14.1.1", "TFT13_Jinx"))
	})
}

func TestFetchRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(Options{CDNBase: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Items().Fetch(ctx, "14.1.1")
	assert.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Options{})
	assert.Equal(t, DefaultVersionsURL, client.opts.VersionsURL)
	assert.Equal(t, 30*time.Second, client.client.Timeout)
	assert.Equal(t, 45*time.Second, client.planner.Timeout)
	assert.Equal(t, "https://ddragon.leagueoflegends.com/cdn/15.1.1/data/en_US/champion.json",
		client.dataURL("15.1.1", "champion.json"))
}
