package ddragon

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"metagrid/internal/catalog"
)

// assetData is the shape shared by tft-item.json and tft-trait.json entries
type assetData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image struct {
		Full string `json:"full"`
	} `json:"image"`
}

// ChampionData is a League champion from champion.json
type ChampionData struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// ItemSource is the TFT item catalog. Display names and internal ids both map to the
// image file so aliases may target either.
type ItemSource struct {
	c *Client
}

// Items returns the TFT item catalog source
func (c *Client) Items() *ItemSource {
	return &ItemSource{c: c}
}

func (s *ItemSource) Name() string       { return "items" }
func (s *ItemSource) Kind() catalog.Kind { return catalog.KindItems }

// Fetch downloads tft-item.json for version
func (s *ItemSource) Fetch(ctx context.Context, version string) (catalog.Entries, error) {
	entries, err := s.c.fetchAssets(ctx, version, "tft-item.json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}
	return entries, nil
}

// ImageURL returns the tft-item icon URL
func (s *ItemSource) ImageURL(version string, ref catalog.AssetRef) string {
	return s.c.imageURL(version, "tft-item", string(ref))
}

// TraitSource is the TFT trait catalog
type TraitSource struct {
	c *Client
}

// Traits returns the TFT trait catalog source
func (c *Client) Traits() *TraitSource {
	return &TraitSource{c: c}
}

func (s *TraitSource) Name() string       { return "traits" }
func (s *TraitSource) Kind() catalog.Kind { return catalog.KindTraits }

// Fetch downloads tft-trait.json for version
func (s *TraitSource) Fetch(ctx context.Context, version string) (catalog.Entries, error) {
	entries, err := s.c.fetchAssets(ctx, version, "tft-trait.json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch traits: %w", err)
	}
	return entries, nil
}

// ImageURL returns the tft-trait icon URL
func (s *TraitSource) ImageURL(version string, ref catalog.AssetRef) string {
	return s.c.imageURL(version, "tft-trait", string(ref))
}

func (c *Client) fetchAssets(ctx context.Context, version, file string) (catalog.Entries, error) {
	var doc struct {
		Data map[string]assetData `json:"data"`
	}
	if err := c.getJSON(ctx, c.client, c.dataURL(version, file), &doc); err != nil {
		return nil, err
	}

	entries := make(catalog.Entries)
	for id, a := range doc.Data {
		full := catalog.AssetRef(a.Image.Full)
		if full == "" {
			continue
		}
		if a.ID == "" {
			a.ID = id
		}
		entries.Add(a.Name, full)
		entries.Add(a.ID, full)
	}
	return entries, nil
}

// ChampionSource is the League champion catalog, used when a TFT unit is missing from
// the teamplanner data
type ChampionSource struct {
	c *Client
}

// Champions returns the League champion catalog source
func (c *Client) Champions() *ChampionSource {
	return &ChampionSource{c: c}
}

func (s *ChampionSource) Name() string       { return "champions" }
func (s *ChampionSource) Kind() catalog.Kind { return catalog.KindChampions }

// Fetch downloads champion.json and indexes each champion by id and by display name
func (s *ChampionSource) Fetch(ctx context.Context, version string) (catalog.Entries, error) {
	var doc struct {
		Data map[string]ChampionData `json:"data"`
	}
	if err := s.c.getJSON(ctx, s.c.client, s.c.dataURL(version, "champion.json"), &doc); err != nil {
		return nil, fmt.Errorf("failed to fetch champions: %w", err)
	}

	entries := make(catalog.Entries)
	for id, champ := range doc.Data {
		// The map key is the icon id (e.g. "MonkeyKing" for Wukong)
		if champ.ID == "" {
			champ.ID = id
		}
		ref := catalog.AssetRef(champ.ID)
		entries.Add(champ.ID, ref)
		entries.Add(champ.Name, ref)
	}
	return entries, nil
}

// ImageURL returns the champion square portrait URL
func (s *ChampionSource) ImageURL(version string, ref catalog.AssetRef) string {
	return s.c.imageURL(version, "champion", string(ref)+".png")
}

type teamplannerUnit struct {
	DisplayName string   `json:"display_name"`
	CharacterID string   `json:"character_id"`
	Tier        int      `json:"tier"`
	Traits      []string `json:"traits"`
}

// CharacterSource is the TFT unit catalog from the CommunityDragon teamplanner,
// optionally restricted to one set
type CharacterSource struct {
	c      *Client
	setKey string
}

// Characters returns the TFT unit catalog source. An empty setKey indexes every set.
func (c *Client) Characters(setKey string) *CharacterSource {
	return &CharacterSource{c: c, setKey: strings.TrimSpace(setKey)}
}

// Name includes the set so each filter gets its own cache entry
func (s *CharacterSource) Name() string {
	if s.setKey == "" {
		return "characters-all"
	}
	return "characters-" + s.setKey
}

func (s *CharacterSource) Kind() catalog.Kind { return catalog.KindCharacters }

// Fetch downloads the teamplanner document. The document is not versioned upstream;
// version only keys the cache. An unknown set key falls back to every set.
func (s *CharacterSource) Fetch(ctx context.Context, version string) (catalog.Entries, error) {
	var doc map[string]json.RawMessage
	if err := s.c.getJSON(ctx, s.c.planner, s.c.opts.TeamplannerURL, &doc); err != nil {
		return nil, fmt.Errorf("failed to fetch teamplanner: %w", err)
	}

	sets := doc
	if raw, ok := doc[s.setKey]; ok && s.setKey != "" {
		sets = map[string]json.RawMessage{s.setKey: raw}
	}

	entries := make(catalog.Entries)
	for _, raw := range sets {
		var units []teamplannerUnit
		if err := json.Unmarshal(raw, &units); err != nil {
			// not every top-level key is a unit list
			continue
		}
		for _, u := range units {
			ref := catalog.AssetRef(u.CharacterID)
			entries.Add(u.DisplayName, ref)
			entries.Add(u.CharacterID, ref)
		}
	}
	return entries, nil
}

// ImageURL returns the MetaTFT portrait URL, e.g. .../champions/tft13_jinx.png
func (s *CharacterSource) ImageURL(version string, ref catalog.AssetRef) string {
	return s.c.opts.MetaTFTBase + strings.ToLower(string(ref)) + ".png"
}

var (
	_ catalog.Source          = (*ItemSource)(nil)
	_ catalog.Source          = (*TraitSource)(nil)
	_ catalog.Source          = (*ChampionSource)(nil)
	_ catalog.Source          = (*CharacterSource)(nil)
	_ catalog.VersionProvider = (*Client)(nil)
)
