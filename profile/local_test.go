package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aie-pathfinder/router/router"
)

const tileJSON = `{
  "max_col": 1, "max_row": 0,
  "tiles": [
    {
      "col": -1, "row": -1,
      "source_channels": {"Core": 2, "East": 2, "West": 2},
      "dest_channels": {"Core": 2, "East": 2, "West": 2},
      "legal_pairs": ["Core->East", "West->Core"]
    }
  ]
}`

func TestLocalStore_LoadAndCache(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "device.json"), []byte(tileJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	store := newLocalStore(dir)
	dev, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(dev.Tiles) != 1 {
		t.Fatalf("got %d tiles, want 1", len(dev.Tiles))
	}

	// second load should hit the on-disk cache and still decode cleanly.
	dev2, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("cached load failed: %v", err)
	}
	if len(dev2.Tiles) != len(dev.Tiles) {
		t.Fatal("cached load produced a different tile count")
	}
}

func TestDevice_AsTargetModel(t *testing.T) {
	dev := &Device{
		Tiles: []TilePattern{{
			Col: -1, Row: -1,
			SourceChannels: map[string]int{"Core": 2},
			DestChannels:   map[string]int{"East": 3},
			LegalPairs:     []string{"Core->East"},
		}},
	}
	tm := dev.AsTargetModel()

	if got := tm.SourceChannels(0, 0, router.BundleCore); got != 2 {
		t.Fatalf("SourceChannels = %d, want 2", got)
	}
	if got := tm.DestChannels(5, 5, router.BundleEast); got != 3 {
		t.Fatalf("DestChannels = %d, want 3", got)
	}
	if !tm.IsLegalTileConnection(0, 0, router.BundleCore, 0, router.BundleEast, 0) {
		t.Fatal("expected Core->East to be legal")
	}
	if tm.IsLegalTileConnection(0, 0, router.BundleEast, 0, router.BundleCore, 0) {
		t.Fatal("expected East->Core to be illegal (only Core->East declared)")
	}
}

func TestDevice_UnmatchedTileReturnsZero(t *testing.T) {
	dev := &Device{Tiles: []TilePattern{{Col: 3, Row: 3, SourceChannels: map[string]int{"Core": 2}}}}
	tm := dev.AsTargetModel()
	if got := tm.SourceChannels(0, 0, router.BundleCore); got != 0 {
		t.Fatalf("SourceChannels for unmatched tile = %d, want 0", got)
	}
}
