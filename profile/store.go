// Package profile loads device profiles — the concrete, file- or
// object-store-backed form of a router.TargetModel — from local directories
// or cloud object storage.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package profile

import (
	"context"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/aie-pathfinder/router/router"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TilePattern describes one entry of a device profile: the channel counts
// and legal-connection table for every tile matching Col/Row (a negative
// value in either means "any").
type TilePattern struct {
	Col int `json:"col"`
	Row int `json:"row"`

	SourceChannels        map[string]int `json:"source_channels"`
	DestChannels          map[string]int `json:"dest_channels"`
	ShimMuxSourceChannels map[string]int `json:"shim_mux_source_channels,omitempty"`
	ShimMuxDestChannels   map[string]int `json:"shim_mux_dest_channels,omitempty"`
	IsShimNOCorPLTile     bool           `json:"is_shim_noc_or_pl_tile,omitempty"`

	// LegalPairs lists "inBundle->outBundle" strings; presence means legal
	// for every channel pair on that tile (per-channel legality is a
	// Non-goal for the profile format — spec.md's TargetModel interface
	// allows it, but no retrieved profile needs it).
	LegalPairs []string `json:"legal_pairs"`
}

// Device is the full JSON document describing a router.TargetModel: device
// extent plus a list of tile patterns, first match wins.
type Device struct {
	MaxCol int           `json:"max_col"`
	MaxRow int           `json:"max_row"`
	Tiles  []TilePattern `json:"tiles"`
}

// Store is the device-profile loading boundary; every backend below
// implements it.
type Store interface {
	Load(ctx context.Context) (*Device, error)
}

// Open dispatches on URI scheme to the matching Store implementation:
// file://, s3://, gs://, azblob://. A bare path with no scheme is treated
// as file://.
func Open(uri string) (Store, error) {
	switch {
	case strings.HasPrefix(uri, "s3://"):
		return newS3Store(uri)
	case strings.HasPrefix(uri, "gs://"):
		return newGCSStore(uri)
	case strings.HasPrefix(uri, "azblob://"):
		return newAzureStore(uri)
	case strings.HasPrefix(uri, "file://"):
		return newLocalStore(strings.TrimPrefix(uri, "file://")), nil
	default:
		return newLocalStore(uri), nil
	}
}

func (d *Device) find(col, row int) *TilePattern {
	for i := range d.Tiles {
		t := &d.Tiles[i]
		if (t.Col < 0 || t.Col == col) && (t.Row < 0 || t.Row == row) {
			return t
		}
	}
	return nil
}

// AsTargetModel projects a Device onto router.TargetModel.
func (d *Device) AsTargetModel() router.TargetModel { return &deviceModel{d: d} }

type deviceModel struct{ d *Device }

func (m *deviceModel) SourceChannels(col, row int, b router.Bundle) int {
	t := m.d.find(col, row)
	if t == nil {
		return 0
	}
	return t.SourceChannels[b.String()]
}

func (m *deviceModel) DestChannels(col, row int, b router.Bundle) int {
	t := m.d.find(col, row)
	if t == nil {
		return 0
	}
	return t.DestChannels[b.String()]
}

func (m *deviceModel) ShimMuxSourceChannels(col, row int, b router.Bundle) int {
	t := m.d.find(col, row)
	if t == nil {
		return 0
	}
	return t.ShimMuxSourceChannels[b.String()]
}

func (m *deviceModel) ShimMuxDestChannels(col, row int, b router.Bundle) int {
	t := m.d.find(col, row)
	if t == nil {
		return 0
	}
	return t.ShimMuxDestChannels[b.String()]
}

func (m *deviceModel) IsLegalTileConnection(col, row int, in router.Bundle, _ int, out router.Bundle, _ int) bool {
	t := m.d.find(col, row)
	if t == nil {
		return false
	}
	want := in.String() + "->" + out.String()
	for _, p := range t.LegalPairs {
		if p == want {
			return true
		}
	}
	return false
}

func (m *deviceModel) IsShimNOCorPLTile(col, row int) bool {
	t := m.d.find(col, row)
	return t != nil && t.IsShimNOCorPLTile
}

func decodeDevice(raw []byte) (*Device, error) {
	var d Device
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrap(err, "profile: decode device")
	}
	return &d, nil
}
