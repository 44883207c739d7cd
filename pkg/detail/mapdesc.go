package detail

import (
	"github.com/rovlab/go-dataflow/pkg/gnss"
)

// MapConfig configures the trajectory map widget. TileServerProtocol may be
// set to "https:" when the dashboard is served over TLS and tile requests
// must be secured too.
type MapConfig struct {
	MinZoom            int    `yaml:"minzoom"`
	MaxZoom            int    `yaml:"maxzoom"`
	TileServerProtocol string `yaml:"tile_server_protocol"`
}

// DefaultMapConfig mirrors the dashboard defaults.
func DefaultMapConfig() MapConfig {
	return MapConfig{MinZoom: -30, MaxZoom: 40}
}

// MakeMapDict builds the dashboard map descriptor for a trajectory overlay:
// base tile layers plus the colored GeoJSON line, with zoom bounds. The
// descriptor serializes with sorted keys, so identical inputs produce
// identical documents.
func MakeMapDict(geojson gnss.GeoJSON, cfg MapConfig) map[string]any {
	proto := cfg.TileServerProtocol

	return map[string]any{
		"layers": []any{
			map[string]any{
				"title": "Background",
				"tiles": []any{
					map[string]any{
						"title":       "Roadmap",
						"url":         proto + "//[abc].osm.ternaris.com/mapbox-studio-osm-bright/{z}/{x}/{y}.png",
						"attribution": `© <a href="http://openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
						"retina":      3,
						"zoom":        map[string]any{"min": 0, "max": 20},
					},
					map[string]any{
						"title":       "Satellite",
						"url":         proto + "//server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}.png",
						"attribution": "Sources: Esri, DigitalGlobe, GeoEye, Earthstar Geographics, CNES/Airbus DS, USDA, USGS, AeroGRID, IGN, and the GIS User Community",
						"zoom":        map[string]any{"min": 0, "max": 18},
					},
				},
			},
			map[string]any{
				"title":   "Trajectory",
				"color":   []int{0, 255, 0, 255},
				"geojson": geojson,
			},
		},
		"zoom": map[string]any{"min": cfg.MinZoom, "max": cfg.MaxZoom},
	}
}
