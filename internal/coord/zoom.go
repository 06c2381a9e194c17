package coord

import "math"

// RoundCenter rounds a coordinate to the 5 decimal places sent to
// static-map providers (~1 m). SelectZoom and the request URL must agree
// on the center, so both go through this function.
func RoundCenter(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

// CoveringBounds returns the WGS84 extent of a w×h pixel window centered on
// (lon, lat) at the given zoom level.
func (m WebMercator) CoveringBounds(lon, lat float64, zoom, w, h int) Bounds {
	x := m.LonToPixelX(lon, zoom)
	y := m.LatToPixelY(lat, zoom)

	halfW := float64(w) / 2
	halfH := float64(h) / 2

	return Bounds{
		MinLon: m.PixelXToLon(x-halfW, zoom),
		MaxLon: m.PixelXToLon(x+halfW, zoom),
		// Pixel y grows southwards: the top edge is the northern limit.
		MaxLat: m.PixelYToLat(y-halfH, zoom),
		MinLat: m.PixelYToLat(y+halfH, zoom),
	}
}

// SelectZoom finds the largest zoom level in [1, maxZoom] at which a w×h
// image centered on the midpoint of box covers the whole box. It returns the
// zoom and the extent of that image (the covering bounds).
//
// When no zoom covers the box the zoom-1 result is returned unchecked;
// this is the coarsest view and is not reported as an error.
func SelectZoom(proj WebMercator, box Bounds, w, h, maxZoom int) (zoom int, covering Bounds) {
	if maxZoom > MaxZoom {
		maxZoom = MaxZoom
	}
	if maxZoom < 1 {
		maxZoom = 1
	}

	lon, lat := box.Center()
	lon, lat = RoundCenter(lon), RoundCenter(lat)

	for zoom = maxZoom; zoom >= 1; zoom-- {
		covering = proj.CoveringBounds(lon, lat, zoom, w, h)
		if covering.Contains(box) {
			return zoom, covering
		}
	}
	return 1, covering
}
