package coord

import "math"

const (
	// EarthCircumference is the equatorial circumference in meters.
	EarthCircumference = 40075016.685578488
	// DefaultTileSize is the pixel width spanning 360° of longitude at zoom 0
	// for 512px static-map providers.
	DefaultTileSize = 512
	// MaxZoom is the finest zoom level any provider serves.
	MaxZoom = 20
)

// WebMercator converts between WGS84 degrees and global pixel coordinates
// at a given zoom level (EPSG:3857 pixel space, origin top-left).
//
// A pixel coordinate is only meaningful together with the zoom it was
// computed for.
type WebMercator struct {
	TileSize int
}

// NewWebMercator returns a projector for the given tile size.
// A non-positive size selects DefaultTileSize.
func NewWebMercator(tileSize int) WebMercator {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	return WebMercator{TileSize: tileSize}
}

// scale is the number of pixels per radian of longitude at zoom.
func (m WebMercator) scale(zoom int) float64 {
	size := m.TileSize
	if size <= 0 {
		size = DefaultTileSize
	}
	return float64(size) / (2 * math.Pi) * math.Pow(2, float64(zoom))
}

// LonToPixelX projects a longitude to a global pixel x coordinate.
func (m WebMercator) LonToPixelX(lon float64, zoom int) float64 {
	return m.scale(zoom) * (radians(lon) + math.Pi)
}

// LatToPixelY projects a latitude to a global pixel y coordinate.
// y grows southwards. Latitudes beyond ±85.05° are not clamped.
func (m WebMercator) LatToPixelY(lat float64, zoom int) float64 {
	return m.scale(zoom) * (math.Pi - math.Log(math.Tan(math.Pi/4+radians(lat)/2)))
}

// PixelXToLon is the inverse of LonToPixelX.
func (m WebMercator) PixelXToLon(x float64, zoom int) float64 {
	return degrees(x/m.scale(zoom) - math.Pi)
}

// PixelYToLat is the inverse of LatToPixelY.
func (m WebMercator) PixelYToLat(y float64, zoom int) float64 {
	return degrees(2*math.Atan(math.Exp(math.Pi-y/m.scale(zoom))) - math.Pi/2)
}

// ResolutionAtLat returns the ground resolution in meters/pixel at the given latitude and zoom level.
func (m WebMercator) ResolutionAtLat(lat float64, zoom int) float64 {
	return EarthCircumference * math.Cos(radians(lat)) / (2 * math.Pi * m.scale(zoom))
}

func radians(deg float64) float64 { return deg * math.Pi / 180.0 }
func degrees(rad float64) float64 { return rad * 180.0 / math.Pi }
