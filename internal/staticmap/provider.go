package staticmap

import (
	"fmt"
	neturl "net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/RobertMichaelSales/NK-Stroke-Coach-Analysis/internal/coord"
)

// Provider describes a static-map HTTP API. URLTemplate placeholders:
// {style}, {lon}, {lat}, {zoom}, {w}, {h}, {retina} ("@2x" or ""),
// {scale} ("2" or "1") and {token}.
type Provider struct {
	Name        string
	URLTemplate string
	TileSize    int
	MaxZoom     int
	Width       int
	Height      int
	Style       string
	Retina      bool
	Token       string
	Attribution string
}

var builtinProviders = map[string]Provider{
	"mapbox": {
		Name:        "mapbox",
		URLTemplate: "https://api.mapbox.com/styles/v1/mapbox/{style}/static/{lon},{lat},{zoom}/{w}x{h}{retina}?access_token={token}&attribution=false&logo=false",
		TileSize:    512,
		MaxZoom:     16,
		Width:       1024,
		Height:      1024,
		Style:       "streets-v12",
		Retina:      true,
		Attribution: "© Mapbox © OpenStreetMap",
	},
	"google": {
		Name:        "google",
		URLTemplate: "https://maps.googleapis.com/maps/api/staticmap?center={lat},{lon}&zoom={zoom}&size={w}x{h}&scale={scale}&maptype={style}&key={token}",
		TileSize:    256,
		MaxZoom:     20,
		Width:       640,
		Height:      640,
		Style:       "satellite",
		Retina:      true,
		Attribution: "Map data © Google",
	},
}

// LookupProvider returns a copy of a built-in provider.
func LookupProvider(name string) (Provider, error) {
	p, ok := builtinProviders[strings.ToLower(name)]
	if !ok {
		return Provider{}, fmt.Errorf("unknown map provider %q (supported: %s)", name, strings.Join(ProviderNames(), ", "))
	}
	return p, nil
}

// ProviderNames lists the built-in providers in sorted order.
func ProviderNames() []string {
	names := make([]string, 0, len(builtinProviders))
	for k := range builtinProviders {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the provider can build a request.
func (p Provider) Validate() error {
	var errs []string
	if p.URLTemplate == "" {
		errs = append(errs, "url template is empty")
	}
	if p.TileSize <= 0 {
		errs = append(errs, fmt.Sprintf("tile size must be positive, got %d", p.TileSize))
	}
	if p.MaxZoom < 1 || p.MaxZoom > coord.MaxZoom {
		errs = append(errs, fmt.Sprintf("max zoom must be 1-%d, got %d", coord.MaxZoom, p.MaxZoom))
	}
	if p.Width <= 0 || p.Height <= 0 {
		errs = append(errs, fmt.Sprintf("image size must be positive, got %dx%d", p.Width, p.Height))
	}
	if strings.Contains(p.URLTemplate, "{token}") && p.Token == "" {
		errs = append(errs, "access token is required")
	}
	if len(errs) > 0 {
		return fmt.Errorf("provider %s: %s", p.Name, strings.Join(errs, "; "))
	}
	return nil
}

// Projection returns the Web Mercator projection for the provider's tile size.
func (p Provider) Projection() coord.WebMercator {
	return coord.NewWebMercator(p.TileSize)
}

// URL expands the template for a map centered on (lon, lat). The center is
// written with 5 decimals, the precision used by zoom selection.
func (p Provider) URL(lon, lat float64, zoom int) string {
	retina, scale := "", "1"
	if p.Retina {
		retina, scale = "@2x", "2"
	}
	r := strings.NewReplacer(
		"{style}", p.escape("{style}", p.Style),
		"{lon}", strconv.FormatFloat(coord.RoundCenter(lon), 'f', 5, 64),
		"{lat}", strconv.FormatFloat(coord.RoundCenter(lat), 'f', 5, 64),
		"{zoom}", strconv.Itoa(zoom),
		"{w}", strconv.Itoa(p.Width),
		"{h}", strconv.Itoa(p.Height),
		"{retina}", retina,
		"{scale}", scale,
		"{token}", p.escape("{token}", p.Token),
	)
	return r.Replace(p.URLTemplate)
}

// escape encodes a user-supplied value for where its placeholder sits in
// the template: query escaping after the '?', per-segment path escaping
// before it. Slashes in a path value are kept as segment separators.
func (p Provider) escape(placeholder, value string) string {
	at := strings.Index(p.URLTemplate, placeholder)
	if q := strings.Index(p.URLTemplate, "?"); q >= 0 && at > q {
		return neturl.QueryEscape(value)
	}
	segs := strings.Split(value, "/")
	for i, s := range segs {
		segs[i] = neturl.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// Redact hides the access token in a URL for logging.
func (p Provider) Redact(url string) string {
	if p.Token == "" {
		return url
	}
	for _, tok := range []string{p.Token, p.escape("{token}", p.Token)} {
		url = strings.ReplaceAll(url, tok, "[REDACTED]")
	}
	return url
}
