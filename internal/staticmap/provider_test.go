package staticmap

import (
	"net/url"
	"strings"
	"testing"
)

func TestLookupProvider(t *testing.T) {
	for _, tt := range []struct {
		name     string
		tileSize int
		maxZoom  int
		size     int
	}{
		{"mapbox", 512, 16, 1024},
		{"google", 256, 20, 640},
		{"Mapbox", 512, 16, 1024},
	} {
		p, err := LookupProvider(tt.name)
		if err != nil {
			t.Fatalf("LookupProvider(%q): %v", tt.name, err)
		}
		if p.TileSize != tt.tileSize || p.MaxZoom != tt.maxZoom || p.Width != tt.size || p.Height != tt.size {
			t.Errorf("%s: tile %d zoom %d size %dx%d", tt.name, p.TileSize, p.MaxZoom, p.Width, p.Height)
		}
	}

	if _, err := LookupProvider("osm"); err == nil || !strings.Contains(err.Error(), "google, mapbox") {
		t.Errorf("LookupProvider(osm) error = %v, want unknown provider listing names", err)
	}
}

func TestProvider_URL(t *testing.T) {
	mapbox, _ := LookupProvider("mapbox")
	mapbox.Token = "pk.secret"
	want := "https://api.mapbox.com/styles/v1/mapbox/streets-v12/static/-0.09500,51.50500,15/1024x1024@2x?access_token=pk.secret&attribution=false&logo=false"
	if got := mapbox.URL(-0.095, 51.505, 15); got != want {
		t.Errorf("mapbox URL =\n  %s\nwant\n  %s", got, want)
	}

	mapbox.Retina = false
	if got := mapbox.URL(-0.095, 51.505, 15); !strings.Contains(got, "/1024x1024?") {
		t.Errorf("non-retina mapbox URL = %s", got)
	}

	google, _ := LookupProvider("google")
	google.Token = "AIza"
	want = "https://maps.googleapis.com/maps/api/staticmap?center=52.20561,0.12346&zoom=17&size=640x640&scale=2&maptype=satellite&key=AIza"
	if got := google.URL(0.123456, 52.205612, 17); got != want {
		t.Errorf("google URL =\n  %s\nwant\n  %s", got, want)
	}
}

func TestProvider_URLEscaping(t *testing.T) {
	mapbox, _ := LookupProvider("mapbox")
	mapbox.Style = "dark v11"
	mapbox.Token = "pk.a+b&c=d/e"
	got := mapbox.URL(-0.095, 51.505, 15)
	want := "https://api.mapbox.com/styles/v1/mapbox/dark%20v11/static/-0.09500,51.50500,15/1024x1024@2x?access_token=pk.a%2Bb%26c%3Dd%2Fe&attribution=false&logo=false"
	if got != want {
		t.Errorf("mapbox URL =\n  %s\nwant\n  %s", got, want)
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("url.Parse: %v", err)
	}
	if tok := u.Query().Get("access_token"); tok != mapbox.Token {
		t.Errorf("access_token = %q, want %q", tok, mapbox.Token)
	}
	if q := u.Query(); q.Get("logo") != "false" || len(q) != 3 {
		t.Errorf("query corrupted: %v", q)
	}
	if red := mapbox.Redact(got); strings.Contains(red, "pk.a") || !strings.Contains(red, "[REDACTED]") {
		t.Errorf("Redact = %s", red)
	}

	// A user style keeps its owner/id separator in the path.
	custom := Provider{URLTemplate: "https://x/styles/v1/{style}/static?token={token}", Style: "me/ck 1", Token: "t"}
	if got := custom.URL(0, 0, 1); got != "https://x/styles/v1/me/ck%201/static?token=t" {
		t.Errorf("custom URL = %s", got)
	}

	google, _ := LookupProvider("google")
	google.Style = "hybrid&x=1"
	google.Token = "AI za"
	got = google.URL(0.123456, 52.205612, 17)
	if !strings.HasSuffix(got, "&maptype=hybrid%26x%3D1&key=AI+za") {
		t.Errorf("google URL = %s", got)
	}
}

func TestProvider_Validate(t *testing.T) {
	p, _ := LookupProvider("mapbox")
	if err := p.Validate(); err == nil || !strings.Contains(err.Error(), "access token") {
		t.Errorf("Validate without token = %v, want access token error", err)
	}
	p.Token = "tok"
	if err := p.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	bad := Provider{Name: "bad", URLTemplate: "http://x/{zoom}", MaxZoom: 30}
	err := bad.Validate()
	if err == nil {
		t.Fatal("Validate(bad) succeeded")
	}
	for _, want := range []string{"tile size", "max zoom", "image size"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestProvider_Redact(t *testing.T) {
	p := Provider{Token: "pk.secret"}
	got := p.Redact("https://x/static?access_token=pk.secret&logo=false")
	if strings.Contains(got, "pk.secret") || !strings.Contains(got, "[REDACTED]") {
		t.Errorf("Redact = %s", got)
	}
	if got := (Provider{}).Redact("https://x/"); got != "https://x/" {
		t.Errorf("Redact without token = %s", got)
	}
}
