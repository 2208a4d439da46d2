package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/tourmap/internal/adapters/catalog"
	handler "github.com/samirrijal/tourmap/internal/adapters/http"
	"github.com/samirrijal/tourmap/internal/core/domain"
	"github.com/samirrijal/tourmap/internal/core/usecases"
	"github.com/samirrijal/tourmap/internal/pkg/geospatial"
)

// ---- Helpers ----

func newEngine(t *testing.T) *usecases.QueryEngine {
	t.Helper()
	c, err := usecases.LoadCatalog(context.Background(), catalog.NewEmbedded())
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return usecases.NewQueryEngine(c, geospatial.DefaultSpeeds)
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(t *testing.T, opts ...func(*handler.Dependencies)) *handler.Dependencies {
	t.Helper()
	engine := newEngine(t)
	d := &handler.Dependencies{
		Places:   usecases.NewPlaceService(engine, usecases.NewLinkBuilder(""), nil, 0),
		Engine:   engine,
		Explorer: usecases.DefaultExplorerConfig(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return data
}

type placesPage struct {
	Data       []domain.EnrichedPlace `json:"data"`
	Pagination handler.Pagination     `json:"pagination"`
}

// ---- Cities ----

func TestListCities_Success(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/cities", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Cities []domain.City `json:"cities"`
	}
	json.Unmarshal(readBody(t, resp.Body), &out)
	if len(out.Cities) != 11 {
		t.Fatalf("expected 11 cities, got %d", len(out.Cities))
	}
	if out.Cities[0].Name != "Mumbai" {
		t.Errorf("expected Mumbai first, got %s", out.Cities[0].Name)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
}

func TestCityCounts_Success(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/cities/Goa/counts", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var c domain.CategoryCounts
	json.Unmarshal(readBody(t, resp.Body), &c)
	want := domain.CategoryCounts{City: "Goa", All: 50, Hotels: 7, Food: 14, Attractions: 23, Shopping: 6}
	if c != want {
		t.Errorf("expected %+v, got %+v", want, c)
	}
}

func TestCityCounts_UnknownCity(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/cities/Atlantis/counts", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var apiErr handler.APIError
	json.Unmarshal(readBody(t, resp.Body), &apiErr)
	if apiErr.Code != "not_found" {
		t.Errorf("expected not_found, got %q", apiErr.Code)
	}
}

// ---- Places ----

func TestListPlaces_CategoryAndSearch(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/places?city=Goa&category=food&q=beach", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var page placesPage
	json.Unmarshal(readBody(t, resp.Body), &page)
	want := []string{"Curlies Beach Shack", "Britto's", "Pousada by the Beach", "Antares Beach Club"}
	if len(page.Data) != len(want) {
		t.Fatalf("expected %d places, got %d", len(want), len(page.Data))
	}
	for i, p := range page.Data {
		if p.Name != want[i] {
			t.Errorf("result %d: expected %s, got %s", i, want[i], p.Name)
		}
		if p.DistanceKm != nil {
			t.Errorf("%s: no distance expected without a position", p.ID)
		}
	}
	if page.Pagination.Total != 4 {
		t.Errorf("expected total 4, got %d", page.Pagination.Total)
	}
}

func TestListPlaces_WithPosition(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/places?city=Goa&q=Calangute%20Beach&lat=15.5&lon=73.8", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var page placesPage
	json.Unmarshal(readBody(t, resp.Body), &page)
	if len(page.Data) == 0 {
		t.Fatal("expected Calangute Beach")
	}
	p := page.Data[0]
	if p.DistanceKm == nil || *p.DistanceKm < 6.7 || *p.DistanceKm > 6.9 {
		t.Errorf("unexpected distance %v", p.DistanceKm)
	}
	if p.Direction != "NW" || p.TravelTime == nil || p.TravelTime.DrivingMinutes != 10 {
		t.Errorf("unexpected enrichment %+v %+v", p.Direction, p.TravelTime)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "private, max-age=60" {
		t.Errorf("position queries must not be shared-cached, got %q", cc)
	}
}

func TestListPlaces_SortByDistance(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/places?city=Goa&lat=15.5&lon=73.8&sort=distance", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var page placesPage
	json.Unmarshal(readBody(t, resp.Body), &page)
	for i := 1; i < len(page.Data); i++ {
		if *page.Data[i].DistanceKm < *page.Data[i-1].DistanceKm {
			t.Fatalf("results not sorted by distance at %d", i)
		}
	}
}

func TestListPlaces_Pagination(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/places?city=Mumbai&offset=10&limit=10", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var page placesPage
	json.Unmarshal(readBody(t, resp.Body), &page)
	if len(page.Data) != 10 || page.Pagination.Total != 40 || page.Pagination.Offset != 10 {
		t.Errorf("unexpected page %d items, %+v", len(page.Data), page.Pagination)
	}
	if page.Data[0].ID != "mb11" {
		t.Errorf("expected declaration order, got %s first", page.Data[0].ID)
	}

	link := resp.Header.Get("Link")
	for _, want := range []string{`rel="first"`, `rel="prev"`, `rel="next"`, `rel="last"`, "city=Mumbai"} {
		if !strings.Contains(link, want) {
			t.Errorf("Link header missing %s: %s", want, link)
		}
	}
}

func TestListPlaces_BadRequests(t *testing.T) {
	app := setupApp(makeDeps(t))

	cases := map[string]int{
		"/v1/places":                          400, // missing city
		"/v1/places?city=Goa&category=spa":    400,
		"/v1/places?city=Goa&lat=15.5":        400,
		"/v1/places?city=Goa&lat=95&lon=73.8": 400,
		"/v1/places?city=Goa&lat=x&lon=73.8":  400,
		"/v1/places?city=Goa&sort=rating":     400,
		"/v1/places?city=Atlantis":            404,
	}
	cases["/v1/places?city=Goa&q="+strings.Repeat("a", 201)] = 400
	for url, want := range cases {
		resp, _ := app.Test(httptest.NewRequest("GET", url, nil), -1)
		if resp.StatusCode != want {
			t.Errorf("%s: expected %d, got %d", url, want, resp.StatusCode)
		}
	}
}

func TestListPlaces_EmptyResult(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/places?city=Goa&q=zzzz", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := readBody(t, resp.Body)
	if !strings.Contains(string(body), `"data":[]`) {
		t.Errorf("expected an empty data array, got %s", body)
	}
}

func TestGetPlace_Success(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/places/g15", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Place        domain.EnrichedPlace `json:"place"`
		Presentation domain.TypeDetails   `json:"presentation"`
	}
	json.Unmarshal(readBody(t, resp.Body), &out)
	if out.Place.Name != "Curlies Beach Shack" {
		t.Errorf("expected Curlies Beach Shack, got %s", out.Place.Name)
	}
	if out.Presentation.Label != "Bar" {
		t.Errorf("expected Bar presentation, got %+v", out.Presentation)
	}
}

func TestGetPlace_NotFound(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/places/nope", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPlaceLinks_Success(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/places/m1/links", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var l usecases.Links
	json.Unmarshal(readBody(t, resp.Body), &l)
	if l.Phone != "tel:+912222844040" {
		t.Errorf("unexpected phone link %q", l.Phone)
	}
	if l.Maps != "https://www.google.com/maps/search/?api=1&query=18.922,72.8347" {
		t.Errorf("unexpected maps link %q", l.Maps)
	}
	if l.Share.Text != "Check out Gateway of India in Mumbai!" {
		t.Errorf("unexpected share text %q", l.Share.Text)
	}
	if l.Directions != "" || l.DirectionsHint == "" {
		t.Errorf("directions need a position, got %q / %q", l.Directions, l.DirectionsHint)
	}
}

func TestPlaceLinks_Directions(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/places/m1/links?lat=19.076&lon=72.8777", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var l usecases.Links
	json.Unmarshal(readBody(t, resp.Body), &l)
	if l.Directions != "https://www.google.com/maps/dir/19.076,72.8777/18.922,72.8347" {
		t.Errorf("unexpected directions %q", l.Directions)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "private, max-age=60" {
		t.Errorf("position-specific links must not be cached publicly, got %q", cc)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/places/m1/links?lat=19.076", nil), -1)
	if resp.StatusCode != 400 {
		t.Errorf("expected 400 for a half position, got %d", resp.StatusCode)
	}
}

func TestPlaceTypes(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/place-types", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Types    []handler.PlaceTypeInfo `json:"types"`
		Fallback domain.TypeDetails      `json:"fallback"`
	}
	json.Unmarshal(readBody(t, resp.Body), &out)
	if len(out.Types) != len(domain.PlaceTypes) {
		t.Errorf("expected %d types, got %d", len(domain.PlaceTypes), len(out.Types))
	}
	if out.Fallback.Emoji != "📍" {
		t.Errorf("unexpected fallback %+v", out.Fallback)
	}
}

// ---- Caching ----

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/cities", nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag")
	}

	req := httptest.NewRequest("GET", "/v1/cities", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

// ---- Health ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps(t))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

type fakeBroker struct{ up bool }

func (f fakeBroker) Connected() bool { return f.up }

func TestReady(t *testing.T) {
	cases := []struct {
		name   string
		broker handler.BrokerStatus
		want   int
	}{
		{"embedded catalog only", nil, 200},
		{"broker up", fakeBroker{up: true}, 200},
		{"broker down", fakeBroker{up: false}, 503},
	}
	for _, tc := range cases {
		app := setupApp(makeDeps(t, func(d *handler.Dependencies) { d.Broker = tc.broker }))
		resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
		if resp.StatusCode != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, resp.StatusCode)
		}
	}
}

// ---- GraphQL ----

func graphQL(t *testing.T, app *fiber.App, query string) map[string]interface{} {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"query": query})
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(readBody(t, resp.Body), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestGraphQL_Places(t *testing.T) {
	app := setupApp(makeDeps(t))

	out := graphQL(t, app, `{ places(city: "Goa", category: "food", search: "beach", lat: 15.5, lon: 73.8) { id name distance_km label } }`)
	if errs, ok := out["errors"]; ok {
		t.Fatalf("unexpected errors: %v", errs)
	}
	places := out["data"].(map[string]interface{})["places"].([]interface{})
	if len(places) != 4 {
		t.Fatalf("expected 4 places, got %d", len(places))
	}
	first := places[0].(map[string]interface{})
	if first["name"] != "Curlies Beach Shack" || first["label"] != "Bar" {
		t.Errorf("unexpected first place %v", first)
	}
	if _, ok := first["distance_km"].(float64); !ok {
		t.Errorf("expected a distance, got %v", first["distance_km"])
	}
}

func TestGraphQL_CountsAndErrors(t *testing.T) {
	app := setupApp(makeDeps(t))

	out := graphQL(t, app, `{ categoryCounts(city: "Goa") { all food } }`)
	counts := out["data"].(map[string]interface{})["categoryCounts"].(map[string]interface{})
	if counts["all"].(float64) != 50 || counts["food"].(float64) != 14 {
		t.Errorf("unexpected counts %v", counts)
	}

	out = graphQL(t, app, `{ place(id: "nope") { id } }`)
	if _, ok := out["errors"]; !ok {
		t.Error("expected an error for an unknown place")
	}
}
