package usecases

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samirrijal/tourmap/internal/core/domain"
)

// DefaultMapsBaseURL is the external maps provider search endpoint.
const DefaultMapsBaseURL = "https://www.google.com/maps/search/"

// DirectionsBaseURL is the external maps provider directions endpoint.
const DirectionsBaseURL = "https://www.google.com/maps/dir/"

// DirectionsUnavailable is shown instead of a directions link when the user
// position is unknown.
const DirectionsUnavailable = "Please enable location access to get directions"

// SharePayload is handed to the native share sheet.
type SharePayload struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// Links are the outward actions available for a place.
type Links struct {
	Phone     string       `json:"phone,omitempty"` // tel: URI, empty when the place has no phone
	Maps      string       `json:"maps"`
	Share     SharePayload `json:"share"`
	Clipboard string       `json:"clipboard"` // fallback when native share is unavailable

	Directions     string `json:"directions,omitempty"`
	DirectionsHint string `json:"directions_hint,omitempty"`
}

// LinkBuilder renders Links against a maps provider.
type LinkBuilder struct {
	mapsBaseURL string
}

// NewLinkBuilder uses DefaultMapsBaseURL when base is empty.
func NewLinkBuilder(base string) LinkBuilder {
	if base == "" {
		base = DefaultMapsBaseURL
	}
	return LinkBuilder{mapsBaseURL: base}
}

// For builds the links for p. Directions start at user when it is known.
func (b LinkBuilder) For(p domain.Place, user *domain.GeoPoint) Links {
	maps := b.MapsURL(p.Location)
	l := Links{
		Phone: PhoneURI(p.Phone),
		Maps:  maps,
		Share: SharePayload{
			Title: p.Name,
			Text:  fmt.Sprintf("Check out %s in %s!", p.Name, p.City),
			URL:   maps,
		},
		Clipboard: fmt.Sprintf("%s: %s", p.Name, maps),
	}
	if user != nil && user.Valid() && p.Location.Valid() {
		l.Directions = DirectionsURL(*user, p.Location)
	} else {
		l.DirectionsHint = DirectionsUnavailable
	}
	return l
}

// DirectionsURL opens turn-by-turn directions from one point to another in
// the external maps provider.
func DirectionsURL(from, to domain.GeoPoint) string {
	return DirectionsBaseURL + formatPoint(from) + "/" + formatPoint(to)
}

func formatPoint(p domain.GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

// MapsURL is a deep link that opens the point in the external maps provider.
func (b LinkBuilder) MapsURL(at domain.GeoPoint) string {
	sep := "?"
	if strings.Contains(b.mapsBaseURL, "?") {
		sep = "&"
	}
	return b.mapsBaseURL + sep + "api=1&query=" + formatPoint(at)
}

// PhoneURI turns a display phone number into a tel: URI.
func PhoneURI(phone string) string {
	var sb strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '+' && i == 0:
			sb.WriteRune(r)
		}
	}
	digits := sb.String()
	if strings.TrimPrefix(digits, "+") == "" {
		return ""
	}
	return "tel:" + digits
}
