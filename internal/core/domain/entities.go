package domain

import "strings"

// Category is the primary filter axis for places.
type Category string

const (
	CategoryAll         Category = "all"
	CategoryHotels      Category = "hotels"
	CategoryFood        Category = "food"
	CategoryAttractions Category = "attractions"
	CategoryShopping    Category = "shopping"
)

// Categories lists the concrete categories in tab order.
var Categories = []Category{CategoryHotels, CategoryFood, CategoryAttractions, CategoryShopping}

// ParseCategory normalises user input into a Category. An empty string means all.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return CategoryAll, nil
	}
	if c == CategoryAll {
		return c, nil
	}
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// PlaceType tags a place for icon and label selection only.
type PlaceType string

const (
	TypeLuxuryHotel PlaceType = "luxury-hotel"
	TypeBudgetHotel PlaceType = "budget-hotel"
	TypeResort      PlaceType = "resort"
	TypeFineDining  PlaceType = "fine-dining"
	TypeStreetFood  PlaceType = "street-food"
	TypeCafe        PlaceType = "cafe"
	TypeBar         PlaceType = "bar"
	TypeFort        PlaceType = "fort"
	TypePalace      PlaceType = "palace"
	TypeTemple      PlaceType = "temple"
	TypeMosque      PlaceType = "mosque"
	TypeChurch      PlaceType = "church"
	TypeMuseum      PlaceType = "museum"
	TypePark        PlaceType = "park"
	TypeBeach       PlaceType = "beach"
	TypeMountain    PlaceType = "mountain"
	TypeMonument    PlaceType = "monument"
	TypeMall        PlaceType = "mall"
	TypeMarket      PlaceType = "market"
	TypeBoutique    PlaceType = "boutique"
)

// Place is a point of interest from the catalog. It is never mutated after load.
type Place struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Type        PlaceType `json:"type" yaml:"type"`
	Category    Category  `json:"category" yaml:"category"`
	City        string    `json:"city" yaml:"city"`
	Location    GeoPoint  `json:"location" yaml:"location"`
	Address     string    `json:"address" yaml:"address"`
	Description string    `json:"description" yaml:"description"`
	Rating      float64   `json:"rating" yaml:"rating"`
	PriceRange  string    `json:"price_range" yaml:"price_range"`
	Phone       string    `json:"phone,omitempty" yaml:"phone"`
	IsOpen      bool      `json:"is_open" yaml:"is_open"`
	Featured    bool      `json:"featured" yaml:"featured"`
}

// City is a named map region used to recenter the viewport.
type City struct {
	Name   string   `json:"name" yaml:"name"`
	Emoji  string   `json:"emoji,omitempty" yaml:"emoji"`
	Center GeoPoint `json:"center" yaml:"center"`
}

// TravelTime holds planning-grade travel estimates in whole minutes.
type TravelTime struct {
	WalkingMinutes int `json:"walking_minutes"`
	DrivingMinutes int `json:"driving_minutes"`
	TransitMinutes int `json:"transit_minutes"`
}

// EnrichedPlace is a query result. The derived fields are set only when a
// user position is known and the place has valid coordinates.
type EnrichedPlace struct {
	Place
	DistanceKm     *float64    `json:"distance_km,omitempty"`     // computed field
	BearingDegrees *float64    `json:"bearing_degrees,omitempty"` // computed field
	Direction      string      `json:"direction,omitempty"`
	TravelTime     *TravelTime `json:"travel_time,omitempty"`
}

// Filters selects the visible subset of the catalog.
type Filters struct {
	City           string   `json:"city"`
	Category       Category `json:"category"`
	Search         string   `json:"search"`
	SortByDistance bool     `json:"sort_by_distance,omitempty"`
}

// CategoryCounts holds tab badge counts for one city.
type CategoryCounts struct {
	City        string `json:"city"`
	All         int    `json:"all"`
	Hotels      int    `json:"hotels"`
	Food        int    `json:"food"`
	Attractions int    `json:"attractions"`
	Shopping    int    `json:"shopping"`
}

// MarkerStyle is the visual state of a rendered place marker.
type MarkerStyle struct {
	Featured  bool   `json:"featured"`
	Selected  bool   `json:"selected"`
	ShowLabel bool   `json:"show_label"`
	Caption   string `json:"caption,omitempty"`
}

// MarkerHandle binds a rendered marker to a place id.
type MarkerHandle struct {
	PlaceID string      `json:"place_id"`
	Style   MarkerStyle `json:"style"`
}
