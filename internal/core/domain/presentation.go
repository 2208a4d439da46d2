package domain

// TypeDetails is the icon and label used to draw a place of a given type.
type TypeDetails struct {
	Emoji string `json:"emoji"`
	Color string `json:"color"`
	Label string `json:"label"`
}

var typeDetails = map[PlaceType]TypeDetails{
	TypeLuxuryHotel: {Emoji: "🏨", Color: "#8B5CF6", Label: "Luxury Hotel"},
	TypeBudgetHotel: {Emoji: "🏨", Color: "#6366F1", Label: "Budget Hotel"},
	TypeResort:      {Emoji: "🏖️", Color: "#EC4899", Label: "Resort"},
	TypeFineDining:  {Emoji: "🍽️", Color: "#F59E0B", Label: "Fine Dining"},
	TypeStreetFood:  {Emoji: "🍜", Color: "#FBBF24", Label: "Street Food"},
	TypeCafe:        {Emoji: "☕", Color: "#A78BFA", Label: "Cafe"},
	TypeBar:         {Emoji: "🍹", Color: "#F472B6", Label: "Bar"},
	TypeFort:        {Emoji: "🏰", Color: "#DC2626", Label: "Fort"},
	TypePalace:      {Emoji: "👑", Color: "#F59E0B", Label: "Palace"},
	TypeTemple:      {Emoji: "🛕", Color: "#FF6B6B", Label: "Temple"},
	TypeMosque:      {Emoji: "🕌", Color: "#4ECDC4", Label: "Mosque"},
	TypeChurch:      {Emoji: "⛪", Color: "#95E1D3", Label: "Church"},
	TypeMuseum:      {Emoji: "🏛️", Color: "#9B59B6", Label: "Museum"},
	TypePark:        {Emoji: "🌳", Color: "#10B981", Label: "Park"},
	TypeBeach:       {Emoji: "🏖️", Color: "#3B82F6", Label: "Beach"},
	TypeMountain:    {Emoji: "⛰️", Color: "#78909C", Label: "Mountain"},
	TypeMonument:    {Emoji: "🗿", Color: "#EF4444", Label: "Monument"},
	TypeMall:        {Emoji: "🛍️", Color: "#A855F7", Label: "Mall"},
	TypeMarket:      {Emoji: "🏪", Color: "#F97316", Label: "Market"},
	TypeBoutique:    {Emoji: "👗", Color: "#EC4899", Label: "Boutique"},
}

// PlaceTypes lists the known type tags in presentation order.
var PlaceTypes = []PlaceType{
	TypeLuxuryHotel, TypeBudgetHotel, TypeResort,
	TypeFineDining, TypeStreetFood, TypeCafe, TypeBar,
	TypeFort, TypePalace, TypeTemple, TypeMosque, TypeChurch, TypeMuseum,
	TypePark, TypeBeach, TypeMountain, TypeMonument,
	TypeMall, TypeMarket, TypeBoutique,
}

var unknownType = TypeDetails{Emoji: "📍", Color: "#6B7280", Label: "Location"}

// Details returns the presentation for t, or a generic pin for unknown types.
func (t PlaceType) Details() TypeDetails {
	if d, ok := typeDetails[t]; ok {
		return d
	}
	return unknownType
}

// Known reports whether t is one of the catalog's type tags.
func (t PlaceType) Known() bool {
	_, ok := typeDetails[t]
	return ok
}
