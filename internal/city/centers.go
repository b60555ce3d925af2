package city

import "github.com/couchcryptid/store-locator-etl/internal/domain"

// Labels with special meaning.
const (
	Capital  = "Bakı"
	Regional = "Regional"
	Unknown  = "Unknown"
)

// Centers are the reference points for nearest-center classification, in
// tie-break order.
var Centers = []domain.CityCenter{
	{Name: "Bakı", Latitude: 40.4093, Longitude: 49.8671},
	{Name: "Sumqayıt", Latitude: 40.5894, Longitude: 49.6684},
	{Name: "Gəncə", Latitude: 40.6828, Longitude: 46.3606},
	{Name: "Mingəçevir", Latitude: 40.7639, Longitude: 47.0497},
	{Name: "Xırdalan", Latitude: 40.4527, Longitude: 49.7389},
	{Name: "Şəki", Latitude: 41.1974, Longitude: 47.1704},
	{Name: "Naxçıvan", Latitude: 39.2090, Longitude: 45.4120},
	{Name: "Şirvan", Latitude: 39.9369, Longitude: 48.9200},
	{Name: "Lənkəran", Latitude: 38.7542, Longitude: 48.8510},
	{Name: "Qazax", Latitude: 41.0924, Longitude: 45.3654},
	{Name: "Zaqatala", Latitude: 41.6317, Longitude: 46.6445},
	{Name: "Şamaxı", Latitude: 40.6304, Longitude: 48.6389},
	{Name: "Quba", Latitude: 41.3614, Longitude: 48.5128},
	{Name: "Masallı", Latitude: 39.0352, Longitude: 48.6717},
}

// MaxCenterDistance is the degree-space distance beyond which a point is not
// attributed to its nearest center.
const MaxCenterDistance = 0.5

// capitalBox bounds greater Baku (exclusive on all sides).
var capitalBox = struct{ minLat, maxLat, minLon, maxLon float64 }{40.1, 40.7, 49.5, 50.5}

// MajorCities are matched as substrings of the address, first hit wins.
var MajorCities = []string{
	"Bakı", "Sumqayıt", "Gəncə", "Mingəçevir", "Xırdalan",
	"Naxçıvan", "Şəki", "Qazax", "Zaqatala", "Masallı",
	"Ağdaş", "Şəmkir", "Bərdə", "Salyan", "Ağstafa",
	"Hacıqabul", "Ağcabədi", "Şərur", "Cəlilabad", "Lənkəran",
	"Şirvan", "Quba", "Şamaxı", "Yevlax", "Göyçay",
}

// capitalDistricts are the Baku administrative districts.
var capitalDistricts = map[string]bool{
	"Nəsimi": true, "Nərimanov": true, "Xətai": true,
	"Yasamal": true, "Səbail": true, "Nizami": true,
	"Binəqədi": true, "Sabunçu": true, "Suraxanı": true,
	"Qaradağ": true, "Xəzər": true, "Abşeron": true,
}

// settlementStopwords are modifiers that precede a settlement suffix without
// naming a place.
var settlementStopwords = map[string]bool{
	"Yeni": true, "Köhnə": true, "Birinci": true,
	"İkinci": true, "Böyük": true, "Kiçik": true,
}

// capitalKeywords only occur in Baku addresses.
var capitalKeywords = []string{"metrosu", "metro", "prospekt", "pr."}
