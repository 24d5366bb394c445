package types

// Validation constraint constants. All components validate coordinates and
// search radii against these ranges.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0

	// MaxSearchRadiusKm bounds the occurrence search radius. The default
	// radius used when a request omits it is DefaultSearchRadiusKm.
	MaxSearchRadiusKm     = 500
	DefaultSearchRadiusKm = 25

	// DefaultOccurrenceLimit is the page size requested from the occurrence
	// provider for recent sightings.
	DefaultOccurrenceLimit = 300
)

// ValidCoordinate reports whether lat/lon fall inside WGS84 bounds.
func ValidCoordinate(lat, lon float64) bool {
	return lat >= MinLat && lat <= MaxLat && lon >= MinLon && lon <= MaxLon
}

// ValidAOI reports whether the AOI is well formed: coordinates in bounds and
// min strictly below max on both axes.
func ValidAOI(a AOI) bool {
	if !ValidCoordinate(a.MinLat, a.MinLon) || !ValidCoordinate(a.MaxLat, a.MaxLon) {
		return false
	}
	return a.MinLat < a.MaxLat && a.MinLon < a.MaxLon
}
