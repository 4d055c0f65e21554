package location

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const (
	NotAvailable = "-- Not available --"
	NoData       = "-- No data for this city --"
)

type Station struct {
	Name  string
	Point orb.Point
}

var stations = map[string]Station{
	"Mumbai":    {"Dadar Police Station", orb.Point{72.8446, 19.0178}},
	"Pune":      {"Shivaji Nagar Police Station", orb.Point{73.8478, 18.5308}},
	"Delhi":     {"Connaught Place Police Station", orb.Point{77.2167, 28.6315}},
	"Bangalore": {"MG Road Police Station", orb.Point{77.6070, 12.9756}},
	"Chennai":   {"T Nagar Police Station", orb.Point{80.2341, 13.0418}},
	"Hyderabad": {"Jubilee Hills Police Station", orb.Point{78.4075, 17.4326}},
}

func NearestPolice(city string) string {
	if city == "Unknown" {
		return NotAvailable
	}
	if s, ok := stations[city]; ok {
		return s.Name
	}
	return NoData
}

// StationDistance returns metres from fix to the station of its city.
func StationDistance(fix Fix) (float64, bool) {
	s, ok := stations[fix.City]
	if !ok {
		return 0, false
	}
	return geo.Distance(fix.Point(), s.Point), true
}
