// Package zones maps coordinates to seismic zones. A zone table is an ordered
// list of latitude/longitude rectangles; lookups return the first rectangle
// containing the point, so row order is significant when rectangles overlap.
package zones

type SoilType string

const (
	SoilS1 SoilType = "S1"
	SoilS2 SoilType = "S2"
	SoilS3 SoilType = "S3"
	SoilS4 SoilType = "S4"
)

// Returned when no zone contains the point.
const (
	DefaultPGA           = 0.20
	DefaultSoil SoilType = SoilS4
)

type Zone struct {
	LatMin float64  `json:"lat_min"`
	LatMax float64  `json:"lat_max"`
	LonMin float64  `json:"lon_min"`
	LonMax float64  `json:"lon_max"`
	PGA    float64  `json:"pga"`
	Soil   SoilType `json:"soil_type"`
}

// Contains is inclusive on every edge.
func (z Zone) Contains(lat, lon float64) bool {
	return z.LatMin <= lat && lat <= z.LatMax && z.LonMin <= lon && lon <= z.LonMax
}

// Table is immutable after construction and safe for concurrent use.
type Table struct {
	zones []Zone
}

func NewTable(zones []Zone) *Table {
	cp := make([]Zone, len(zones))
	copy(cp, zones)
	return &Table{zones: cp}
}

// Find returns the PGA and soil type of the first zone containing the point,
// or DefaultPGA and DefaultSoil when none does.
func (t *Table) Find(lat, lon float64) (float64, SoilType) {
	if z, ok := t.Match(lat, lon); ok {
		return z.PGA, z.Soil
	}
	return DefaultPGA, DefaultSoil
}

// Match returns the first zone containing the point.
func (t *Table) Match(lat, lon float64) (Zone, bool) {
	if t == nil {
		return Zone{}, false
	}
	for _, z := range t.zones {
		if z.Contains(lat, lon) {
			return z, true
		}
	}
	return Zone{}, false
}

func (t *Table) Zones() []Zone {
	if t == nil {
		return nil
	}
	cp := make([]Zone, len(t.zones))
	copy(cp, t.zones)
	return cp
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.zones)
}
