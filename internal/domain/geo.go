package domain

// Point is a GeoJSON point. Coordinates are [longitude, latitude].
type Point struct {
	Type        string    `json:"type"        validate:"required,eq=Point" example:"Point"`
	Coordinates []float64 `json:"coordinates" validate:"required,lnglat"   example:"72.877,19.076"`
}

// Lon returns the longitude, or 0 for a malformed point.
func (p Point) Lon() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

// Lat returns the latitude, or 0 for a malformed point.
func (p Point) Lat() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

// Polygon is a GeoJSON polygon: a list of linear rings, each a list of
// [longitude, latitude] positions.
type Polygon struct {
	Type        string        `json:"type"        validate:"omitempty,eq=Polygon" example:"Polygon"`
	Coordinates [][][]float64 `json:"coordinates" validate:"required,min=1,dive,min=1,dive,lnglat"`
}

// Centroid returns the arithmetic mean of the outer ring's positions,
// ignoring a closing position equal to the first one. ok is false for an
// empty polygon.
func (p Polygon) Centroid() (lon, lat float64, ok bool) {
	if len(p.Coordinates) == 0 || len(p.Coordinates[0]) == 0 {
		return 0, 0, false
	}
	ring := p.Coordinates[0]
	if n := len(ring); n > 1 && samePosition(ring[0], ring[n-1]) {
		ring = ring[:n-1]
	}
	var n float64
	for _, pos := range ring {
		if len(pos) < 2 {
			continue
		}
		lon += pos[0]
		lat += pos[1]
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return lon / n, lat / n, true
}

func samePosition(a, b []float64) bool {
	return len(a) >= 2 && len(b) >= 2 && a[0] == b[0] && a[1] == b[1]
}
