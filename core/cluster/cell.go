// Package cluster groups live connections into coarse geographic cells for
// efficient fan-out. Cells never influence matching decisions.
package cluster

import (
	"fmt"
	"math"

	"github.com/harsheyeditor/OneBlood/core/model"
)

// cellSizeDeg is the grid resolution per axis, roughly 10km.
const cellSizeDeg = 0.1

// CellKey derives the grid cell key for a coordinate.
func CellKey(p model.GeoPoint) string {
	return fmt.Sprintf("%d_%d", int(math.Floor(p.Lat/cellSizeDeg)), int(math.Floor(p.Lon/cellSizeDeg)))
}
