package l2d

import (
	"fmt"
)

func PointsToWkt(xmin, ymin, xmax, ymax float64) string {
	return fmt.Sprintf("POLYGON((%[1]f %[2]f, %[1]f %[4]f, %[3]f %[4]f, %[3]f %[2]f, %[1]f %[2]f))", xmin, ymin, xmax, ymax)
}

func BoundsToWkt(b Bounds) string {
	return PointsToWkt(b[0], b[1], b[2], b[3])
}
