// Package systems provides the spatial primitives of the simulation: toroidal
// geometry and the uniform-grid spatial hash.
package systems

import "math"

// Wrap maps v onto [0, size) with toroidal wrap-around.
func Wrap(v, size float64) float64 {
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	return v
}

// Delta returns the shortest toroidal delta from (x1,y1) to (x2,y2).
func Delta(x1, y1, x2, y2, w, h float64) (dx, dy float64) {
	dx = x2 - x1
	dy = y2 - y1

	if dx > w/2 {
		dx -= w
	} else if dx < -w/2 {
		dx += w
	}
	if dy > h/2 {
		dy -= h
	} else if dy < -h/2 {
		dy += h
	}

	return dx, dy
}

// Dist returns the shortest toroidal distance between two points.
func Dist(x1, y1, x2, y2, w, h float64) float64 {
	dx, dy := Delta(x1, y1, x2, y2, w, h)
	return math.Sqrt(dx*dx + dy*dy)
}

// CirclesOverlap reports whether two circles overlap on the torus.
func CirclesOverlap(x1, y1, r1, x2, y2, r2, w, h float64) bool {
	dx, dy := Delta(x1, y1, x2, y2, w, h)
	rr := r1 + r2
	return dx*dx+dy*dy <= rr*rr
}

// RayCircleHit intersects a ray with a circle given in ray-local coordinates:
// the circle center is (cx,cy) relative to the ray origin, (dx,dy) is the unit
// ray direction. Returns the distance along the ray to the nearest
// intersection within maxDist, or ok=false when the ray misses.
func RayCircleHit(dx, dy, maxDist, cx, cy, cr float64) (float64, bool) {
	// Project center onto the ray.
	proj := cx*dx + cy*dy
	if proj < -cr || proj > maxDist+cr {
		return 0, false
	}

	// Squared distance from center to the ray line.
	perpSq := cx*cx + cy*cy - proj*proj
	if perpSq > cr*cr {
		return 0, false
	}

	half := math.Sqrt(cr*cr - perpSq)
	t := proj - half
	if t < 0 {
		// Origin inside the circle counts as a hit at distance 0.
		if proj+half >= 0 {
			return 0, true
		}
		return 0, false
	}
	if t > maxDist {
		return 0, false
	}
	return t, true
}
