package bvh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// parallelEpsilon rejects rays almost parallel to the triangle plane
const parallelEpsilon = 1e-4

// nearestVertex returns the vertex of triangle closest to point, and its squared distance
func nearestVertex(vertices []mgl64.Vec3, triangle [3]int, point mgl64.Vec3) (mgl64.Vec3, float64) {
	nearest := vertices[triangle[0]]
	nearestSq := point.Sub(nearest).LenSqr()

	for _, v := range triangle[1:] {
		if distSq := point.Sub(vertices[v]).LenSqr(); distSq < nearestSq {
			nearest = vertices[v]
			nearestSq = distSq
		}
	}

	return nearest, nearestSq
}

// triangleNormal returns the unit normal of abc, or a zero vector for a degenerate triangle
func triangleNormal(a, b, c mgl64.Vec3) mgl64.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	length := n.Len()
	if length == 0 {
		return mgl64.Vec3{}
	}

	return n.Mul(1.0 / length)
}

// rayTriangle intersects the line origin + t*direction with the triangle abc.
// The hit is accepted on both sides of origin, the caller checks its distance.
func rayTriangle(a, b, c mgl64.Vec3, origin, direction mgl64.Vec3) (mgl64.Vec3, bool) {
	n := triangleNormal(a, b, c)
	if n == (mgl64.Vec3{}) {
		return mgl64.Vec3{}, false
	}

	denominator := n.Dot(direction)
	if math.Abs(denominator) < parallelEpsilon {
		return mgl64.Vec3{}, false
	}

	centroid := a.Add(b).Add(c).Mul(1.0 / 3.0)
	t := n.Dot(centroid.Sub(origin)) / denominator
	hit := origin.Add(direction.Mul(t))

	if !insideTriangle(a, b, c, hit) {
		return mgl64.Vec3{}, false
	}

	return hit, true
}

// insideTriangle checks, with barycentric coordinates, that p lies in abc.
// p is expected on the plane of the triangle.
func insideTriangle(a, b, c, p mgl64.Vec3) bool {
	const epsilon = 1e-9

	v0 := c.Sub(a)
	v1 := b.Sub(a)
	v2 := p.Sub(a)

	dot00 := v0.Dot(v0)
	dot01 := v0.Dot(v1)
	dot02 := v0.Dot(v2)
	dot11 := v1.Dot(v1)
	dot12 := v1.Dot(v2)

	denominator := dot00*dot11 - dot01*dot01
	if denominator == 0 {
		return false
	}

	u := (dot11*dot02 - dot01*dot12) / denominator
	v := (dot00*dot12 - dot01*dot02) / denominator

	return u >= -epsilon && v >= -epsilon && u+v <= 1+epsilon
}
