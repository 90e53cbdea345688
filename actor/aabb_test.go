package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// =============================================================================
// AABB Tests
// =============================================================================

func TestAABBOverlaps(t *testing.T) {
	tests := []struct {
		name          string
		aabb1         AABB
		aabb2         AABB
		shouldOverlap bool
	}{
		{
			name:          "Separated on X axis",
			aabb1:         AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}},
			aabb2:         AABB{Min: mgl64.Vec3{2, 0, 0}, Max: mgl64.Vec3{3, 1, 1}},
			shouldOverlap: false,
		},
		{
			name:          "Separated on Z axis (negative)",
			aabb1:         AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}},
			aabb2:         AABB{Min: mgl64.Vec3{0, 0, -2}, Max: mgl64.Vec3{1, 1, -1}},
			shouldOverlap: false,
		},
		{
			name:          "Partial overlap on all axes",
			aabb1:         AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{2, 2, 2}},
			aabb2:         AABB{Min: mgl64.Vec3{1, 1, 1}, Max: mgl64.Vec3{3, 3, 3}},
			shouldOverlap: true,
		},
		{
			name:          "Complete containment",
			aabb1:         AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{10, 10, 10}},
			aabb2:         AABB{Min: mgl64.Vec3{2, 2, 2}, Max: mgl64.Vec3{3, 3, 3}},
			shouldOverlap: true,
		},
		{
			name:          "Face touching",
			aabb1:         AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}},
			aabb2:         AABB{Min: mgl64.Vec3{1, 0, 0}, Max: mgl64.Vec3{2, 1, 1}},
			shouldOverlap: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.aabb1.Overlaps(tt.aabb2) != tt.shouldOverlap {
				t.Errorf("Overlaps() = %v, want %v", !tt.shouldOverlap, tt.shouldOverlap)
			}
			// Test symmetry
			if tt.aabb2.Overlaps(tt.aabb1) != tt.shouldOverlap {
				t.Errorf("Overlaps() symmetry broken")
			}
		})
	}
}

func TestAABBContainsPoint(t *testing.T) {
	aabb := AABB{Min: mgl64.Vec3{-1, -1, -1}, Max: mgl64.Vec3{1, 1, 1}}

	tests := []struct {
		name     string
		point    mgl64.Vec3
		expected bool
	}{
		{"center", mgl64.Vec3{0, 0, 0}, true},
		{"corner", mgl64.Vec3{1, 1, 1}, true},
		{"face center", mgl64.Vec3{-1, 0, 0}, true},
		{"outside on Y", mgl64.Vec3{0, 1.0001, 0}, false},
		{"far away", mgl64.Vec3{10, -10, 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := aabb.ContainsPoint(tt.point); result != tt.expected {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tt.point, result, tt.expected)
			}
		})
	}
}

func TestEmptyAABB(t *testing.T) {
	box := EmptyAABB()
	if !box.IsEmpty() {
		t.Fatalf("EmptyAABB should be empty")
	}
	if box.OverlapsSphere(mgl64.Vec3{0, 0, 0}, 100) {
		t.Errorf("an empty box should not overlap any sphere")
	}

	box = box.Extend(mgl64.Vec3{1, 2, 3})
	if box.IsEmpty() {
		t.Fatalf("box should not be empty after Extend")
	}
	if box.Min != (mgl64.Vec3{1, 2, 3}) || box.Max != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("single point box = %v, want degenerate box at {1 2 3}", box)
	}
}

func TestNodesAABB(t *testing.T) {
	nodes := []Node{
		{Position: mgl64.Vec3{0, 0, 0}},
		{Position: mgl64.Vec3{-1, 2, 0.5}},
		{Position: mgl64.Vec3{3, -4, 1}},
	}

	box := NodesAABB(nodes)

	if box.Min != (mgl64.Vec3{-1, -4, 0}) {
		t.Errorf("Min = %v, want {-1 -4 0}", box.Min)
	}
	if box.Max != (mgl64.Vec3{3, 2, 1}) {
		t.Errorf("Max = %v, want {3 2 1}", box.Max)
	}
	if center := box.Center(); !center.ApproxEqual(mgl64.Vec3{1, -1, 0.5}) {
		t.Errorf("Center = %v, want {1 -1 0.5}", center)
	}
}

func TestAABBOverlapsSphere(t *testing.T) {
	box := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}

	tests := []struct {
		name     string
		center   mgl64.Vec3
		radius   float64
		expected bool
	}{
		{"center inside", mgl64.Vec3{0.5, 0.5, 0.5}, 0.1, true},
		{"touching face", mgl64.Vec3{1.5, 0.5, 0.5}, 0.5, true},
		{"close to face", mgl64.Vec3{1.5, 0.5, 0.5}, 0.49, false},
		{"near corner, inside radius", mgl64.Vec3{2, 2, 2}, math.Sqrt(3) + 1e-9, true},
		{"near corner, outside radius", mgl64.Vec3{2, 2, 2}, 1.7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := box.OverlapsSphere(tt.center, tt.radius); result != tt.expected {
				t.Errorf("OverlapsSphere(%v, %v) = %v, want %v", tt.center, tt.radius, result, tt.expected)
			}
		})
	}
}
