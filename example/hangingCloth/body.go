package main

import (
	"math"

	"github.com/akmonengine/drape/bvh"
	"github.com/go-gl/mathgl/mgl64"
)

// mannequin is a capped cylinder standing under the cloth, rigged with a spine
type mannequin struct {
	rest     []mgl64.Vec3
	vertices []mgl64.Vec3
	mesh     bvh.Mesh
	joints   map[string]mgl64.Vec3
	segments []bvh.Segment
}

func newMannequin(center mgl64.Vec3, radius, height float64, slices, rings int) *mannequin {
	m := &mannequin{
		joints: map[string]mgl64.Vec3{
			"Root":   center.Add(mgl64.Vec3{0, 0, -0.1 * height}),
			"Pelvis": center.Add(mgl64.Vec3{0, 0, 0.15 * height}),
			"Spine":  center.Add(mgl64.Vec3{0, 0, 0.55 * height}),
			"Neck":   center.Add(mgl64.Vec3{0, 0, height}),
		},
		segments: []bvh.Segment{
			{A: "Pelvis", B: "Spine"},
			{A: "Spine", B: "Neck"},
		},
	}

	for r := 0; r <= rings; r++ {
		z := height * float64(r) / float64(rings)
		for s := 0; s < slices; s++ {
			angle := 2 * math.Pi * float64(s) / float64(slices)
			m.rest = append(m.rest, center.Add(mgl64.Vec3{radius * math.Cos(angle), radius * math.Sin(angle), z}))
		}
	}
	for r := 0; r < rings; r++ {
		for s := 0; s < slices; s++ {
			a := r*slices + s
			b := r*slices + (s+1)%slices
			m.mesh.Indices = append(m.mesh.Indices, a, b, a+slices, b, b+slices, a+slices)
		}
	}

	// cap
	top := len(m.rest)
	m.rest = append(m.rest, center.Add(mgl64.Vec3{0, 0, height}))
	for s := 0; s < slices; s++ {
		m.mesh.Indices = append(m.mesh.Indices, rings*slices+s, rings*slices+(s+1)%slices, top)
	}

	m.vertices = append([]mgl64.Vec3(nil), m.rest...)
	m.mesh.Vertices = m.rest

	return m
}

// pose translates the whole rig, and returns the bone world transforms
func (m *mannequin) pose(offset mgl64.Vec3) map[string]mgl64.Mat4 {
	for i, v := range m.rest {
		m.vertices[i] = v.Add(offset)
	}

	bones := make(map[string]mgl64.Mat4, len(m.joints))
	for name, joint := range m.joints {
		p := joint.Add(offset)
		bones[name] = mgl64.Translate3D(p.X(), p.Y(), p.Z())
	}
	return bones
}
