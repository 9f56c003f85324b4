package geometry

import (
	"math"
	"sort"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/loaders"
)

// determinantEpsilon rejects rays nearly parallel to a triangle plane
const determinantEpsilon = 1e-6

// TriangleMesh is a shape made of triangles sharing vertex buffers, with
// its own BVH over the triangles. Millions of triangles are expected, so
// per-triangle allocations are avoided.
type TriangleMesh struct {
	positions []core.Vec3
	normals   []core.Vec3 // empty when the mesh has no vertex normals
	texCoords []core.Vec2 // empty when the mesh has no uv coordinates

	indices       []int // 3 per triangle
	smoothNormals bool

	root      *meshNode
	bounds    core.AABB
	totalArea float64
	areaCDF   []float64 // cumulative triangle areas for area sampling
}

type meshNode struct {
	bounds    core.AABB
	left      *meshNode
	right     *meshNode
	triangles []int // triangle indices for leaves, nil for internal nodes
}

const meshLeafThreshold = 8

// NewTriangleMesh builds a mesh shape from loaded data
func NewTriangleMesh(data *loaders.MeshData, smoothNormals bool) *TriangleMesh {
	mesh := &TriangleMesh{
		positions:     data.Positions,
		normals:       data.Normals,
		texCoords:     data.TexCoords,
		indices:       data.Indices,
		smoothNormals: smoothNormals && len(data.Normals) > 0,
	}

	count := len(mesh.indices) / 3
	triangles := make([]int, count)
	for i := range triangles {
		triangles[i] = i
	}

	if count > 0 {
		mesh.root = mesh.buildNode(triangles)
		mesh.bounds = mesh.root.bounds
	}

	mesh.areaCDF = make([]float64, count)
	for i := 0; i < count; i++ {
		mesh.totalArea += mesh.triangleArea(i)
		mesh.areaCDF[i] = mesh.totalArea
	}

	return mesh
}

func (m *TriangleMesh) vertex(triangle, corner int) core.Vec3 {
	return m.positions[m.indices[3*triangle+corner]]
}

func (m *TriangleMesh) triangleBounds(triangle int) core.AABB {
	return core.NewAABBFromPoints(m.vertex(triangle, 0), m.vertex(triangle, 1), m.vertex(triangle, 2))
}

func (m *TriangleMesh) triangleCentroid(triangle int) core.Vec3 {
	return m.vertex(triangle, 0).
		Add(m.vertex(triangle, 1)).
		Add(m.vertex(triangle, 2)).
		Multiply(1.0 / 3.0)
}

func (m *TriangleMesh) triangleArea(triangle int) float64 {
	edge1 := m.vertex(triangle, 1).Subtract(m.vertex(triangle, 0))
	edge2 := m.vertex(triangle, 2).Subtract(m.vertex(triangle, 0))
	return 0.5 * edge1.Cross(edge2).Length()
}

func (m *TriangleMesh) buildNode(triangles []int) *meshNode {
	bounds := m.triangleBounds(triangles[0])
	for _, tri := range triangles[1:] {
		bounds = bounds.Union(m.triangleBounds(tri))
	}

	if len(triangles) <= meshLeafThreshold {
		return &meshNode{bounds: bounds, triangles: triangles}
	}

	axis := bounds.LongestAxis()
	sort.Slice(triangles, func(i, j int) bool {
		return m.triangleCentroid(triangles[i]).Axis(axis) < m.triangleCentroid(triangles[j]).Axis(axis)
	})

	mid := len(triangles) / 2
	return &meshNode{
		bounds: bounds,
		left:   m.buildNode(triangles[:mid]),
		right:  m.buildNode(triangles[mid:]),
	}
}

// Intersect traverses the triangle BVH and records the closest hit
func (m *TriangleMesh) Intersect(ray core.Ray, its *core.Intersection, sampler core.Sampler) bool {
	if m.root == nil {
		return false
	}
	return m.intersectNode(m.root, ray, its)
}

func (m *TriangleMesh) intersectNode(node *meshNode, ray core.Ray, its *core.Intersection) bool {
	if !node.bounds.Hit(ray, core.Epsilon, its.T) {
		return false
	}

	if node.triangles != nil {
		found := false
		for _, tri := range node.triangles {
			if m.intersectTriangle(tri, ray, its) {
				found = true
			}
		}
		return found
	}

	foundLeft := m.intersectNode(node.left, ray, its)
	foundRight := m.intersectNode(node.right, ray, its)
	return foundLeft || foundRight
}

// intersectTriangle is Möller-Trumbore against one triangle
func (m *TriangleMesh) intersectTriangle(triangle int, ray core.Ray, its *core.Intersection) bool {
	p0 := m.vertex(triangle, 0)
	p1 := m.vertex(triangle, 1)
	p2 := m.vertex(triangle, 2)

	edge1 := p1.Subtract(p0)
	edge2 := p2.Subtract(p0)

	pvec := ray.Direction.Cross(edge2)
	det := edge1.Dot(pvec)
	if math.Abs(det) < determinantEpsilon {
		return false
	}
	invDet := 1.0 / det

	tvec := ray.Origin.Subtract(p0)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return false
	}

	qvec := tvec.Cross(edge1)
	v := ray.Direction.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return false
	}

	t := edge2.Dot(qvec) * invDet
	if t < core.Epsilon || t >= its.T {
		return false
	}

	its.T = t
	its.Position = ray.At(t)

	w := 1 - u - v
	i0, i1, i2 := m.indices[3*triangle], m.indices[3*triangle+1], m.indices[3*triangle+2]

	if m.texCoords != nil {
		uv0, uv1, uv2 := m.texCoords[i0], m.texCoords[i1], m.texCoords[i2]
		its.UV = core.NewVec2(
			w*uv0.X+u*uv1.X+v*uv2.X,
			w*uv0.Y+u*uv1.Y+v*uv2.Y,
		)
	} else {
		its.UV = core.NewVec2(u, v)
	}

	its.GeometryNormal = edge1.Cross(edge2).Normalize()
	if m.smoothNormals {
		n0, n1, n2 := m.normals[i0], m.normals[i1], m.normals[i2]
		its.ShadingNormal = n0.Multiply(w).Add(n1.Multiply(u)).Add(n2.Multiply(v)).Normalize()
	} else {
		its.ShadingNormal = its.GeometryNormal
	}

	its.Tangent = m.triangleTangent(triangle, edge1, edge2, its.ShadingNormal)
	its.PDF = 1.0

	return true
}

// triangleTangent derives the tangent from the uv gradient, falling back
// to an arbitrary orthogonal vector when the uv mapping is degenerate
func (m *TriangleMesh) triangleTangent(triangle int, edge1, edge2, normal core.Vec3) core.Vec3 {
	if m.texCoords != nil {
		i0, i1, i2 := m.indices[3*triangle], m.indices[3*triangle+1], m.indices[3*triangle+2]
		uv0, uv1, uv2 := m.texCoords[i0], m.texCoords[i1], m.texCoords[i2]

		du1 := uv1.X - uv0.X
		dv1 := uv1.Y - uv0.Y
		du2 := uv2.X - uv0.X
		dv2 := uv2.Y - uv0.Y

		det := du1*dv2 - dv1*du2
		if math.Abs(det) > 1e-10 {
			tangent := edge1.Multiply(dv2).Subtract(edge2.Multiply(dv1)).Multiply(1 / det)
			if tangent.LengthSquared() > 1e-16 {
				return tangent.Normalize()
			}
		}
	}
	return core.NewFrame(normal).Tangent
}

// Transmittance returns 0 when any triangle blocks the ray within tMax
func (m *TriangleMesh) Transmittance(ray core.Ray, tMax float64, sampler core.Sampler) float64 {
	its := core.NewIntersection()
	its.T = tMax
	if m.Intersect(ray, &its, sampler) {
		return 0
	}
	return 1
}

// BoundingBox returns the bounds of all triangles
func (m *TriangleMesh) BoundingBox() core.AABB {
	return m.bounds
}

// Centroid returns the center of the mesh bounds
func (m *TriangleMesh) Centroid() core.Vec3 {
	return m.bounds.Center()
}

// TriangleCount returns the number of triangles in the mesh
func (m *TriangleMesh) TriangleCount() int {
	return len(m.indices) / 3
}

// SampleArea picks a triangle proportionally to its area, then a uniform
// point on it
func (m *TriangleMesh) SampleArea(sampler core.Sampler) core.AreaSample {
	target := sampler.Get1D() * m.totalArea
	triangle := sort.SearchFloat64s(m.areaCDF, target)
	if triangle >= len(m.areaCDF) {
		triangle = len(m.areaCDF) - 1
	}

	bary := core.SampleUniformTriangle(sampler.Get2D())
	u, v := bary.X, bary.Y
	w := 1 - u - v

	p0 := m.vertex(triangle, 0)
	p1 := m.vertex(triangle, 1)
	p2 := m.vertex(triangle, 2)
	position := p0.Multiply(w).Add(p1.Multiply(u)).Add(p2.Multiply(v))

	edge1 := p1.Subtract(p0)
	edge2 := p2.Subtract(p0)
	normal := edge1.Cross(edge2).Normalize()

	i0, i1, i2 := m.indices[3*triangle], m.indices[3*triangle+1], m.indices[3*triangle+2]
	if m.smoothNormals {
		n0, n1, n2 := m.normals[i0], m.normals[i1], m.normals[i2]
		normal = n0.Multiply(w).Add(n1.Multiply(u)).Add(n2.Multiply(v)).Normalize()
	}

	uv := core.NewVec2(u, v)
	if m.texCoords != nil {
		uv0, uv1, uv2 := m.texCoords[i0], m.texCoords[i1], m.texCoords[i2]
		uv = core.NewVec2(w*uv0.X+u*uv1.X+v*uv2.X, w*uv0.Y+u*uv1.Y+v*uv2.Y)
	}

	return core.AreaSample{
		Position: position,
		Normal:   normal,
		Tangent:  m.triangleTangent(triangle, edge1, edge2, normal),
		UV:       uv,
		PDF:      1.0 / m.totalArea,
	}
}
