package core

import (
	"sort"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox AABB
	Left        *BVHNode
	Right       *BVHNode
	Instances   []*Instance // Leaf payload (nil for internal nodes)
}

// BVH is the top-level acceleration structure over scene instances.
// Instances with unbounded extent (infinite volumes) cannot be placed in
// the tree and are tested linearly instead.
type BVH struct {
	Root      *BVHNode
	unbounded []*Instance
}

// Leaf threshold: if we have this many or fewer instances, store them in a leaf node
const leafThreshold = 4

// NewBVH constructs a BVH from scene instances
func NewBVH(instances []*Instance) *BVH {
	var bounded, unbounded []*Instance
	for _, inst := range instances {
		if inst.BoundingBox().IsUnbounded() {
			unbounded = append(unbounded, inst)
		} else {
			bounded = append(bounded, inst)
		}
	}

	bvh := &BVH{unbounded: unbounded}
	if len(bounded) > 0 {
		// Copy so sorting during the build does not reorder the caller's slice
		boundedCopy := make([]*Instance, len(bounded))
		copy(boundedCopy, bounded)
		bvh.Root = buildBVH(boundedCopy)
	}
	return bvh
}

// buildBVH recursively builds the tree by median split along the longest axis
func buildBVH(instances []*Instance) *BVHNode {
	boundingBox := instances[0].BoundingBox()
	for _, inst := range instances[1:] {
		boundingBox = boundingBox.Union(inst.BoundingBox())
	}

	if len(instances) <= leafThreshold {
		return &BVHNode{
			BoundingBox: boundingBox,
			Instances:   instances,
		}
	}

	axis := boundingBox.LongestAxis()
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].Centroid().Axis(axis) < instances[j].Centroid().Axis(axis)
	})

	mid := len(instances) / 2
	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(instances[:mid]),
		Right:       buildBVH(instances[mid:]),
	}
}

// Intersect traces a ray against all instances, updating its with the
// closest accepted hit. Traversal counters accumulate in its.Stats.
func (bvh *BVH) Intersect(ray Ray, its *Intersection, sampler Sampler) bool {
	found := false
	for _, inst := range bvh.unbounded {
		if inst.Intersect(ray, its, sampler) {
			found = true
		}
	}
	if bvh.Root != nil {
		if bvh.intersectNode(bvh.Root, ray, its, sampler) {
			found = true
		}
	}
	return found
}

func (bvh *BVH) intersectNode(node *BVHNode, ray Ray, its *Intersection, sampler Sampler) bool {
	its.Stats.BVHNodesVisited++

	if !node.BoundingBox.Hit(ray, Epsilon, its.T) {
		return false
	}

	if node.Instances != nil {
		found := false
		for _, inst := range node.Instances {
			if inst.Intersect(ray, its, sampler) {
				found = true
			}
		}
		return found
	}

	// its.T shrinks as hits are found, bounding the second subtree
	foundLeft := bvh.intersectNode(node.Left, ray, its, sampler)
	foundRight := bvh.intersectNode(node.Right, ray, its, sampler)
	return foundLeft || foundRight
}

// Transmittance multiplies the transmittance of every instance the ray may
// pass through up to tMax, short-circuiting when fully blocked.
func (bvh *BVH) Transmittance(ray Ray, tMax float64, sampler Sampler) float64 {
	result := 1.0
	for _, inst := range bvh.unbounded {
		result *= inst.Transmittance(ray, tMax, sampler)
		if result == 0 {
			return 0
		}
	}
	if bvh.Root != nil {
		result *= bvh.transmittanceNode(bvh.Root, ray, tMax, sampler)
	}
	return result
}

func (bvh *BVH) transmittanceNode(node *BVHNode, ray Ray, tMax float64, sampler Sampler) float64 {
	if !node.BoundingBox.Hit(ray, Epsilon, tMax) {
		return 1.0
	}

	if node.Instances != nil {
		result := 1.0
		for _, inst := range node.Instances {
			result *= inst.Transmittance(ray, tMax, sampler)
			if result == 0 {
				return 0
			}
		}
		return result
	}

	left := bvh.transmittanceNode(node.Left, ray, tMax, sampler)
	if left == 0 {
		return 0
	}
	return left * bvh.transmittanceNode(node.Right, ray, tMax, sampler)
}
