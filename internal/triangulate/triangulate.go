// Package triangulate implements the interior-angle ear-clip triangulator
// used for non-triangular PLY polygon faces. Grounded on the teacher's internal/lossless colorcache/pixorcopy
// style: small, allocation-conscious, index-based geometry helpers
// operating over caller-owned slices rather than building their own
// container types.
package triangulate

import "math"

// Vec3 is a position used only for the plane-projection basis; callers
// pass positions by value so the triangulator never needs to know the
// full vertex attribute layout.
type Vec3 struct{ X, Y, Z float64 }

func sub(a, b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func cross(a, b Vec3) Vec3 {
	return Vec3{a.Y*b.Z - a.Z*b.Y, a.Z*b.X - a.X*b.Z, a.X*b.Y - a.Y*b.X}
}
func dot(a, b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func length(a Vec3) float64 { return math.Sqrt(dot(a, a)) }
func normalize(a Vec3) Vec3 {
	l := length(a)
	if l == 0 {
		return a
	}
	return Vec3{a.X / l, a.Y / l, a.Z / l}
}

type vec2 struct{ U, V float64 }

// Polygon triangulates the polygon whose vertex indices are idx and whose
// positions are given by pos, indexed by vertex index (pos[idx[i]] is the
// position of the polygon's i-th vertex).
// The idx slice is not mutated. For n<3 it returns nil; for n==3 it
// returns idx unchanged; for n==4 it emits the two fixed triangles
// (0,1,3),(2,3,1); otherwise it ear-clips by repeatedly removing the
// vertex with the smallest interior angle, projected into the polygon's
// plane. Degenerate faces (a zero-length basis vector) yield no triangles
// — per spec.md §4.J this is a caller problem, not the triangulator's.
func Polygon(idx []int, pos []Vec3) []int {
	n := len(idx)
	if n < 3 {
		return nil
	}
	if n == 3 {
		out := make([]int, 3)
		copy(out, idx)
		return out
	}
	if n == 4 {
		return []int{idx[0], idx[1], idx[3], idx[2], idx[3], idx[1]}
	}

	v0 := pos[idx[0]]
	faceU := normalize(sub(pos[idx[1]], v0))
	faceNormal := normalize(cross(faceU, normalize(sub(pos[idx[n-1]], v0))))
	faceV := normalize(cross(faceNormal, faceU))
	if faceU == (Vec3{}) || faceNormal == (Vec3{}) || faceV == (Vec3{}) {
		return nil
	}

	proj := make([]vec2, n)
	for i, vi := range idx {
		d := sub(pos[vi], v0)
		proj[i] = vec2{dot(d, faceU), dot(d, faceV)}
	}

	next := make([]int, n)
	prev := make([]int, n)
	alive := make([]bool, n)
	for i := range idx {
		next[i] = (i + 1) % n
		prev[i] = (i - 1 + n) % n
		alive[i] = true
	}

	out := make([]int, 0, 3*(n-2))
	remaining := n
	cur := 0
	for remaining > 3 {
		best := -1
		bestAngle := math.Inf(1)
		start := cur
		i := start
		for {
			angle := interiorAngle(proj[prev[i]], proj[i], proj[next[i]])
			if angle <= 0 || angle >= math.Pi {
				angle = math.Inf(1) // disqualified: substitute large sentinel
			}
			if angle < bestAngle {
				bestAngle = angle
				best = i
			}
			i = next[i]
			if i == start {
				break
			}
		}
		if best == -1 {
			break
		}
		p, nx := prev[best], next[best]
		out = append(out, idx[best], idx[nx], idx[p])
		next[p] = nx
		prev[nx] = p
		alive[best] = false
		remaining--
		cur = nx
	}
	// Emit the final triangle from the three vertices left in the ring.
	if remaining == 3 {
		i := cur
		out = append(out, idx[i], idx[next[i]], idx[next[next[i]]])
	}
	return out
}

// interiorAngle returns the unsigned angle at vertex b formed by rays b->a
// and b->c, projected into the 2D basis already established by the
// caller.
func interiorAngle(a, b, c vec2) float64 {
	v1 := vec2{a.U - b.U, a.V - b.V}
	v2 := vec2{c.U - b.U, c.V - b.V}
	l1 := math.Hypot(v1.U, v1.V)
	l2 := math.Hypot(v2.U, v2.V)
	if l1 == 0 || l2 == 0 {
		return 0
	}
	cosT := (v1.U*v2.U + v1.V*v2.V) / (l1 * l2)
	if cosT > 1 {
		cosT = 1
	}
	if cosT < -1 {
		cosT = -1
	}
	return math.Acos(cosT)
}
