// Package scenegraph holds the in-memory scene the directive dispatcher
// populates. Spec.md §1 deliberately keeps the concrete entity hierarchy
// (materials, lights, cameras, shapes, textures) out of the core's scope
// beyond what the parser must populate, so every entity here is a tagged
// record — a Kind string plus a generic Params bag — rather than the
// virtual-dispatch class hierarchy the original source used (spec.md §9
// "Tagged variants": "reimplement them as sum types with an explicit
// discriminant"). Grounded on the teacher's mux.Chunk: an ID plus an
// opaque payload, addressed by flat-vector index rather than pointer,
// exactly spec.md §9 "Cyclic references: None... store everything in flat
// vectors addressed by index".
package scenegraph

import "github.com/deepteams/pbrtload/internal/mat4"

// Index addresses an entity within one of the Scene's flat vectors.
// NoIndex means "unresolved/absent" (spec.md §3 "32-bit index with the
// sentinel 0xFFFFFFFF").
type Index uint32

const NoIndex Index = 0xFFFFFFFF

// Transform is the dual (start, end) matrix pair captured for an entity at
// the point it was created, for motion blur.
type Transform struct {
	Start mat4.Matrix
	End   mat4.Matrix
}

// Entity is the common shape of every tagged scene record: a kind
// discriminant (the PBRT type name, e.g. "trianglemesh", "matte", "point")
// plus whatever named parameters the directive collected for it.
type Entity struct {
	Kind   string
	Params map[string]any
}

// Shape is a geometric primitive, plus the transform it was declared
// under and its attribute bindings at declaration time.
type Shape struct {
	Entity
	ObjectToWorld      Transform
	Material           Index
	AreaLight          Index
	InsideMedium       Index
	OutsideMedium      Index
	ReverseOrientation bool
	// MaterialOverride holds a per-shape material override record built
	// when the shape's own parameters shadow its base material's fields
	// (spec.md §4.I "per-shape material override"). Nil when the shape
	// uses its bound material unmodified.
	MaterialOverride *Material
}

// AreaLight, Material, Medium, Film, Filter, Integrator, Sampler, and
// Accelerator are simple tagged records; Texture adds its data type, and
// Light and Camera additionally carry the transform active when they were
// declared.
type Light struct {
	Entity
	LightToWorld Transform
}

type AreaLight struct {
	Entity
}

type Material struct {
	Entity
}

type Texture struct {
	Entity
	DataType string // "float" or "spectrum"
}

type Medium struct {
	Entity
}

type Camera struct {
	Entity
	WorldToCamera Transform
}

type Film struct{ Entity }
type Filter struct{ Entity }
type Integrator struct{ Entity }
type Sampler struct{ Entity }
type Accelerator struct{ Entity }

// Object groups a contiguous run of shapes declared between ObjectBegin
// and ObjectEnd (spec.md §4.I "Object/instance semantics").
type Object struct {
	Name             string
	FirstShape       int
	NumShapes        int
	ObjectToInstance Transform
}

// Instance is one ObjectInstance placement: the instance-to-world
// transform plus the attribute snapshot inherited at the point of
// instancing.
type Instance struct {
	ObjectIndex        Index
	InstanceToWorld    Transform
	Material           Index
	ReverseOrientation bool
}

// Scene is the complete output of a parse: flat, index-addressed vectors
// of every entity kind, plus the render configuration singletons.
type Scene struct {
	Shapes       []Shape
	Lights       []Light
	AreaLights   []AreaLight
	Materials    []Material
	Textures     []Texture
	Media        []Medium
	Objects      []Object
	Instances    []Instance

	Camera      Camera
	Film        Film
	Filter      Filter
	Integrator  Integrator
	Sampler     Sampler
	Accelerator Accelerator

	// NamedMedia maps MakeNamedMedium names to Media indices; unlike
	// NamedMaterial (attr.Stack), media names are never shadowed by
	// attribute scoping in PBRT, so a single flat map suffices.
	NamedMedia map[string]Index
}

// NewScene returns an empty scene whose NamedMedia map is ready to receive
// entries; the flat entity vectors start nil and grow on append.
func NewScene() *Scene {
	return &Scene{NamedMedia: make(map[string]Index)}
}

// AddMaterial appends m and returns its index.
func (s *Scene) AddMaterial(m Material) Index {
	s.Materials = append(s.Materials, m)
	return Index(len(s.Materials) - 1)
}

// AddTexture appends tex and returns its index.
func (s *Scene) AddTexture(tex Texture) Index {
	s.Textures = append(s.Textures, tex)
	return Index(len(s.Textures) - 1)
}

// AddMedium appends m and returns its index.
func (s *Scene) AddMedium(m Medium) Index {
	s.Media = append(s.Media, m)
	return Index(len(s.Media) - 1)
}

// AddLight appends l and returns its index.
func (s *Scene) AddLight(l Light) Index {
	s.Lights = append(s.Lights, l)
	return Index(len(s.Lights) - 1)
}

// AddAreaLight appends a and returns its index.
func (s *Scene) AddAreaLight(a AreaLight) Index {
	s.AreaLights = append(s.AreaLights, a)
	return Index(len(s.AreaLights) - 1)
}

// AddShape appends sh and returns its index.
func (s *Scene) AddShape(sh Shape) Index {
	s.Shapes = append(s.Shapes, sh)
	return Index(len(s.Shapes) - 1)
}
