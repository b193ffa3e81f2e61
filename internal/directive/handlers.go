package directive

import (
	"fmt"
	"path/filepath"

	"github.com/deepteams/pbrtload/internal/mat4"
	"github.com/deepteams/pbrtload/internal/params"
	"github.com/deepteams/pbrtload/internal/ply"
	"github.com/deepteams/pbrtload/internal/scenegraph"
)

// handle runs the effect of one already-recognized, already-positional-
// arg-parsed statement. Directives whose content is entirely named
// parameters call p.parseParams() themselves before building their scene
// record, mirroring the grammar: positional args (if any) always precede
// named params.
func (p *Parser) handle(tag string, args []argValue) error {
	switch tag {
	case "Identity":
		p.xf.Replace(mat4.Identity())
		return nil
	case "Translate":
		p.xf.Apply(mat4.Translate(args[0].f, args[1].f, args[2].f))
		return nil
	case "Scale":
		p.xf.Apply(mat4.Scale(args[0].f, args[1].f, args[2].f))
		return nil
	case "Rotate":
		p.xf.Apply(mat4.Rotate(args[0].f, args[1].f, args[2].f, args[3].f))
		return nil
	case "LookAt":
		eye := mat4.Vec3{X: args[0].f, Y: args[1].f, Z: args[2].f}
		target := mat4.Vec3{X: args[3].f, Y: args[4].f, Z: args[5].f}
		up := mat4.Vec3{X: args[6].f, Y: args[7].f, Z: args[8].f}
		p.xf.Apply(mat4.LookAt(eye, target, up))
		return nil
	case "CoordinateSystem":
		p.xf.CoordinateSystem(args[0].s)
		return nil
	case "CoordSysTransform":
		if err := p.xf.CoordSysTransform(args[0].s); err != nil {
			return err
		}
		return nil
	case "Transform":
		vals, err := p.readBracketedFloats(16)
		if err != nil {
			return err
		}
		var v16 [16]float64
		copy(v16[:], vals)
		p.xf.Replace(mat4.FromColumnMajor16(v16))
		return nil
	case "ConcatTransform":
		vals, err := p.readBracketedFloats(16)
		if err != nil {
			return err
		}
		var v16 [16]float64
		copy(v16[:], vals)
		p.xf.Apply(mat4.FromColumnMajor16(v16))
		return nil
	case "ActiveTransform":
		switch args[0].s {
		case "StartTime":
			p.xf.SetActive(true, false)
		case "EndTime":
			p.xf.SetActive(false, true)
		case "All":
			p.xf.SetActive(true, true)
		}
		return nil
	case "TransformTimes":
		// Recorded for completeness; the camera shutter interval itself is
		// ambient render configuration, not scene-graph state this parser
		// otherwise tracks.
		return nil
	case "Include":
		return p.tok.PushFile(args[0].s, false)
	case "MakeNamedMedium":
		if err := p.parseParams(); err != nil {
			return err
		}
		idx := p.scene.AddMedium(scenegraph.Medium{Entity: scenegraph.Entity{Kind: mediumType(p.arena), Params: p.paramsToMap()}})
		p.scene.NamedMedia[args[0].s] = idx
		return nil
	case "MediumInterface":
		inside, err := p.resolveMedium(args[0].s)
		if err != nil {
			return err
		}
		outside := scenegraph.NoIndex
		if len(args) > 1 && args[1].s != "" {
			if outside, err = p.resolveMedium(args[1].s); err != nil {
				return err
			}
		}
		f := p.at.Current()
		f.InsideMedium = uint32(inside)
		f.OutsideMedium = uint32(outside)
		return nil
	case "AttributeBegin":
		p.at.Push()
		return p.xf.Push()
	case "AttributeEnd":
		if err := p.at.Pop(); err != nil {
			return err
		}
		return p.xf.Pop()
	case "TransformBegin":
		return p.xf.Push()
	case "TransformEnd":
		return p.xf.Pop()
	case "ReverseOrientation":
		p.at.ReverseOrientation()
		return nil
	case "WorldBegin":
		return p.worldBegin()
	case "WorldEnd":
		return p.worldEnd()
	case "Shape":
		return p.shape(args[0].s)
	case "LightSource":
		if err := p.parseParams(); err != nil {
			return err
		}
		p.scene.AddLight(scenegraph.Light{
			Entity:       scenegraph.Entity{Kind: args[0].s, Params: p.paramsToMap()},
			LightToWorld: currentTransform(p.xf),
		})
		return nil
	case "AreaLightSource":
		if err := p.parseParams(); err != nil {
			return err
		}
		idx := p.scene.AddAreaLight(scenegraph.AreaLight{Entity: scenegraph.Entity{Kind: args[0].s, Params: p.paramsToMap()}})
		f := p.at.Current()
		f.AreaLight = uint32(idx)
		return nil
	case "Material":
		if err := p.parseParams(); err != nil {
			return err
		}
		idx := p.scene.AddMaterial(scenegraph.Material{Entity: scenegraph.Entity{Kind: args[0].s, Params: p.paramsToMap()}})
		f := p.at.Current()
		f.Material = uint32(idx)
		return nil
	case "MakeNamedMaterial":
		if err := p.parseParams(); err != nil {
			return err
		}
		kind := materialType(p.arena)
		idx := p.scene.AddMaterial(scenegraph.Material{Entity: scenegraph.Entity{Kind: kind, Params: p.paramsToMap()}})
		p.at.DefineNamedMaterial(args[0].s, uint32(idx))
		return nil
	case "NamedMaterial":
		idx, ok := p.at.LookupNamedMaterial(args[0].s)
		if !ok {
			return p.unresolvedName("named material", args[0].s)
		}
		p.at.Current().Material = idx
		return nil
	case "Texture":
		return p.texture(args[0].s, args[1].s, args[2].s)
	case "ObjectBegin":
		return p.objectBegin(args[0].s)
	case "ObjectEnd":
		return p.objectEnd()
	case "ObjectInstance":
		return p.objectInstance(args[0].s)
	case "Accelerator":
		if err := p.parseParams(); err != nil {
			return err
		}
		p.scene.Accelerator = scenegraph.Accelerator{Entity: scenegraph.Entity{Kind: args[0].s, Params: p.paramsToMap()}}
		return nil
	case "Camera":
		if err := p.parseParams(); err != nil {
			return err
		}
		// The Camera directive records the CTM in effect when Camera is
		// specified, unchanged, as its world-to-camera transform; LookAt
		// already builds that mapping in world-to-camera form.
		p.scene.Camera = scenegraph.Camera{
			Entity:        scenegraph.Entity{Kind: args[0].s, Params: p.paramsToMap()},
			WorldToCamera: currentTransform(p.xf),
		}
		return nil
	case "Film":
		if err := p.parseParams(); err != nil {
			return err
		}
		p.scene.Film = scenegraph.Film{Entity: scenegraph.Entity{Kind: args[0].s, Params: p.paramsToMap()}}
		return nil
	case "Integrator":
		if err := p.parseParams(); err != nil {
			return err
		}
		p.scene.Integrator = scenegraph.Integrator{Entity: scenegraph.Entity{Kind: args[0].s, Params: p.paramsToMap()}}
		return nil
	case "PixelFilter":
		if err := p.parseParams(); err != nil {
			return err
		}
		p.scene.Filter = scenegraph.Filter{Entity: scenegraph.Entity{Kind: args[0].s, Params: p.paramsToMap()}}
		return nil
	case "Sampler":
		if err := p.parseParams(); err != nil {
			return err
		}
		p.scene.Sampler = scenegraph.Sampler{Entity: scenegraph.Entity{Kind: args[0].s, Params: p.paramsToMap()}}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownDirective, tag)
}

func mediumType(arena *params.Arena) string {
	if info, ok := arena.Find("type", params.String); ok {
		return arena.String(info)
	}
	return "homogeneous"
}

func materialType(arena *params.Arena) string {
	if info, ok := arena.Find("type", params.String); ok {
		return arena.String(info)
	}
	return "matte"
}

func (p *Parser) resolveMedium(name string) (scenegraph.Index, error) {
	if name == "" {
		return scenegraph.NoIndex, nil
	}
	idx, ok := p.scene.NamedMedia[name]
	if !ok {
		return scenegraph.NoIndex, p.unresolvedName("medium", name)
	}
	return idx, nil
}

func (p *Parser) unresolvedName(kind, name string) error {
	if p.forwardRefPolicy == WarnAndIgnore {
		p.warnf("reference to undefined %s %q ignored", kind, name)
		return nil
	}
	return fmt.Errorf("%w: %s %q", ErrUnresolvedName, kind, name)
}

// worldBegin resets the transform and attribute stacks and seeds the
// render-configuration defaults for any singleton not already set during
// the preamble (spec.md §4.I "WorldBegin seeds defaults").
func (p *Parser) worldBegin() error {
	if p.inWorld {
		return fmt.Errorf("directive: WorldBegin while already inside World block")
	}
	p.inWorld = true
	p.xf.Clear()
	p.at.Clear()

	if p.scene.Camera.Kind == "" {
		p.scene.Camera = scenegraph.Camera{Entity: scenegraph.Entity{Kind: "perspective"}, WorldToCamera: currentTransform(p.xf)}
	}
	if p.scene.Sampler.Kind == "" {
		p.scene.Sampler = scenegraph.Sampler{Entity: scenegraph.Entity{Kind: "halton"}}
	}
	if p.scene.Film.Kind == "" {
		p.scene.Film = scenegraph.Film{Entity: scenegraph.Entity{Kind: "image", Params: map[string]any{"filename": "pbrt.exr"}}}
	}
	if p.scene.Filter.Kind == "" {
		p.scene.Filter = scenegraph.Filter{Entity: scenegraph.Entity{Kind: "box"}}
	}
	if p.scene.Integrator.Kind == "" {
		p.scene.Integrator = scenegraph.Integrator{Entity: scenegraph.Entity{Kind: "path"}}
	}
	if p.scene.Accelerator.Kind == "" {
		p.scene.Accelerator = scenegraph.Accelerator{Entity: scenegraph.Entity{Kind: "bvh"}}
	}
	return nil
}

func (p *Parser) worldEnd() error {
	if !p.inWorld {
		return fmt.Errorf("directive: WorldEnd without a matching WorldBegin")
	}
	if p.activeObjectName != "" {
		return fmt.Errorf("directive: WorldEnd inside an open Object block")
	}
	p.inWorld = false
	return nil
}

// recognizedMaterialFloatParams lists the per-material scalar names whose
// presence on a Shape signals a per-shape material override, alongside a
// texture-valued param (any name but "alpha"/"shadowalpha") or a
// spectrum-valued param (spec.md §4.I "per-shape material override").
var recognizedMaterialFloatParams = map[string]bool{
	"roughness": true, "uroughness": true, "vroughness": true,
	"eta": true, "k": true, "index": true,
}

func detectMaterialOverride(arena *params.Arena) bool {
	for _, info := range arena.All() {
		switch info.Type {
		case params.RGB, params.XYZ, params.Blackbody, params.Samples:
			return true
		case params.Texture:
			if info.Name != "alpha" && info.Name != "shadowalpha" {
				return true
			}
		case params.Bool:
			if info.Name == "remaproughness" {
				return true
			}
		default:
			if recognizedMaterialFloatParams[info.Name] {
				return true
			}
		}
	}
	return false
}

// buildMaterialOverride constructs the per-shape material record for a
// shape whose own params shadow fields of its bound material: the base
// material's Kind and a shallow copy of its Params, with shapeParams (the
// shape's own declared parameters, before any plymesh geometry is folded
// in) overlaid on top (spec.md §4.I "inherits defaults from the base and
// substitutes overridden fields"). baseIdx is the attribute stack's
// current material index; with no bound material (or an out-of-range
// index) the override falls back to an unnamed material holding just the
// shape's own params.
func (p *Parser) buildMaterialOverride(baseIdx uint32, shapeParams map[string]any) *scenegraph.Material {
	kind := ""
	merged := make(map[string]any, len(shapeParams))
	if idx := scenegraph.Index(baseIdx); idx != scenegraph.NoIndex && int(idx) < len(p.scene.Materials) {
		base := p.scene.Materials[idx]
		kind = base.Kind
		for k, v := range base.Params {
			merged[k] = v
		}
	}
	for k, v := range shapeParams {
		merged[k] = v
	}
	return &scenegraph.Material{Entity: scenegraph.Entity{Kind: kind, Params: merged}}
}

// shape handles the Shape directive: it reads named params, resolves a
// plymesh's geometry eagerly via the ply package when asked to, builds a
// per-shape material override when the shape's own params shadow its
// bound material (spec.md §4.I), and appends the resulting scenegraph.Shape
// (or, inside an open ObjectBegin/ObjectEnd block, grows that object's run
// instead of the flat Shapes vector directly — both share the same
// underlying vector per spec.md §4.I "Object/instance semantics").
func (p *Parser) shape(kind string) error {
	if err := p.parseParams(); err != nil {
		return err
	}

	shapeParams := p.paramsToMap()
	entityParams := shapeParams
	if kind == "plymesh" {
		var err error
		entityParams, err = p.loadPLYMesh(entityParams)
		if err != nil {
			return err
		}
	}

	f := p.at.Current()
	sh := scenegraph.Shape{
		Entity:             scenegraph.Entity{Kind: kind, Params: entityParams},
		ObjectToWorld:      currentTransform(p.xf),
		Material:           scenegraph.Index(f.Material),
		AreaLight:          scenegraph.Index(f.AreaLight),
		InsideMedium:       scenegraph.Index(f.InsideMedium),
		OutsideMedium:      scenegraph.Index(f.OutsideMedium),
		ReverseOrientation: f.ReverseOrientation,
	}
	if detectMaterialOverride(p.arena) {
		sh.MaterialOverride = p.buildMaterialOverride(f.Material, shapeParams)
	}

	idx := p.scene.AddShape(sh)
	if p.activeObjectName != "" {
		obj := &p.scene.Objects[p.activeObjectIdx]
		if obj.NumShapes == 0 {
			obj.FirstShape = int(idx)
		}
		obj.NumShapes++
	}
	return nil
}

// loadPLYMesh resolves the "filename" param relative to the scene's
// directory, parses the referenced file with the ply package, extracts
// vertex positions (and normals/uv when present), and triangulates
// polygonal faces unless the loader was configured with TriangulateNone
// (in which case the raw per-face index lists come back under
// "polygons" instead and the ear-clip pass never runs). Results are
// folded back into the shape's parameter map under the same names
// trianglemesh uses ("P", "N", "uv", "indices") so a plymesh shape and
// an inline trianglemesh shape are indistinguishable to a downstream
// consumer (spec.md §6).
func (p *Parser) loadPLYMesh(entityParams map[string]any) (map[string]any, error) {
	raw, ok := entityParams["filename"]
	if !ok {
		return entityParams, fmt.Errorf("%w: plymesh shape missing \"filename\" parameter", ErrMalformedParam)
	}
	name, ok := raw.(string)
	if !ok {
		return entityParams, fmt.Errorf("%w: plymesh \"filename\" must be a string", ErrMalformedParam)
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.sceneDir, name)
	}

	mesh, err := ply.LoadFile(path, p.triangulate != TriangulateNone)
	if err != nil {
		return entityParams, fmt.Errorf("plymesh %q: %w", name, err)
	}

	out := make(map[string]any, len(entityParams)+4)
	for k, v := range entityParams {
		if k != "filename" {
			out[k] = v
		}
	}
	out["P"] = mesh.Positions
	if mesh.Normals != nil {
		out["N"] = mesh.Normals
	}
	if mesh.UV != nil {
		out["uv"] = mesh.UV
	}
	if mesh.Indices != nil {
		out["indices"] = mesh.Indices
	}
	if mesh.Polygons != nil {
		out["polygons"] = mesh.Polygons
	}
	return out, nil
}

func (p *Parser) texture(name, dataType, texClass string) error {
	if err := p.parseParams(); err != nil {
		return err
	}
	tex := scenegraph.Texture{
		Entity:   scenegraph.Entity{Kind: texClass, Params: p.paramsToMap()},
		DataType: dataType,
	}
	idx := p.scene.AddTexture(tex)
	switch dataType {
	case "float":
		p.at.DefineFloatTexture(name, uint32(idx))
	default:
		p.at.DefineSpectrumTexture(name, uint32(idx))
	}
	return nil
}

func (p *Parser) objectBegin(name string) error {
	if p.activeObjectName != "" {
		return ErrNestedObject
	}
	p.activeObjectName = name
	idx := scenegraph.Index(len(p.scene.Objects))
	p.scene.Objects = append(p.scene.Objects, scenegraph.Object{Name: name, FirstShape: len(p.scene.Shapes)})
	p.activeObjectIdx = idx
	p.objectByName[name] = idx
	p.at.Push()
	return p.xf.Push()
}

func (p *Parser) objectEnd() error {
	if p.activeObjectName == "" {
		return ErrObjectEndMismatch
	}
	p.scene.Objects[p.activeObjectIdx].ObjectToInstance = currentTransform(p.xf)
	p.activeObjectName = ""
	if err := p.at.Pop(); err != nil {
		return err
	}
	return p.xf.Pop()
}

func (p *Parser) objectInstance(name string) error {
	// ObjectInstance looks up the newest definition of name (PBRT allows
	// redefining an object name; later ObjectBegin...End blocks under the
	// same name shadow earlier ones, per spec.md §4.I).
	idx, ok := p.objectByName[name]
	if !ok {
		return p.unresolvedName("object", name)
	}
	f := p.at.Current()
	p.scene.Instances = append(p.scene.Instances, scenegraph.Instance{
		ObjectIndex:        idx,
		InstanceToWorld:    currentTransform(p.xf),
		Material:           scenegraph.Index(f.Material),
		ReverseOrientation: f.ReverseOrientation,
	})
	return nil
}
