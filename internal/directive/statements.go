// Package directive implements the statement table, the args-and-params
// parser, and the per-directive handlers that mutate the transform stack,
// attribute stack, and scene graph. Grounded on the teacher's
// mux.parseVP8XChunks: a loop that reads a tag, looks up what that tag
// means in a fixed table, and routes to a per-tag handler — generalized
// from chunk FourCCs to PBRT directive keywords, and from "binary payload
// already in memory" to "streamed positional args + named params".
package directive

// argKind is one character of a statement's positional-argument pattern
// (spec.md §4.I): 'f'=float, 's'=string, 'e'=quoted-enum-string,
// 'k'=bare-enum-keyword.
type argKind byte

const (
	argFloat      argKind = 'f'
	argString     argKind = 's'
	argQuotedEnum argKind = 'e'
	argBareEnum   argKind = 'k'
)

// phase identifies which half of a PBRT file a statement may appear in.
type phase int

const (
	phasePreamble phase = 1 << iota
	phaseWorld
)

// statement is one entry of the 37-statement dispatch table.
type statement struct {
	tag      string
	keyword  string
	args     []argKind
	phases   phase
	enumSet  []string // valid values for an 'e'/'k' slot, if any
	enumDflt string
}

// statementTable enumerates the 37 PBRT v3 directives named in spec.md
// §4.I. Statements not otherwise called out carry no positional args
// (their content is entirely named parameters).
var statementTable = []statement{
	{tag: "Identity", keyword: "Identity", phases: phasePreamble | phaseWorld},
	{tag: "Translate", keyword: "Translate", args: []argKind{argFloat, argFloat, argFloat}, phases: phasePreamble | phaseWorld},
	{tag: "Scale", keyword: "Scale", args: []argKind{argFloat, argFloat, argFloat}, phases: phasePreamble | phaseWorld},
	{tag: "Rotate", keyword: "Rotate", args: []argKind{argFloat, argFloat, argFloat, argFloat}, phases: phasePreamble | phaseWorld},
	{tag: "LookAt", keyword: "LookAt", args: []argKind{argFloat, argFloat, argFloat, argFloat, argFloat, argFloat, argFloat, argFloat, argFloat}, phases: phasePreamble | phaseWorld},
	{tag: "CoordinateSystem", keyword: "CoordinateSystem", args: []argKind{argString}, phases: phasePreamble | phaseWorld},
	{tag: "CoordSysTransform", keyword: "CoordSysTransform", args: []argKind{argString}, phases: phasePreamble | phaseWorld},
	{tag: "Transform", keyword: "Transform", phases: phasePreamble | phaseWorld}, // 16 floats, always bracketed
	{tag: "ConcatTransform", keyword: "ConcatTransform", phases: phasePreamble | phaseWorld},
	{tag: "ActiveTransform", keyword: "ActiveTransform", args: []argKind{argBareEnum}, enumSet: []string{"StartTime", "EndTime", "All"}, phases: phasePreamble | phaseWorld},
	{tag: "MakeNamedMedium", keyword: "MakeNamedMedium", args: []argKind{argString}, phases: phasePreamble | phaseWorld},
	{tag: "MediumInterface", keyword: "MediumInterface", args: []argKind{argString, argString}, phases: phasePreamble | phaseWorld},
	{tag: "Include", keyword: "Include", args: []argKind{argString}, phases: phasePreamble | phaseWorld},
	{tag: "AttributeBegin", keyword: "AttributeBegin", phases: phaseWorld},
	{tag: "AttributeEnd", keyword: "AttributeEnd", phases: phaseWorld},
	{tag: "Shape", keyword: "Shape", args: []argKind{argString}, phases: phaseWorld},
	{tag: "AreaLightSource", keyword: "AreaLightSource", args: []argKind{argString}, phases: phaseWorld},
	{tag: "LightSource", keyword: "LightSource", args: []argKind{argString}, phases: phaseWorld},
	{tag: "Material", keyword: "Material", args: []argKind{argString}, phases: phaseWorld},
	{tag: "MakeNamedMaterial", keyword: "MakeNamedMaterial", args: []argKind{argString}, phases: phaseWorld},
	{tag: "NamedMaterial", keyword: "NamedMaterial", args: []argKind{argString}, phases: phaseWorld},
	{tag: "ObjectBegin", keyword: "ObjectBegin", args: []argKind{argString}, phases: phaseWorld},
	{tag: "ObjectEnd", keyword: "ObjectEnd", phases: phaseWorld},
	{tag: "ObjectInstance", keyword: "ObjectInstance", args: []argKind{argString}, phases: phaseWorld},
	{tag: "Texture", keyword: "Texture", args: []argKind{argString, argString, argString}, phases: phaseWorld},
	{tag: "TransformBegin", keyword: "TransformBegin", phases: phaseWorld},
	{tag: "TransformEnd", keyword: "TransformEnd", phases: phaseWorld},
	{tag: "ReverseOrientation", keyword: "ReverseOrientation", phases: phaseWorld},
	{tag: "WorldEnd", keyword: "WorldEnd", phases: phaseWorld},
	{tag: "Accelerator", keyword: "Accelerator", args: []argKind{argString}, phases: phasePreamble},
	{tag: "Camera", keyword: "Camera", args: []argKind{argString}, phases: phasePreamble},
	{tag: "Film", keyword: "Film", args: []argKind{argString}, phases: phasePreamble},
	{tag: "Integrator", keyword: "Integrator", args: []argKind{argString}, phases: phasePreamble},
	{tag: "PixelFilter", keyword: "PixelFilter", args: []argKind{argString}, phases: phasePreamble},
	{tag: "Sampler", keyword: "Sampler", args: []argKind{argString}, phases: phasePreamble},
	{tag: "TransformTimes", keyword: "TransformTimes", args: []argKind{argFloat, argFloat}, phases: phasePreamble},
	{tag: "WorldBegin", keyword: "WorldBegin", phases: phasePreamble},
}

var statementByKeyword map[string]*statement

func init() {
	statementByKeyword = make(map[string]*statement, len(statementTable))
	for i := range statementTable {
		statementByKeyword[statementTable[i].keyword] = &statementTable[i]
	}
}
