package directive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/deepteams/pbrtload/internal/attr"
	"github.com/deepteams/pbrtload/internal/lex"
	"github.com/deepteams/pbrtload/internal/numeric"
	"github.com/deepteams/pbrtload/internal/params"
	"github.com/deepteams/pbrtload/internal/scenegraph"
	"github.com/deepteams/pbrtload/internal/spectrum"
	"github.com/deepteams/pbrtload/internal/xform"
)

// ForwardRefPolicy governs what happens when a directive references a
// named material, medium, or object that has not been defined yet
// (spec.md §9 "Forward references", resolved in favor of fail-fast).
type ForwardRefPolicy int

const (
	// FailFast reports an error the moment an unresolved name is used.
	FailFast ForwardRefPolicy = iota
	// WarnAndIgnore records a warning and proceeds with the field unset.
	WarnAndIgnore
)

// TriangulateMode controls whether ply meshes are triangulated eagerly as
// they are loaded, or left as polygon index lists for the caller.
type TriangulateMode int

const (
	TriangulateEager TriangulateMode = iota
	TriangulateNone
)

var (
	ErrUnknownDirective  = errors.New("directive: unknown statement")
	ErrWrongPhase        = errors.New("directive: statement not allowed in this phase")
	ErrUnexpectedToken   = errors.New("directive: unexpected token")
	ErrNestedObject      = errors.New("directive: nested ObjectBegin")
	ErrObjectEndMismatch = errors.New("directive: ObjectEnd without matching ObjectBegin")
	ErrUnresolvedName    = errors.New("directive: reference to an undefined name")
	ErrMalformedParam    = errors.New("directive: malformed parameter declaration")
)

// Parser drives one PBRT scene file end to end: token stream in, populated
// Scene out. It owns every piece of per-parse mutable state the directive
// table's handlers touch (spec.md §3's transform stack, attribute stack,
// and parameter arena, plus the object/instance bookkeeping spec.md §4.I
// describes).
type Parser struct {
	tok      *lex.Tokenizer
	xf       *xform.Stack
	at       *attr.Stack
	arena    *params.Arena
	interner *params.Interner
	spectral *spectrum.Engine
	scene    *scenegraph.Scene

	sceneDir string

	inWorld bool

	activeObjectName string
	activeObjectIdx  scenegraph.Index
	objectByName     map[string]scenegraph.Index

	forwardRefPolicy ForwardRefPolicy
	triangulate      TriangulateMode

	warnings []string

	pending   lex.Token
	pendingOK bool
	haveCur   bool
}

// NewParser builds a Parser ready to Run over tok, writing into scene.
func NewParser(tok *lex.Tokenizer, interner *params.Interner, scene *scenegraph.Scene, sceneDir string) *Parser {
	return &Parser{
		tok:          tok,
		xf:           xform.NewStack(),
		at:           attr.NewStack(),
		arena:        params.NewArena(),
		interner:     interner,
		spectral:     spectrum.Default(),
		scene:        scene,
		sceneDir:     sceneDir,
		objectByName: make(map[string]scenegraph.Index),
	}
}

// Warnings returns the non-fatal diagnostics accumulated during the parse.
func (p *Parser) Warnings() []string { return p.warnings }

// SetForwardRefPolicy overrides the default FailFast behavior for
// references to undefined named materials, media, and objects.
func (p *Parser) SetForwardRefPolicy(policy ForwardRefPolicy) { p.forwardRefPolicy = policy }

// SetTriangulateMode overrides the default eager triangulation of
// polygonal PLY faces.
func (p *Parser) SetTriangulateMode(mode TriangulateMode) { p.triangulate = mode }

func (p *Parser) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

// advance returns the next token, buffering none: Parser consumes the
// tokenizer directly except where peek() has looked one token ahead.
func (p *Parser) advance() (lex.Token, bool) {
	if p.haveCur {
		p.haveCur = false
		return p.pending, p.pendingOK
	}
	return p.tok.Advance()
}

// peek returns the next token without consuming it.
func (p *Parser) peek() (lex.Token, bool) {
	if !p.haveCur {
		p.pending, p.pendingOK = p.tok.Advance()
		p.haveCur = true
	}
	return p.pending, p.pendingOK
}

func (p *Parser) currentPhase() phase {
	if p.inWorld {
		return phaseWorld
	}
	return phasePreamble
}

// Run consumes the entire token stream, dispatching one statement at a
// time until top-level EOF or the first error (spec.md §7 propagation
// policy: stop at the first hard error, report every soft one as a
// warning).
func (p *Parser) Run() error {
	for {
		tok, ok := p.advance()
		if !ok {
			if err := p.tok.Err(); err != nil {
				return err
			}
			break
		}
		if tok.Kind != lex.TokIdentifier {
			return fmt.Errorf("%w: %q at offset %d", ErrUnexpectedToken, tok.Text, tok.Offset)
		}
		if err := p.dispatch(string(tok.Text)); err != nil {
			return err
		}
	}
	if p.inWorld {
		return fmt.Errorf("directive: reached end of input inside World block (missing WorldEnd)")
	}
	if p.activeObjectName != "" {
		return fmt.Errorf("directive: reached end of input inside an Object block (missing ObjectEnd)")
	}
	return nil
}

func (p *Parser) dispatch(name string) error {
	stmt, ok := statementByKeyword[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDirective, name)
	}
	if stmt.phases&p.currentPhase() == 0 {
		return fmt.Errorf("%w: %q", ErrWrongPhase, name)
	}
	p.arena.Clear()

	argVals, err := p.readPositionalArgs(stmt)
	if err != nil {
		return err
	}

	return p.handle(stmt.tag, argVals)
}

// argValue is the parsed form of one positional argument.
type argValue struct {
	f float64
	s string
}

func (p *Parser) readPositionalArgs(stmt *statement) ([]argValue, error) {
	out := make([]argValue, 0, len(stmt.args))
	for _, kind := range stmt.args {
		switch kind {
		case argFloat:
			v, err := p.readFloat()
			if err != nil {
				return nil, err
			}
			out = append(out, argValue{f: v})
		case argString, argQuotedEnum:
			tok, ok := p.advance()
			if !ok || tok.Kind != lex.TokString {
				return nil, fmt.Errorf("%w: %q expected a quoted string argument", ErrUnexpectedToken, stmt.keyword)
			}
			s := string(tok.Text)
			if kind == argQuotedEnum && len(stmt.enumSet) > 0 && !contains(stmt.enumSet, s) {
				return nil, fmt.Errorf("%w: %q is not a valid value for %q", ErrUnexpectedToken, s, stmt.keyword)
			}
			out = append(out, argValue{s: s})
		case argBareEnum:
			tok, ok := p.advance()
			if !ok || tok.Kind != lex.TokIdentifier {
				return nil, fmt.Errorf("%w: %q expected a bare keyword argument", ErrUnexpectedToken, stmt.keyword)
			}
			s := string(tok.Text)
			if len(stmt.enumSet) > 0 && !contains(stmt.enumSet, s) {
				return nil, fmt.Errorf("%w: %q is not a valid value for %q", ErrUnexpectedToken, s, stmt.keyword)
			}
			out = append(out, argValue{s: s})
		}
	}
	return out, nil
}

func (p *Parser) readFloat() (float64, error) {
	tok, ok := p.advance()
	if !ok || tok.Kind != lex.TokNumber {
		return 0, fmt.Errorf("%w: expected a number", ErrUnexpectedToken)
	}
	v, _, numOK := numeric.Double(tok.Text, 0)
	if !numOK {
		return 0, fmt.Errorf("%w: malformed number %q", ErrUnexpectedToken, tok.Text)
	}
	return v, nil
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// readBracketedFloats reads a '[' f f f ... ']' list of exactly n floats,
// used by Transform and ConcatTransform (always 16 values).
func (p *Parser) readBracketedFloats(n int) ([]float64, error) {
	tok, ok := p.advance()
	if !ok || tok.Kind != lex.TokSymbol || tok.Text[0] != '[' {
		return nil, fmt.Errorf("%w: expected '['", ErrUnexpectedToken)
	}
	out := make([]float64, 0, n)
	for {
		v, err := p.readFloat()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if len(out) == n {
			break
		}
	}
	closeTok, ok := p.advance()
	if !ok || closeTok.Kind != lex.TokSymbol || closeTok.Text[0] != ']' {
		return nil, fmt.Errorf("%w: expected ']' after %d values", ErrUnexpectedToken, n)
	}
	return out, nil
}

// parseParams consumes zero or more `"type name" value` parameter
// declarations, which in the grammar are distinguished from the next
// statement keyword only by token kind: a parameter declaration always
// opens with a quoted string, a statement keyword is always a bare
// identifier (spec.md §4.H).
func (p *Parser) parseParams() error {
	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != lex.TokString {
			return nil
		}
		p.advance()
		typ, name, err := splitParamDecl(string(tok.Text))
		if err != nil {
			return err
		}
		if err := p.parseParamValue(p.interner.Intern(name), typ); err != nil {
			return err
		}
	}
}

func splitParamDecl(decl string) (params.Type, string, error) {
	fields := strings.Fields(decl)
	if len(fields) != 2 {
		return 0, "", fmt.Errorf("%w: %q", ErrMalformedParam, decl)
	}
	typ, ok := params.LookupType(fields[0])
	if !ok {
		return 0, "", fmt.Errorf("%w: unknown type %q", ErrMalformedParam, fields[0])
	}
	return typ, fields[1], nil
}

// componentCount reports how many float64 components make up one logical
// value of typ (spec.md §4.H's per-type arity table).
func componentCount(typ params.Type) int {
	switch typ {
	case params.Point2, params.Vector2, params.Blackbody:
		return 2
	case params.Point3, params.Vector3, params.Normal3, params.RGB, params.XYZ:
		return 3
	default:
		return 1
	}
}

func (p *Parser) parseParamValue(name string, typ params.Type) error {
	switch typ {
	case params.Bool:
		vals, err := p.collectStringTokens()
		if err != nil {
			return err
		}
		bools := make([]bool, len(vals))
		for i, v := range vals {
			bools[i] = v == "true"
		}
		p.arena.PushBools(name, bools)
		return nil
	case params.String, params.Texture:
		vals, err := p.collectStringTokens()
		if err != nil {
			return err
		}
		if len(vals) == 0 {
			return fmt.Errorf("%w: %q has no value", ErrMalformedParam, name)
		}
		p.arena.PushString(name, typ, vals[0])
		return nil
	case params.Int:
		toks, err := p.collectValueTokens()
		if err != nil {
			return err
		}
		ints := make([]int32, len(toks))
		for i, tk := range toks {
			v, _, ok := numeric.Int(tk.Text, 0)
			if !ok {
				v64, _, dok := numeric.Double(tk.Text, 0)
				if !dok {
					return fmt.Errorf("%w: malformed integer %q", ErrMalformedParam, tk.Text)
				}
				v = int32(v64)
			}
			ints[i] = v
		}
		p.arena.PushInts(name, ints)
		return nil
	case params.Samples:
		// Either a single filename string (an external SPD file) or an
		// inline, even-length list of (wavelength, value) float pairs
		// (spec.md §4.H "spectrum resolves to Samples").
		if tok, ok := p.peek(); ok && tok.Kind == lex.TokString {
			p.advance()
			floats, err := p.readSpectrumFile(string(tok.Text))
			if err != nil {
				return err
			}
			p.arena.PushFloats(name, params.Samples, floats)
			return nil
		}
		toks, err := p.collectValueTokens()
		if err != nil {
			return err
		}
		if len(toks)%2 != 0 {
			return fmt.Errorf("%w: inline spectrum %q needs an even number of values", ErrMalformedParam, name)
		}
		floats := make([]float64, len(toks))
		for i, tk := range toks {
			v, _, ok := numeric.Double(tk.Text, 0)
			if !ok {
				return fmt.Errorf("%w: malformed float %q", ErrMalformedParam, tk.Text)
			}
			floats[i] = v
		}
		p.arena.PushFloats(name, params.Samples, floats)
		return nil
	default: // Float, Point2/3, Vector2/3, Normal3, RGB, XYZ, Blackbody
		toks, err := p.collectValueTokens()
		if err != nil {
			return err
		}
		n := componentCount(typ)
		if n > 1 && len(toks)%n != 0 {
			return fmt.Errorf("%w: %q needs a multiple of %d values, got %d", ErrMalformedParam, name, n, len(toks))
		}
		floats := make([]float64, len(toks))
		for i, tk := range toks {
			v, _, ok := numeric.Double(tk.Text, 0)
			if !ok {
				return fmt.Errorf("%w: malformed float %q", ErrMalformedParam, tk.Text)
			}
			floats[i] = v
		}
		p.arena.PushFloats(name, typ, floats)
		return nil
	}
}

// collectValueTokens reads either a single token or a '[' ... ']'-bracketed
// run of tokens, returning them unconverted.
func (p *Parser) collectValueTokens() ([]lex.Token, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("%w: expected a value", ErrUnexpectedToken)
	}
	if tok.Kind == lex.TokSymbol && tok.Text[0] == '[' {
		p.advance()
		var out []lex.Token
		for {
			next, ok := p.peek()
			if !ok {
				return nil, fmt.Errorf("%w: unterminated '[' list", ErrUnexpectedToken)
			}
			if next.Kind == lex.TokSymbol && next.Text[0] == ']' {
				p.advance()
				break
			}
			p.advance()
			out = append(out, next)
		}
		return out, nil
	}
	p.advance()
	return []lex.Token{tok}, nil
}

func (p *Parser) collectStringTokens() ([]string, error) {
	toks, err := p.collectValueTokens()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(toks))
	for i, tk := range toks {
		out[i] = string(tk.Text)
	}
	return out, nil
}

// readSpectrumFile loads an external two-column (wavelength, value) SPD
// file via the tokenizer's report-EOF include mechanism, the same
// mechanism Include uses but with the EOF surfaced to the caller instead
// of silently popped (spec.md §4.D PushFile's reportEOF flag).
func (p *Parser) readSpectrumFile(name string) ([]float64, error) {
	if err := p.tok.PushFile(name, true); err != nil {
		return nil, err
	}
	var floats []float64
	for {
		tok, ok := p.tok.Advance()
		if !ok {
			break
		}
		if tok.Kind != lex.TokNumber {
			p.tok.PopFile()
			return nil, fmt.Errorf("%w: spectrum file %q contains a non-numeric token", ErrMalformedParam, name)
		}
		v, _, numOK := numeric.Double(tok.Text, 0)
		if !numOK {
			p.tok.PopFile()
			return nil, fmt.Errorf("%w: malformed float in spectrum file %q", ErrMalformedParam, name)
		}
		floats = append(floats, v)
	}
	if err := p.tok.Err(); err != nil {
		return nil, err
	}
	p.tok.PopFile()
	if len(floats)%2 != 0 {
		return nil, fmt.Errorf("%w: spectrum file %q has an odd number of values", ErrMalformedParam, name)
	}
	return floats, nil
}

// paramsToMap materializes the current arena's parameters into a
// map[string]any for storage on a scenegraph.Entity, decoding each
// according to its declared Type. RGB, XYZ, Blackbody, and Samples all
// resolve to a 3-float RGB triple here (spec.md §4.H's spectrum_param:
// "accepts any of {RGB, XYZ, Blackbody, Samples}, converts to RGB via
// §4.B, and writes three floats") so that every downstream consumer of
// an Entity's Params sees a uniform []float64{r,g,b} regardless of how
// the scene author spelled the color.
func (p *Parser) paramsToMap() map[string]any {
	infos := p.arena.All()
	if len(infos) == 0 {
		return nil
	}
	out := make(map[string]any, len(infos))
	for _, info := range infos {
		switch info.Type {
		case params.Bool:
			out[info.Name] = p.arena.Bools(info)
		case params.Int:
			out[info.Name] = p.arena.Ints(info)
		case params.String, params.Texture:
			out[info.Name] = p.arena.String(info)
		case params.RGB:
			out[info.Name] = p.arena.Floats(info)
		case params.XYZ:
			vals := p.arena.Floats(info)
			r, g, b := spectrum.XYZToRGB(vals[0], vals[1], vals[2])
			out[info.Name] = []float64{r, g, b}
		case params.Blackbody:
			vals := p.arena.Floats(info)
			scale := 1.0
			if len(vals) > 1 {
				scale = vals[1]
			}
			r, g, b := p.spectral.BlackbodyToRGB(vals[0], scale)
			out[info.Name] = []float64{r, g, b}
		case params.Samples:
			vals := p.arena.Floats(info)
			samples := make([]spectrum.Sample, len(vals)/2)
			for i := range samples {
				samples[i] = spectrum.Sample{Lambda: vals[2*i], Value: vals[2*i+1]}
			}
			r, g, b := p.spectral.SamplesToRGB(samples)
			out[info.Name] = []float64{r, g, b}
		default:
			out[info.Name] = p.arena.Floats(info)
		}
	}
	return out
}

func currentTransform(xf *xform.Stack) scenegraph.Transform {
	f := xf.Current()
	return scenegraph.Transform{Start: f.Start, End: f.End}
}
