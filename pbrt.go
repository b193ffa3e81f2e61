// Package pbrt implements a loader for the PBRT v3 scene description
// format: a text-based directive language describing cameras, lights,
// materials, and geometry (including PLY mesh references), parsed into an
// in-memory [Scene].
//
// A Loader owns the parse: transform and attribute stacks, the parameter
// arena, and the token stream itself. Create one with [Open], call
// [Loader.Parse], then take the result with [Loader.TakeScene].
package pbrt

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/deepteams/pbrtload/internal/directive"
	"github.com/deepteams/pbrtload/internal/lex"
	"github.com/deepteams/pbrtload/internal/params"
	"github.com/deepteams/pbrtload/internal/scenegraph"
)

// Scene is the in-memory result of a parse: flat, index-addressed vectors
// of every scene entity plus the render configuration singletons.
type Scene = scenegraph.Scene

// ErrAlreadyParsed is returned by Parse if called more than once on the
// same Loader.
var ErrAlreadyParsed = errors.New("pbrt: Parse already called on this Loader")

// Options configures a Loader. The zero Options uses the tokenizer's
// documented defaults (spec.md §4.D): a 1 MiB - 1 token buffer and an
// include depth of 5.
type Options struct {
	// BufferCapacity overrides the tokenizer's sliding window size. 0
	// selects lex.DefaultBufferCapacity.
	BufferCapacity int
	// MaxIncludeDepth overrides how many nested Include/spectrum files may
	// be open simultaneously. 0 selects lex.DefaultMaxIncludeDepth.
	MaxIncludeDepth int
	// ForwardRefPolicy controls what happens when a directive references an
	// undefined named material, medium, or object. The zero value
	// is FailFast.
	ForwardRefPolicy ForwardRefPolicy
	// Triangulate controls whether polygonal PLY faces are triangulated
	// eagerly while loading (the default) or left untouched.
	Triangulate TriangulateMode
}

// ForwardRefPolicy re-exports directive.ForwardRefPolicy so callers never
// need to import the internal package directly.
type ForwardRefPolicy = directive.ForwardRefPolicy

const (
	FailFast      = directive.FailFast
	WarnAndIgnore = directive.WarnAndIgnore
)

// TriangulateMode re-exports directive.TriangulateMode.
type TriangulateMode = directive.TriangulateMode

const (
	TriangulateEager = directive.TriangulateEager
	TriangulateNone  = directive.TriangulateNone
)

// ParseError wraps the first hard error encountered while parsing. File is
// the top-level scene path. Offset is the byte offset the tokenizer
// recorded for a lexical error, counted within the file being read at the
// time; errors raised while interpreting directives carry Offset 0. The
// (line, column) is resolved lazily via [lex.CursorLocation] only when
// asked for — exactly the "deliberately expensive, error path only" policy
// spec.md §4.D documents for cursor resolution.
type ParseError struct {
	File   string
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: offset %d: %v", e.File, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Location resolves this error's byte offset to a 1-based (line, column)
// pair by rereading the file from the start.
func (e *ParseError) Location() (line, col int, err error) {
	return lex.CursorLocation(e.File, e.Offset)
}

// Loader drives a single parse of one top-level scene file.
type Loader struct {
	path     string
	opts     Options
	tok      *lex.Tokenizer
	interner *params.Interner
	scene    *scenegraph.Scene
	parser   *directive.Parser

	parsed   bool
	parseErr error
}

// Open opens path as the top-level scene file and primes the tokenizer,
// without running the directive parse yet.
func Open(path string, opts Options) (*Loader, error) {
	interner := params.NewInterner()
	tok := lex.New(opts.BufferCapacity, opts.MaxIncludeDepth, interner)
	if err := tok.Open(path); err != nil {
		return nil, &ParseError{File: path, Err: err}
	}
	return newLoader(path, opts, interner, tok), nil
}

// newLoader assembles a Loader around an already-primed tokenizer; shared
// by Open and OpenReader, which differ only in how they prime tok.
func newLoader(name string, opts Options, interner *params.Interner, tok *lex.Tokenizer) *Loader {
	scene := scenegraph.NewScene()
	parser := directive.NewParser(tok, interner, scene, filepath.Dir(name))
	parser.SetForwardRefPolicy(opts.ForwardRefPolicy)
	parser.SetTriangulateMode(opts.Triangulate)
	return &Loader{
		path:     name,
		opts:     opts,
		tok:      tok,
		interner: interner,
		scene:    scene,
		parser:   parser,
	}
}

// Parse runs the directive dispatcher over the entire token stream,
// populating the Loader's Scene. It may only be called once.
func (l *Loader) Parse() error {
	if l.parsed {
		return ErrAlreadyParsed
	}
	l.parsed = true
	if err := l.parser.Run(); err != nil {
		offset := int64(0)
		if tokErr := l.tok.Err(); tokErr != nil {
			var lexErr *lex.Error
			if errors.As(tokErr, &lexErr) {
				offset = lexErr.Offset
			}
		}
		l.parseErr = &ParseError{File: l.path, Offset: offset, Err: err}
		return l.parseErr
	}
	return nil
}

// Error returns the error recorded by Parse, or nil.
func (l *Loader) Error() error { return l.parseErr }

// Warnings returns the non-fatal diagnostics accumulated during the parse
// (spec.md §7: references to undefined named materials, media, or objects
// under WarnAndIgnore, and similar recoverable conditions).
func (l *Loader) Warnings() []string { return l.parser.Warnings() }

// BorrowScene returns the Loader's Scene without transferring ownership;
// the Loader may still be holding references into it (e.g. via the
// tokenizer's open include files) until Parse has returned.
func (l *Loader) BorrowScene() *Scene { return l.scene }

// TakeScene returns the parsed Scene and clears the Loader's reference to
// it, signaling that the caller now owns it exclusively.
func (l *Loader) TakeScene() *Scene {
	s := l.scene
	l.scene = nil
	return s
}

// LoadFile is a convenience wrapper around Open+Parse+TakeScene for the
// common case of a one-shot load with default options.
func LoadFile(path string) (*Scene, error) {
	l, err := Open(path, Options{})
	if err != nil {
		return nil, err
	}
	if err := l.Parse(); err != nil {
		return nil, err
	}
	return l.TakeScene(), nil
}

// OpenReader is [Open]'s counterpart for scene text that did not come
// from a file on disk. name labels the source for diagnostics and anchors
// relative Include/plymesh paths (via filepath.Dir(name)); it need not
// exist on disk.
func OpenReader(r io.Reader, name string, opts Options) (*Loader, error) {
	interner := params.NewInterner()
	tok := lex.New(opts.BufferCapacity, opts.MaxIncludeDepth, interner)
	if err := tok.OpenReader(r, name); err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	return newLoader(name, opts, interner, tok), nil
}

// Load parses scene text read from r in a single call, the in-memory
// counterpart to LoadFile, mirroring the stdlib image package's
// Reader-plus-name decode shape (golang.org/x/image codecs follow the
// same convention). name is used exactly as [OpenReader] describes.
func Load(r io.Reader, name string) (*Scene, error) {
	l, err := OpenReader(r, name, Options{})
	if err != nil {
		return nil, err
	}
	if err := l.Parse(); err != nil {
		return nil, err
	}
	return l.TakeScene(), nil
}
