package lex

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deepteams/pbrtload/internal/params"
)

func tokenizeAll(t *testing.T, tok *Tokenizer) []Token {
	t.Helper()
	var out []Token
	for {
		tk, ok := tok.Advance()
		if !ok {
			break
		}
		out = append(out, Token{Kind: tk.Kind, Text: append([]byte(nil), tk.Text...), Offset: tk.Offset})
	}
	return out
}

func TestOpenReaderScansBasicTokens(t *testing.T) {
	tok := New(0, 0, params.NewInterner())
	src := `LookAt 0 0 -5 "hello world" [ 1 2 ]`
	if err := tok.OpenReader(strings.NewReader(src), "<memory>"); err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	toks := tokenizeAll(t, tok)
	if err := tok.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	wantKinds := []TokenKind{
		TokIdentifier, TokNumber, TokNumber, TokNumber, TokString,
		TokSymbol, TokNumber, TokNumber, TokSymbol,
	}
	if len(toks) != len(wantKinds) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(wantKinds), toks)
	}
	for i, k := range wantKinds {
		if toks[i].Kind != k {
			t.Errorf("token %d: Kind = %v, want %v (text %q)", i, toks[i].Kind, k, toks[i].Text)
		}
	}
	if string(toks[4].Text) != "hello world" {
		t.Errorf("string token = %q, want %q", toks[4].Text, "hello world")
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	tok := New(0, 0, params.NewInterner())
	src := "Identity # a trailing comment\n# a whole-line comment\nWorldBegin"
	if err := tok.OpenReader(strings.NewReader(src), "<memory>"); err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	toks := tokenizeAll(t, tok)
	if len(toks) != 2 {
		t.Fatalf("got %d tokens, want 2: %+v", len(toks), toks)
	}
	if string(toks[0].Text) != "Identity" || string(toks[1].Text) != "WorldBegin" {
		t.Errorf("tokens = %q, %q", toks[0].Text, toks[1].Text)
	}
}

// TestSmallBufferRefillDoesNotSplitTokens forces many refills (buffer
// capacity far smaller than the input) to exercise the safe-end
// retraction that keeps a token from straddling a buffer boundary.
func TestSmallBufferRefillDoesNotSplitTokens(t *testing.T) {
	var sb strings.Builder
	var want []string
	for i := 0; i < 200; i++ {
		word := "abcdefghijklmnop"
		sb.WriteString(word)
		sb.WriteByte(' ')
		want = append(want, word)
	}
	tok := New(16, 0, params.NewInterner())
	if err := tok.OpenReader(strings.NewReader(sb.String()), "<memory>"); err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	toks := tokenizeAll(t, tok)
	if err := tok.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if string(toks[i].Text) != w {
			t.Fatalf("token %d = %q, want %q", i, toks[i].Text, w)
		}
	}
}

// TestStringLiteralLengthBoundary exercises the exact off-by-one spec.md
// §8 names: a string literal whose content length equals
// buffer_capacity-2 succeeds, and one byte longer (buffer_capacity-1)
// fails with ErrStringTooLong.
func TestStringLiteralLengthBoundary(t *testing.T) {
	const bufCap = 32

	ok := strings.Repeat("a", bufCap-2)
	tok := New(bufCap, 0, params.NewInterner())
	if err := tok.OpenReader(strings.NewReader(`"`+ok+`"`), "<memory>"); err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	tkn, advanced := tok.Advance()
	if !advanced {
		t.Fatalf("Advance failed for a cap-2 string: %v", tok.Err())
	}
	if tkn.Kind != TokString || string(tkn.Text) != ok {
		t.Fatalf("got %+v, want string token of length %d", tkn, len(ok))
	}

	tooLong := strings.Repeat("a", bufCap-1)
	tok2 := New(bufCap, 0, params.NewInterner())
	if err := tok2.OpenReader(strings.NewReader(`"`+tooLong+`"`), "<memory>"); err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	if _, advanced := tok2.Advance(); advanced {
		t.Fatal("expected Advance to fail for a cap-1 string")
	}
	if !errors.Is(tok2.Err(), ErrStringTooLong) {
		t.Fatalf("Err() = %v, want ErrStringTooLong", tok2.Err())
	}
}

func TestPushFileAndPopFileRestoreOffset(t *testing.T) {
	dir := t.TempDir()
	incPath := filepath.Join(dir, "inc.pbrt")
	if err := os.WriteFile(incPath, []byte("Included"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	mainPath := filepath.Join(dir, "main.pbrt")
	if err := os.WriteFile(mainPath, []byte(`Before Include "inc.pbrt" After`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tok := New(0, 0, params.NewInterner())
	if err := tok.Open(mainPath); err != nil {
		t.Fatalf("Open: %v", err)
	}

	first, _ := tok.Advance() // "Before"
	if string(first.Text) != "Before" {
		t.Fatalf("first = %q, want Before", first.Text)
	}
	second, _ := tok.Advance() // "Include"
	if string(second.Text) != "Include" {
		t.Fatalf("second = %q, want Include", second.Text)
	}
	third, _ := tok.Advance() // quoted filename
	if third.Kind != TokString || string(third.Text) != "inc.pbrt" {
		t.Fatalf("third = %+v, want string inc.pbrt", third)
	}

	if err := tok.PushFile(string(third.Text), false); err != nil {
		t.Fatalf("PushFile: %v", err)
	}
	inc, ok := tok.Advance()
	if !ok || string(inc.Text) != "Included" {
		t.Fatalf("included token = %+v, ok=%v", inc, ok)
	}
	// The included file has nothing else; Advance pops silently back to
	// the parent and returns its next token directly.
	after, ok := tok.Advance()
	if !ok || string(after.Text) != "After" {
		t.Fatalf("after-include token = %+v, ok=%v", after, ok)
	}
}

func TestMaxIncludeDepthExceeded(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pbrt")
	if err := os.WriteFile(a, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tok := New(0, 1, params.NewInterner())
	if err := tok.Open(a); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := tok.PushFile(a, false); err != nil {
		t.Fatalf("first PushFile: %v", err)
	}
	if err := tok.PushFile(a, false); err == nil {
		t.Fatal("expected ErrIncludeDepth on the second nested push")
	}
}

func TestCursorLocationResolvesLineAndColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.pbrt")
	contents := "Identity\nTranslate 1 2 3\nWorldBegin"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	target := int64(strings.Index(contents, "Translate"))
	line, col, err := CursorLocation(path, target)
	if err != nil {
		t.Fatalf("CursorLocation: %v", err)
	}
	if line != 2 {
		t.Errorf("line = %d, want 2", line)
	}
	if col != 1 {
		t.Errorf("col = %d, want 1", col)
	}
}
