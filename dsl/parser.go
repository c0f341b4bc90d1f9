package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/foodlabels/label"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Date", Pattern: `\d{4}-\d{2}-\d{2}`},
		{Name: "Number", Pattern: `\d+(?:[.,]\d+)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[:;]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	documentParser = participle.MustBuild[Document](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document is the root AST node of a .label file:
//
//	label "Sourdough" {
//	  productName: "Sourdough Bread"
//	  price: 59
//	  dueDate: 2024-03-15
//	  isVegan: yes
//	}
type Document struct {
	Pos         lexer.Position `parser:"" json:"-"`
	Name        *Value         `parser:"Newline* 'label' @@?"`
	Assignments []*Assignment  `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}' Newline*"`
}

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident"`
	Value *Value         `parser:"':' @@"`
}

// Value is a single scalar. Multi-word text must be quoted.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Date   *string        `parser:"| @Date"`
	Number *string        `parser:"| @Number"`
	Ident  *string        `parser:"| @Ident"`
}

// Text returns the raw value as entered, with quotes removed.
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Date != nil:
		return *v.Date
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	}
	return ""
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Edits converts the assignments into a field edit stream, in file order.
// Keys are matched with label.ParseField; an unknown key is reported with its position.
func (d *Document) Edits() ([]label.Edit, error) {
	edits := make([]label.Edit, 0, len(d.Assignments))
	for _, a := range d.Assignments {
		f, err := label.ParseField(a.Key)
		if err != nil {
			return nil, fmt.Errorf("dsl: %s: %w", a.Pos, err)
		}
		edits = append(edits, label.Edit{Field: f, Value: a.Value.Text()})
	}
	return edits, nil
}

// Parse parses DSL content from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

// ParseFile parses DSL content, reporting positions against filename.
func ParseFile(filename string, r io.Reader) (*Document, error) {
	return documentParser.Parse(filename, r)
}

// ParseString parses DSL content from a string.
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}
