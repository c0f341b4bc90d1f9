package canvasrenderer

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ByLCY/foodlabels/fonts"
	"github.com/ByLCY/foodlabels/label"
	"github.com/ByLCY/foodlabels/layout"
)

const (
	fontSizePt   = 12.0
	lineHeightPt = fontSizePt * 1.2
)

func TestLayoutLinesGreedyWrapsText(t *testing.T) {
	r := NewRenderer()
	// 宽度/字号/行高均为 pt
	lines, err := r.LayoutLines("hello world again", 30, layout.FontRegular, fontSizePt, lineHeightPt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(lines))
	}
	for i, ln := range lines {
		if strings.HasPrefix(ln.Content, " ") || strings.HasSuffix(ln.Content, " ") {
			t.Fatalf("line %d keeps surrounding whitespace: %q", i, ln.Content)
		}
	}
}

func TestGreedyWrapHonorsNewlines(t *testing.T) {
	r := NewRenderer()
	lines, err := r.LayoutLines("foo\n\nbar", 300, layout.FontRegular, fontSizePt, lineHeightPt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines including blank, got %d", len(lines))
	}
	if lines[1].Content != "" {
		t.Fatalf("expected middle line to be blank, got %q", lines[1].Content)
	}
}

func TestUnlimitedWidthMeasuresSingleLine(t *testing.T) {
	r := NewRenderer()
	lines, err := r.LayoutLines("Best before: 2024-03-15", 0, layout.FontRegular, fontSizePt, lineHeightPt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 || lines[0].Width <= 0 {
		t.Fatalf("expected one measured line, got %+v", lines)
	}
	bold, err := r.LayoutLines("Best before: 2024-03-15", 0, layout.FontBold, fontSizePt, lineHeightPt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bold[0].Width <= lines[0].Width {
		t.Fatalf("bold text should be wider: bold=%g regular=%g", bold[0].Width, lines[0].Width)
	}
}

// TestLineHeightsInvariant 验证：
// 1) 首行 GapBefore == 0；
// 2) 其余行 GapBefore ≈ max(lineHeight - textHeight, 0)；
// 3) 各行的 Height 与 textHeight 一致（渲染器会用字体度量回填）。
func TestLineHeightsInvariant(t *testing.T) {
	r := NewRenderer()
	lh := fontSizePt * 1.3

	content := "longlonglong longlonglong longlonglong longlonglong longlonglong"
	lines, err := r.LayoutLines(content, 110, layout.FontRegular, fontSizePt, lh)
	if err != nil {
		t.Fatalf("LayoutLines error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected multiple lines for invariant test, got %d", len(lines))
	}

	// textHeight 以第一行 Height 为准
	textHeight := lines[0].Height
	if textHeight <= 0 {
		t.Fatalf("invalid text height: %g", textHeight)
	}
	wantLeading := math.Max(lh-textHeight, 0)

	if lines[0].GapBefore != 0 {
		t.Fatalf("first line GapBefore must be 0, got %g", lines[0].GapBefore)
	}
	const eps = 1e-6
	for i := 1; i < len(lines); i++ {
		if diff := math.Abs(lines[i].GapBefore - wantLeading); diff > eps {
			t.Fatalf("line %d GapBefore mismatch: got=%g want=%g diff=%g", i, lines[i].GapBefore, wantLeading, diff)
		}
		if diff := math.Abs(lines[i].Height - textHeight); diff > eps {
			t.Fatalf("line %d Height mismatch: got=%g want=%g diff=%g", i, lines[i].Height, textHeight, diff)
		}
	}
}

// TestGreedyWrapWidthLimit 验证每行宽度不超过限制（pt）。
func TestGreedyWrapWidthLimit(t *testing.T) {
	r := NewRenderer()
	limit := 85.0
	content := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	lines, err := r.LayoutLines(content, limit, layout.FontRegular, fontSizePt, lineHeightPt)
	if err != nil {
		t.Fatalf("LayoutLines error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected the long word to be split, got %d lines", len(lines))
	}
	for i, ln := range lines {
		if ln.Width-limit > 1e-6 { // 允许极小的数值误差
			t.Fatalf("line %d width exceeds limit: width=%g limit=%g", i, ln.Width, limit)
		}
	}
}

// 当第一行宽度与容器宽度恰好相等且后面紧跟一个显式换行时，不应产生额外的空行。
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	r := NewRenderer()
	first := "SAMPLE-A"
	measured, err := r.LayoutLines(first, 0, layout.FontRegular, fontSizePt, lineHeightPt)
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	if len(measured) != 1 {
		t.Fatalf("unexpected measured lines: %d", len(measured))
	}
	limit := measured[0].Width
	if limit <= 0 {
		t.Fatalf("invalid measured width: %g", limit)
	}

	lines, err := r.LayoutLines(first+"\nSAMPLE-B", limit, layout.FontRegular, fontSizePt, lineHeightPt)
	if err != nil {
		t.Fatalf("LayoutLines error: %v", err)
	}
	if got := len(lines); got != 2 {
		t.Fatalf("expected 2 lines without blank, got %d", got)
	}
	if lines[0].Content != first || lines[1].Content != "SAMPLE-B" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}

func sampleResult(t *testing.T, r *Renderer) *layout.Result {
	t.Helper()
	rec := label.Record{
		ProductName:  "Sourdough Bread",
		Price:        "59",
		DueDate:      "2024-03-15",
		Ingredients:  "Flour, water, salt",
		Allergens:    "Gluten",
		Instructions: "Store in a dry place",
		IsVegan:      true,
		Density:      label.DensityNormal,
	}
	res, err := layout.Build(rec, rec.Density, layout.BuildOptions{Typesetter: r})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer()
	res := sampleResult(t, r)
	for _, cell := range res.Cells {
		if cell.Overflow {
			t.Fatalf("sample label should fit its cell")
		}
	}
	data, err := r.Render(res)
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF: %q", data[:min(len(data), 16)])
	}
}

func TestRenderRejectsEmptyResult(t *testing.T) {
	r := NewRenderer()
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("expected error for result without cells")
	}
}

func TestRendererIsSafeForConcurrentUse(t *testing.T) {
	r := NewRenderer()
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.LayoutLines("Flour, water, salt", 120, layout.FontBold, 8, 9.6); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent layout failed: %v", err)
	}
}

func TestClippedTextStaysInsideCell(t *testing.T) {
	r := NewRenderer()
	rec := label.Record{
		ProductName:  "Sourdough Bread",
		Price:        "59",
		DueDate:      "2024-03-15",
		Ingredients:  strings.Repeat("Flour, water, salt and a little rye. ", 40),
		Instructions: "KEEPDRY marker text",
		Density:      label.DensityNormal,
	}
	res, err := layout.Build(rec, rec.Density, layout.BuildOptions{Typesetter: r})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	inset := res.Geometry.Inset()
	for _, cell := range res.Cells {
		if !cell.Overflow {
			t.Fatalf("cell %d should overflow", cell.Index)
		}
		limit := cell.Frame.Y + cell.Frame.Height - inset
		for _, tb := range cell.Texts() {
			for _, ln := range placeLines(cell.Frame, tb) {
				if ln.Top+ln.Height > limit+1e-6 {
					t.Fatalf("cell %d: %q painted at %g, below the content box %g", cell.Index, ln.Content, ln.Top+ln.Height, limit)
				}
				if strings.Contains(ln.Content, "KEEPDRY") || ln.Content == layout.HeadingInstructions {
					t.Fatalf("cell %d: dropped text %q is still painted", cell.Index, ln.Content)
				}
			}
		}
	}
	if _, err := r.Render(res); err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
}

func TestPlaceLinesSkipsBoxesWithoutLines(t *testing.T) {
	frame := layout.Rect{X: 10, Y: 20, Width: 100, Height: 50}
	tb := layout.TextBox{Content: "not laid out", Y: 5, LineHeight: 9.6, Lines: []layout.TextLine{}}
	if got := placeLines(frame, tb); len(got) != 0 {
		t.Fatalf("a box without lines must paint nothing, got %+v", got)
	}
	tb.Lines = []layout.TextLine{{Content: "a", Height: 8}, {Content: "", Height: 8, GapBefore: 1.6}, {Content: "b", Height: 8, GapBefore: 1.6}}
	got := placeLines(frame, tb)
	if len(got) != 2 || got[0].Top != 25 || math.Abs(got[1].Top-(25+8+1.6+8+1.6)) > 1e-9 {
		t.Fatalf("unexpected placement %+v", got)
	}
}

func TestRendererWithFontOverrides(t *testing.T) {
	bold, err := fonts.Load(fonts.Bold)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "bold.ttf")
	if err := os.WriteFile(path, bold, 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := NewRendererWithOptions(Options{Fonts: map[layout.FontStyle]Resource{layout.FontRegular: {Path: path}}})
	if err != nil {
		t.Fatalf("NewRendererWithOptions failed: %v", err)
	}
	regular, err := r.LayoutLines("Sourdough Bread", 0, layout.FontRegular, fontSizePt, lineHeightPt)
	if err != nil {
		t.Fatal(err)
	}
	boldLines, err := r.LayoutLines("Sourdough Bread", 0, layout.FontBold, fontSizePt, lineHeightPt)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(regular[0].Width-boldLines[0].Width) > 1e-9 {
		t.Fatalf("regular face should use the override file: %g vs %g", regular[0].Width, boldLines[0].Width)
	}

	missing := filepath.Join(t.TempDir(), "missing.ttf")
	if _, err := NewRendererWithOptions(Options{Fonts: map[layout.FontStyle]Resource{layout.FontBold: {Path: missing}}}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing font error, got %v", err)
	}
	if _, err := NewRendererWithOptions(Options{Fonts: map[layout.FontStyle]Resource{layout.FontBold: {Bytes: []byte("not a font")}}}); err == nil {
		t.Fatalf("expected error for an invalid font file")
	}
}
