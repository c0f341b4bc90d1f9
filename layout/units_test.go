package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/foodlabels/label"
)

const eps = 1e-6

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度（允许极小的浮点误差）。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		mm := PtToMM(pt)
		back := MMToPt(mm)
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt mm=%g back=%g diff=%g", pt, mm, back, diff)
		}
	}
	if got := PtToMM(72); math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("72pt 转 mm 期望 25.4，实际 %g", got)
	}
}

func TestGeometryTilesThePage(t *testing.T) {
	g := DefaultGeometry()
	width := 2*(g.MarginX+g.ColumnInset) + 2*g.ColumnWidth + g.Gutter
	if math.Abs(width-g.PageWidth) > eps {
		t.Fatalf("列宽之和 %g 与页面宽度 %g 不一致", width, g.PageWidth)
	}
	height := 2*g.MarginY + float64(g.Rows)*g.CellHeight
	if math.Abs(height-g.PageHeight) > eps {
		t.Fatalf("行高之和 %g 与页面高度 %g 不一致", height, g.PageHeight)
	}
	if g.CellCount() != CellCount {
		t.Fatalf("cell count = %d", g.CellCount())
	}
	if math.Abs(g.ContentWidth()-(g.ColumnWidth-18)) > eps {
		t.Fatalf("content width = %g", g.ContentWidth())
	}
}

func TestGeometryFramesDoNotOverlap(t *testing.T) {
	g := DefaultGeometry()
	frames := make([]Rect, g.CellCount())
	for i := range frames {
		frames[i] = g.Frame(i)
		f := frames[i]
		if f.X < 0 || f.Y < 0 || f.X+f.Width > g.PageWidth+eps || f.Y+f.Height > g.PageHeight+eps {
			t.Fatalf("frame %d 超出页面: %+v", i, f)
		}
	}
	for i := range frames {
		for j := i + 1; j < len(frames); j++ {
			a, b := frames[i], frames[j]
			overlapX := a.X+eps < b.X+b.Width && b.X+eps < a.X+a.Width
			overlapY := a.Y+eps < b.Y+b.Height && b.Y+eps < a.Y+a.Height
			if overlapX && overlapY {
				t.Fatalf("frame %d 与 frame %d 重叠: %+v %+v", i, j, a, b)
			}
		}
	}
}

func TestScalesStrictlyDecrease(t *testing.T) {
	var prev *Scale
	for _, d := range label.Densities {
		s, err := ScaleFor(d)
		if err != nil {
			t.Fatalf("ScaleFor(%q): %v", d, err)
		}
		sizes := s.Sizes()
		for i := 1; i < len(sizes); i++ {
			if sizes[i] >= sizes[i-1] {
				t.Fatalf("%s: 字号未严格递减 %v", d, sizes)
			}
		}
		if prev != nil {
			ps := prev.Sizes()
			for i := range sizes {
				if sizes[i] >= ps[i] {
					t.Fatalf("%s: 第 %d 级字号 %g 未小于上一档 %g", d, i, sizes[i], ps[i])
				}
			}
		}
		cur := s
		prev = &cur
	}
}

func TestScaleForRejectsUnknownDensity(t *testing.T) {
	if _, err := ScaleFor("large"); !errors.Is(err, label.ErrInvalidDensity) {
		t.Fatalf("期望 ErrInvalidDensity，实际 %v", err)
	}
	s, err := ScaleFor("")
	if err != nil || s.Title != 11 {
		t.Fatalf("空密度应回落到 normal: %+v %v", s, err)
	}
}

func TestWriteDebugJSON(t *testing.T) {
	res := mustBuild(t, sourdough(), label.DensitySmall)
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteDebugJSON(res, path); err != nil {
		t.Fatalf("写出调试 JSON 失败: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Density string            `json:"density"`
		Cells   []json.RawMessage `json:"cells"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	if len(decoded.Cells) != CellCount {
		t.Fatalf("期望 %d 个 cell，实际 %d", CellCount, len(decoded.Cells))
	}

	var buf bytes.Buffer
	if err := EncodeDebug(&buf, nil); err != nil || buf.Len() != 0 {
		t.Fatalf("nil 结果应不输出内容")
	}
}
