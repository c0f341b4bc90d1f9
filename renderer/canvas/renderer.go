package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/foodlabels/fonts"
	"github.com/ByLCY/foodlabels/layout"
	"github.com/ByLCY/foodlabels/renderer"
)

// wrapEpsilon 吸收 pt↔mm 往返换算带来的浮点误差。
const wrapEpsilon = 1e-9

// Renderer draws layout results via github.com/tdewolff/canvas.
// 布局层使用 pt，canvas 使用 mm，所有换算都在本包内完成。
type Renderer struct {
	// injected resources
	fontBlobs map[layout.FontStyle][]byte

	fontMu sync.Mutex
	family *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	Fonts map[layout.FontStyle]Resource // 覆盖内置字体，未提供的字重使用内置字体
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer using the built-in fonts.
func NewRenderer() *Renderer {
	return &Renderer{fontBlobs: map[layout.FontStyle][]byte{}}
}

// NewRendererWithOptions creates a renderer with injected font resources.
// Font files are read and parsed up front, so a bad path or file is reported here.
func NewRendererWithOptions(opts Options) (*Renderer, error) {
	r := NewRenderer()
	for style, res := range opts.Fonts {
		data := res.Bytes
		if len(data) == 0 && res.Path != "" {
			b, err := os.ReadFile(res.Path)
			if err != nil {
				return nil, fmt.Errorf("读取字体 %s 失败: %w", res.Path, err)
			}
			data = b
		}
		if len(data) > 0 {
			r.fontBlobs[style] = data
		}
	}
	if len(r.fontBlobs) > 0 {
		if _, err := r.ensureFontFamily(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Render renders the result into a single-page PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Cells) == 0 {
		return nil, fmt.Errorf("缺少可渲染的标签")
	}
	if _, err := r.ensureFontFamily(); err != nil {
		return nil, err
	}

	geo := result.Geometry
	pageW, pageH := layout.PtToMM(geo.PageWidth), layout.PtToMM(geo.PageHeight)

	var buf bytes.Buffer
	writer := pdf.New(&buf, pageW, pageH, nil)
	r.applyMeta(writer, result.Meta)

	c := canvas.New(pageW, pageH)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	for _, cell := range result.Cells {
		if err := r.drawCell(ctx, cell); err != nil {
			return nil, fmt.Errorf("绘制标签 %d 失败: %w", cell.Index, err)
		}
	}
	c.RenderTo(writer)

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// LayoutLines 实现 layout.Typesetter 接口，使用贪心换行算法。
// 约定：width/fontSize/lineHeight 及返回值均为 pt；width <= 0 表示只按显式换行拆分。
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontStyle, fontSize, lineHeight float64) ([]layout.TextLine, error) {
	face, err := r.fontFace(font, fontSize, layout.ColorBlack)
	if err != nil {
		return nil, err
	}

	// 在贪心换行中，所有宽度比较与累计均使用 mm，最后统一换回 pt
	limit := 0.0
	if width > 0 {
		limit = layout.PtToMM(width)
	}
	lines := greedyWrapTokens(content, limit, face)

	textHeight := layout.MMToPt(face.Metrics().LineHeight)
	if textHeight <= 0 {
		textHeight = lineHeight
	}
	leading := math.Max(lineHeight-textHeight, 0)
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: "", Width: 0}}
	}
	for i := range lines {
		lines[i].Width = layout.MMToPt(lines[i].Width)
		lines[i].Height = textHeight
		if i == 0 {
			lines[i].GapBefore = 0
		} else {
			lines[i].GapBefore = leading
		}
	}
	return lines, nil
}

func (r *Renderer) drawCell(ctx *canvas.Context, cell layout.Cell) error {
	// 外框（裁切线）
	r.drawFrame(ctx, cell.Frame)

	// 素食标记的圆形背景先于文字绘制
	if cell.Vegan != nil {
		r.drawBadge(ctx, cell.Frame, *cell.Vegan)
	}

	for _, tb := range cell.Texts() {
		if err := r.drawTextBox(ctx, cell.Frame, tb); err != nil {
			return err
		}
	}
	return nil
}

// drawFrame 绘制点线外框，描边向内收半个线宽以保持在单元内。
func (r *Renderer) drawFrame(ctx *canvas.Context, rc layout.Rect) {
	w := rc.StrokeWidth
	if w <= 0 {
		return
	}
	half := w / 2
	dashes := make([]float64, len(rc.Dash))
	for i, d := range rc.Dash {
		dashes[i] = layout.PtToMM(d)
	}
	ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeColor(colorFromLayout(rc.StrokeColor))
	ctx.SetStrokeWidth(layout.PtToMM(w))
	ctx.SetDashes(0, dashes...)
	ctx.DrawPath(
		layout.PtToMM(rc.X+half),
		layout.PtToMM(rc.Y+half),
		canvas.Rectangle(layout.PtToMM(rc.Width-w), layout.PtToMM(rc.Height-w)),
	)
	ctx.SetDashes(0)
}

// drawBadge 绘制实心圆，Circle 以原点为圆心。
func (r *Renderer) drawBadge(ctx *canvas.Context, frame layout.Rect, b layout.Badge) {
	ctx.SetFillColor(colorFromLayout(b.Fill))
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeWidth(0)
	ctx.DrawPath(layout.PtToMM(frame.X+b.CX), layout.PtToMM(frame.Y+b.CY), canvas.Circle(layout.PtToMM(b.R)))
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, frame layout.Rect, tb layout.TextBox) error {
	lines := placeLines(frame, tb)
	if len(lines) == 0 {
		return nil
	}
	face, err := r.fontFace(tb.Font, tb.FontSize, tb.Color)
	if err != nil {
		return err
	}

	// 处理水平对齐：left（默认）/center/right。坐标先在 pt 中计算。
	x := frame.X + tb.X
	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(tb.Align) {
	case "center":
		textAlign = canvas.Center
		anchorX = x + tb.Width/2
	case "right", "end":
		textAlign = canvas.Right
		anchorX = x + tb.Width
	default:
		textAlign = canvas.Left
		anchorX = x
	}

	ascent := face.Metrics().Ascent // mm
	for _, line := range lines {
		// 基线位置：行顶部加上字体上升部
		baseline := layout.PtToMM(line.Top) + ascent
		ctx.DrawText(layout.PtToMM(anchorX), baseline, canvas.NewTextLine(face, line.Content, textAlign))
	}
	return nil
}

// placedLine 是一行待绘制文本在页面上的位置（pt）。
type placedLine struct {
	Content string
	Top     float64
	Height  float64
}

// placeLines 按 GapBefore/Height 逐行推进，只返回有内容的行；没有行的文本块不绘制任何东西。
func placeLines(frame layout.Rect, tb layout.TextBox) []placedLine {
	out := make([]placedLine, 0, len(tb.Lines))
	cursorY := frame.Y + tb.Y
	for _, line := range tb.Lines {
		cursorY += line.GapBefore
		h := line.Height
		if h <= 0 {
			h = tb.LineHeight
		}
		if line.Content != "" {
			out = append(out, placedLine{Content: line.Content, Top: cursorY, Height: h})
		}
		cursorY += h
	}
	return out
}

// fontFace 以 pt 字号创建字体面。
func (r *Renderer) fontFace(font layout.FontStyle, sizePt float64, col layout.Color) (*canvas.FontFace, error) {
	family, err := r.ensureFontFamily()
	if err != nil {
		return nil, err
	}
	return family.Face(sizePt, colorFromLayout(col), canvasStyle(font), canvas.FontNormal), nil
}

// ensureFontFamily 懒加载字体族，常规与粗体装入同一个 family。
func (r *Renderer) ensureFontFamily() (*canvas.FontFamily, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if r.family != nil {
		return r.family, nil
	}
	family := canvas.NewFontFamily("foodlabels")
	for _, style := range []layout.FontStyle{layout.FontRegular, layout.FontBold} {
		data, err := r.loadFontBytes(style)
		if err != nil {
			return nil, err
		}
		if err := family.LoadFont(data, 0, canvasStyle(style)); err != nil {
			return nil, fmt.Errorf("加载字体 %s 失败: %w", style, err)
		}
	}
	r.family = family
	return family, nil
}

func (r *Renderer) loadFontBytes(style layout.FontStyle) ([]byte, error) {
	if blob, ok := r.fontBlobs[style]; ok {
		return blob, nil
	}
	switch style {
	case layout.FontBold:
		return fonts.Load("embed:" + fonts.Bold)
	default:
		return fonts.Load("embed:" + fonts.Regular)
	}
}

func canvasStyle(style layout.FontStyle) canvas.FontStyle {
	if style == layout.FontBold {
		return canvas.FontBold
	}
	return canvas.FontRegular
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// greedyWrapTokens 优先在空白处分割，超过限制时在词内拆分。limit 为 mm，<= 0 表示不限宽。
func greedyWrapTokens(content string, limit float64, face *canvas.FontFace) []layout.TextLine {
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	tokens := tokenizeContent(content)
	var lines []layout.TextLine
	var builder strings.Builder
	currentWidth := 0.0

	emit := func(force bool) {
		if builder.Len() == 0 {
			if force {
				lines = append(lines, layout.TextLine{Content: "", Width: 0})
			}
			return
		}
		lineStr := strings.TrimRightFunc(builder.String(), unicode.IsSpace)
		lines = append(lines, layout.TextLine{
			Content: lineStr,
			Width:   face.TextWidth(lineStr),
		})
		builder.Reset()
		currentWidth = 0
	}

	appendToken := func(token string) {
		builder.WriteString(token)
		currentWidth += face.TextWidth(token)
	}

	for _, token := range tokens {
		if token == "\n" {
			emit(true)
			continue
		}
		isSpace := strings.TrimSpace(token) == ""
		if isSpace {
			// 行首空白丢弃；行尾空白允许超出，换行时被裁掉
			if builder.Len() > 0 {
				appendToken(token)
			}
			continue
		}

		tokenWidth := face.TextWidth(token)
		if currentWidth > 0 && !fitsWithin(currentWidth+tokenWidth, limit) {
			emit(false)
		}
		if fitsWithin(tokenWidth, limit) {
			appendToken(token)
			continue
		}

		for _, chunk := range splitTokenByWidth(token, limit, face) {
			chunkWidth := face.TextWidth(chunk)
			if currentWidth > 0 && !fitsWithin(currentWidth+chunkWidth, limit) {
				emit(false)
			}
			appendToken(chunk)
		}
	}

	emit(true)
	return lines
}

func fitsWithin(w, limit float64) bool { return w <= limit+wrapEpsilon }

func tokenizeContent(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func splitTokenByWidth(token string, limit float64, face *canvas.FontFace) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var current []rune
	for _, r := range token {
		current = append(current, r)
		if len(current) > 1 && !fitsWithin(face.TextWidth(string(current)), limit) {
			parts = append(parts, string(current[:len(current)-1]))
			current = []rune{r}
		}
	}
	if len(current) > 0 {
		parts = append(parts, string(current))
	}
	return parts
}
