package layout

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ByLCY/foodlabels/label"
)

const (
	titleRowSpacing    = 4.0 // 产品名行下方间距
	blockSpacing       = 2.0
	instructionsMargin = 2.0 // 使用说明正文上方间距
	sideGap            = 6.0 // 同一行左右两段内容之间的最小间隔
	badgeRadius        = 10.0
	badgeOffset        = 8.0
	fitEpsilon         = 1e-9
)

// 标签上固定的文字。
const (
	DueDatePrefix       = "Best before: "
	CurrencySuffix      = " kr"
	HeadingIngredients  = "Ingredients:"
	HeadingAllergens    = "Allergens:"
	HeadingInstructions = "Instructions:"
	VeganMark           = "V"
	Ellipsis            = "…"
)

// Build 根据标签记录与密度档位生成整页布局：16 个内容完全相同的标签，按列自上而下排列。
// 记录不完整时照常排版（空字段渲染为空行），是否允许导出由调用方决定。
func Build(rec label.Record, density label.Density, opts BuildOptions) (*Result, error) {
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}
	scale, err := ScaleFor(density)
	if err != nil {
		return nil, err
	}

	dueText := ""
	if present(rec.DueDate) {
		formatted, err := label.FormatDueDate(rec.DueDate)
		if err != nil {
			return nil, fmt.Errorf("layout: 保质期无法解析: %w", err)
		}
		dueText = DueDatePrefix + formatted
	}

	geo := DefaultGeometry()
	c := &composer{ts: opts.Typesetter, geo: geo, scale: scale}
	tmpl, err := c.compose(rec, dueText)
	if err != nil {
		return nil, err
	}

	// 每个单元都是模板的深拷贝，单元之间不共享任何切片或指针。
	cells := make([]Cell, geo.CellCount())
	for i := range cells {
		cell := tmpl.clone()
		cell.Index = i
		cell.Column, cell.Row = geo.Position(i)
		cell.Frame = geo.Frame(i)
		cells[i] = cell
	}

	resolved := density.Resolve()
	return &Result{
		Geometry: geo,
		Density:  resolved,
		Scale:    scale,
		Cells:    cells,
		Meta:     resolveMeta(opts.Meta, rec, resolved),
	}, nil
}

type composer struct {
	ts    Typesetter
	geo   Geometry
	scale Scale
}

// compose 排出单个标签的内容（单元内坐标），各内容块依次向下排列，缺省块不留空隙。
func (c *composer) compose(rec label.Record, dueText string) (Cell, error) {
	g, s := c.geo, c.scale
	inset := g.Inset()
	width := g.ContentWidth()
	right := inset + width
	y := inset

	var cell Cell

	// (a) 产品名 + 右对齐的保质期
	nameWidth := width
	if dueText != "" {
		dw, err := c.measure(dueText, FontRegular, s.Small)
		if err != nil {
			return Cell{}, err
		}
		dw = math.Min(dw, width/2)
		due, err := c.text(dueText, right-dw, y, dw, FontRegular, s.Small, ColorBlack, "right")
		if err != nil {
			return Cell{}, err
		}
		cell.DueDate = &due
		nameWidth = width - dw - sideGap
	}
	title, err := c.text(rec.ProductName, inset, y, nameWidth, FontBold, s.Title, ColorBlack, "")
	if err != nil {
		return Cell{}, err
	}
	rowHeight := title.Height
	if cell.DueDate != nil {
		rowHeight = math.Max(rowHeight, cell.DueDate.Height)
		cell.DueDate.Y = y + (rowHeight-cell.DueDate.Height)/2
	}
	title.Y = y + (rowHeight-title.Height)/2
	cell.Title = title
	y += rowHeight + titleRowSpacing

	// (b) 描述
	if present(rec.Description) {
		desc, err := c.text(rec.Description, inset, y, width, FontRegular, s.Body, ColorBlack, "")
		if err != nil {
			return Cell{}, err
		}
		cell.Description = &desc
		y = desc.Bottom() + blockSpacing
	}

	// (c) 左侧配料，右侧价格
	priceText := rec.Price + CurrencySuffix
	pw, err := c.measure(priceText, FontBold, s.Body)
	if err != nil {
		return Cell{}, err
	}
	pw = math.Min(pw, width/3)
	price, err := c.text(priceText, right-pw, y, pw, FontBold, s.Body, ColorBlack, "right")
	if err != nil {
		return Cell{}, err
	}
	ingredients, err := c.section(HeadingIngredients, rec.Ingredients, inset, y, width-pw-sideGap, FontRegular, s.Body, ColorBlack, 0)
	if err != nil {
		return Cell{}, err
	}
	cell.Price = price
	cell.Ingredients = ingredients
	y = math.Max(ingredients.Bottom(), price.Bottom()) + blockSpacing

	// (d) 过敏原（醒目红色）
	if present(rec.Allergens) {
		allergens, err := c.section(HeadingAllergens, rec.Allergens, inset, y, width, FontBold, s.Body, ColorAllergen, 0)
		if err != nil {
			return Cell{}, err
		}
		cell.Allergens = &allergens
		y = allergens.Bottom()
	}

	// (e) 使用说明，始终存在
	instructions, err := c.section(HeadingInstructions, rec.Instructions, inset, y, width, FontRegular, s.Small, ColorBlack, instructionsMargin)
	if err != nil {
		return Cell{}, err
	}
	cell.Instructions = instructions

	// (f) 右下角素食标记
	if rec.IsVegan {
		badge, err := c.badge()
		if err != nil {
			return Cell{}, err
		}
		cell.Vegan = badge
	}

	overflow, err := c.fit(&cell)
	if err != nil {
		return Cell{}, err
	}
	cell.Overflow = overflow
	return cell, nil
}

func (c *composer) section(heading, body string, x, y, width float64, font FontStyle, size float64, col Color, gap float64) (Section, error) {
	head, err := c.text(heading, x, y, width, FontBold, c.scale.Subtitle, ColorBlack, "")
	if err != nil {
		return Section{}, err
	}
	text, err := c.text(body, x, head.Bottom()+gap, width, font, size, col, "")
	if err != nil {
		return Section{}, err
	}
	return Section{Heading: head, Body: text}, nil
}

func (c *composer) badge() (*Badge, error) {
	g := c.geo
	r := badgeRadius
	cx := g.ColumnWidth - g.Border - badgeOffset - r
	cy := g.CellHeight - g.Border - badgeOffset - r
	mark, err := c.text(VeganMark, cx-r, 0, 2*r, FontBold, c.scale.Small, ColorWhite, "center")
	if err != nil {
		return nil, err
	}
	mark.Y = cy - mark.Height/2
	return &Badge{CX: cx, CY: cy, R: r, Fill: ColorVeganBadge, Label: mark}, nil
}

// text 调用排版后端折行并生成文本块；Height == Σ(GapBefore + Height)。
func (c *composer) text(content string, x, y, width float64, font FontStyle, size float64, col Color, align string) (TextBox, error) {
	lh := lineHeight(size)
	lines, err := c.ts.LayoutLines(content, width, font, size, lh)
	if err != nil {
		return TextBox{}, fmt.Errorf("layout: 文本排版失败: %w", err)
	}
	lines = normalizeLines(lines, lh)
	return TextBox{
		Content:    content,
		X:          x,
		Y:          y,
		Width:      width,
		Height:     linesHeight(lines),
		FontSize:   size,
		LineHeight: lh,
		Font:       font,
		Color:      col,
		Align:      align,
		Lines:      lines,
	}, nil
}

// measure 返回不折行时最宽一行的宽度。
func (c *composer) measure(content string, font FontStyle, size float64) (float64, error) {
	lines, err := c.ts.LayoutLines(content, 0, font, size, lineHeight(size))
	if err != nil {
		return 0, fmt.Errorf("layout: 测量文本失败: %w", err)
	}
	w := 0.0
	for _, ln := range lines {
		w = math.Max(w, ln.Width)
	}
	return w, nil
}

// fit 截掉超出内容区底部的文本行，保证文字不会画出单元；被截断处补省略号。
// 某个块恰好放下而其后的块被整块丢弃时，省略号落在最后一个可见正文块的末行。
func (c *composer) fit(cell *Cell) (bool, error) {
	limit := c.geo.CellHeight - c.geo.Inset()
	flow := []*TextBox{&cell.Title}
	if cell.Description != nil {
		flow = append(flow, cell.Description)
	}
	flow = append(flow, &cell.Ingredients.Heading, &cell.Ingredients.Body)
	if cell.Allergens != nil {
		flow = append(flow, &cell.Allergens.Heading, &cell.Allergens.Body)
	}
	flow = append(flow, &cell.Instructions.Heading, &cell.Instructions.Body)

	// 右侧附属文本（保质期、价格）只截断，不参与省略号的落点选择
	side := []*TextBox{&cell.Price}
	if cell.DueDate != nil {
		side = append(side, cell.DueDate)
	}

	clipped, marked := false, false
	for _, tb := range flow {
		cut, err := c.clip(tb, limit)
		if err != nil {
			return false, err
		}
		if cut {
			clipped = true
			marked = marked || len(tb.Lines) > 0
		}
	}
	for _, tb := range side {
		cut, err := c.clip(tb, limit)
		if err != nil {
			return false, err
		}
		clipped = clipped || cut
	}
	if !clipped || marked {
		return clipped, nil
	}
	if last := lastVisible(flow); last != nil {
		if err := c.appendEllipsis(last); err != nil {
			return false, err
		}
	}
	return true, nil
}

// clip 丢弃底部越界的行。整块越界时清空内容并把块收拢到 limit 处，渲染端不会再绘制它。
func (c *composer) clip(tb *TextBox, limit float64) (bool, error) {
	if tb.Bottom() <= limit+fitEpsilon {
		return false, nil
	}
	cursor := tb.Y
	kept := 0
	for i, ln := range tb.Lines {
		bottom := cursor + ln.GapBefore + ln.Height
		if bottom > limit+fitEpsilon {
			break
		}
		cursor = bottom
		kept = i + 1
	}
	if kept == 0 {
		tb.Content = ""
		tb.Lines = []TextLine{}
		tb.Height = 0
		tb.Y = math.Min(tb.Y, limit)
		return true, nil
	}
	tb.Lines = tb.Lines[:kept]
	tb.Height = linesHeight(tb.Lines)
	if err := c.appendEllipsis(tb); err != nil {
		return false, err
	}
	return true, nil
}

func (c *composer) appendEllipsis(tb *TextBox) error {
	if len(tb.Lines) == 0 {
		return nil
	}
	last := &tb.Lines[len(tb.Lines)-1]
	if strings.HasSuffix(last.Content, Ellipsis) {
		return nil
	}
	content, w, err := c.ellipsize(last.Content, tb.Width, tb.Font, tb.FontSize)
	if err != nil {
		return err
	}
	last.Content = content
	last.Width = w
	return nil
}

// lastVisible 返回底部最低的仍有内容的块，相同时取靠后的。
func lastVisible(boxes []*TextBox) *TextBox {
	var last *TextBox
	for _, tb := range boxes {
		if len(tb.Lines) == 0 {
			continue
		}
		if last == nil || tb.Bottom() >= last.Bottom()-fitEpsilon {
			last = tb
		}
	}
	return last
}

// ellipsize 在行尾追加省略号，必要时逐字删除以保持行宽不超过 width。
func (c *composer) ellipsize(line string, width float64, font FontStyle, size float64) (string, float64, error) {
	runes := []rune(strings.TrimRightFunc(line, unicode.IsSpace))
	for {
		candidate := string(runes) + Ellipsis
		w, err := c.measure(candidate, font, size)
		if err != nil {
			return "", 0, err
		}
		if width <= 0 || w <= width+fitEpsilon || len(runes) == 0 {
			return candidate, w, nil
		}
		runes = runes[:len(runes)-1]
	}
}

// normalizeLines 回填缺失的行高，并让相邻行之间的基线间距等于 lineHeight。
func normalizeLines(lines []TextLine, lh float64) []TextLine {
	if len(lines) == 0 {
		return []TextLine{{Content: "", Width: 0, Height: lh}}
	}
	out := make([]TextLine, len(lines))
	copy(out, lines)
	for i := range out {
		if out[i].Height <= 0 {
			out[i].Height = lh
		}
		if i == 0 {
			out[i].GapBefore = 0
			continue
		}
		if out[i].GapBefore <= 0 && out[i].Height < lh {
			out[i].GapBefore = lh - out[i].Height
		}
	}
	return out
}

func linesHeight(lines []TextLine) float64 {
	total := 0.0
	for _, ln := range lines {
		total += ln.GapBefore + ln.Height
	}
	return total
}

func present(s string) bool { return strings.TrimSpace(s) != "" }

func resolveMeta(m DocumentMeta, rec label.Record, d label.Density) DocumentMeta {
	if m.Title == "" {
		m.Title = "Food labels"
		if name := strings.TrimSpace(rec.ProductName); name != "" {
			m.Title += ": " + name
		}
	}
	if m.Subject == "" {
		m.Subject = fmt.Sprintf("%d labels, %s density", CellCount, d)
	}
	if m.Creator == "" {
		m.Creator = "foodlabels"
	}
	if len(m.Keywords) == 0 {
		m.Keywords = []string{"food label", "ingredients", "allergens"}
	} else {
		m.Keywords = append([]string(nil), m.Keywords...)
	}
	return m
}

func (tb TextBox) clone() TextBox {
	out := tb
	if tb.Lines != nil {
		out.Lines = make([]TextLine, len(tb.Lines))
		copy(out.Lines, tb.Lines)
	}
	return out
}

func (s Section) clone() Section {
	return Section{Heading: s.Heading.clone(), Body: s.Body.clone()}
}

func (c Cell) clone() Cell {
	out := c
	if c.Frame.Dash != nil {
		out.Frame.Dash = append([]float64(nil), c.Frame.Dash...)
	}
	out.Title = c.Title.clone()
	if c.DueDate != nil {
		due := c.DueDate.clone()
		out.DueDate = &due
	}
	if c.Description != nil {
		desc := c.Description.clone()
		out.Description = &desc
	}
	out.Ingredients = c.Ingredients.clone()
	out.Price = c.Price.clone()
	if c.Allergens != nil {
		allergens := c.Allergens.clone()
		out.Allergens = &allergens
	}
	out.Instructions = c.Instructions.clone()
	if c.Vegan != nil {
		badge := *c.Vegan
		badge.Label = c.Vegan.Label.clone()
		out.Vegan = &badge
	}
	return out
}
