package layout

import "github.com/ByLCY/foodlabels/label"

// 该文件定义标签页的布局结果，供布局计算、渲染与调试 JSON 共用。
// 所有长度单位均为 pt（1/72 英寸）。

// Result 保存一整张标签纸的几何信息与 16 个标签单元。
type Result struct {
	Geometry Geometry      `json:"geometry"`
	Density  label.Density `json:"density"`
	Scale    Scale         `json:"scale"`
	Cells    []Cell        `json:"cells"`
	Meta     DocumentMeta  `json:"meta"`
}

// Cell 是网格中的一个标签。Frame 使用页面坐标，其余内容块使用单元内坐标（原点为 Frame 左上角）。
// 可选内容块以 nil 表示缺省，缺省的块不占用任何高度。
type Cell struct {
	Index  int  `json:"index"`
	Column int  `json:"column"`
	Row    int  `json:"row"`
	Frame  Rect `json:"frame"`

	Title        TextBox  `json:"title"`
	DueDate      *TextBox `json:"dueDate,omitempty"`
	Description  *TextBox `json:"description,omitempty"`
	Ingredients  Section  `json:"ingredients"`
	Price        TextBox  `json:"price"`
	Allergens    *Section `json:"allergens,omitempty"`
	Instructions Section  `json:"instructions"`
	Vegan        *Badge   `json:"vegan,omitempty"`

	// Overflow 表示有文本行因超出单元高度被截断。
	Overflow bool `json:"overflow,omitempty"`
}

// Section 是 “标题 + 正文” 形式的内容块（配料、过敏原、使用说明）。
type Section struct {
	Heading TextBox `json:"heading"`
	Body    TextBox `json:"body"`
}

// Top 返回块顶部的 y 坐标。
func (s Section) Top() float64 { return s.Heading.Y }

// Bottom 返回块底部的 y 坐标。
func (s Section) Bottom() float64 { return s.Body.Y + s.Body.Height }

// Badge 是右下角的圆形素食标记。
type Badge struct {
	CX    float64 `json:"cx"`
	CY    float64 `json:"cy"`
	R     float64 `json:"r"`
	Fill  Color   `json:"fill"`
	Label TextBox `json:"label"`
}

// FontStyle 选择内置字体的字重。
type FontStyle string

const (
	FontRegular FontStyle = "regular"
	FontBold    FontStyle = "bold"
)

// TextBox 表示一个已经排好坐标的文本块。
type TextBox struct {
	Content    string     `json:"content"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	FontSize   float64    `json:"fontSize"`
	LineHeight float64    `json:"lineHeight"`
	Font       FontStyle  `json:"font"`
	Color      Color      `json:"color"`
	Align      string     `json:"align,omitempty"` // left（默认）/center/right
	Lines      []TextLine `json:"lines"`
}

// Bottom 返回文本块底部的 y 坐标。
func (tb TextBox) Bottom() float64 { return tb.Y + tb.Height }

// TextLine 表示排版后的一行文本内容及其宽高。
type TextLine struct {
	Content   string  `json:"content"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
}

// Rect 表示单元外框。
type Rect struct {
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
	StrokeColor Color     `json:"strokeColor"`
	StrokeWidth float64   `json:"strokeWidth"`
	Dash        []float64 `json:"dash,omitempty"` // 虚线模式，为空表示实线
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	ColorBlack       = Color{R: 0, G: 0, B: 0}
	ColorWhite       = Color{R: 255, G: 255, B: 255}
	ColorAllergen    = Color{R: 0xd0, G: 0x00, B: 0x00}
	ColorVeganBadge  = Color{R: 0x2f, G: 0x85, B: 0x5a}
	ColorCellOutline = ColorBlack
)

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

// Block 描述单元内一个内容块的纵向占用区间，用于检查块的顺序与间距。
type Block struct {
	Kind   string  `json:"kind"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Block kinds, in vertical order.
const (
	BlockTitle        = "title"
	BlockDescription  = "description"
	BlockIngredients  = "ingredients"
	BlockAllergens    = "allergens"
	BlockInstructions = "instructions"
)

// Blocks 按从上到下的顺序列出单元中存在的内容块。
func (c Cell) Blocks() []Block {
	titleBottom := c.Title.Bottom()
	if c.DueDate != nil && c.DueDate.Bottom() > titleBottom {
		titleBottom = c.DueDate.Bottom()
	}
	titleTop := c.Title.Y
	if c.DueDate != nil && c.DueDate.Y < titleTop {
		titleTop = c.DueDate.Y
	}
	blocks := []Block{{Kind: BlockTitle, Top: titleTop, Bottom: titleBottom}}
	if c.Description != nil {
		blocks = append(blocks, Block{Kind: BlockDescription, Top: c.Description.Y, Bottom: c.Description.Bottom()})
	}
	ingBottom := c.Ingredients.Bottom()
	if c.Price.Bottom() > ingBottom {
		ingBottom = c.Price.Bottom()
	}
	blocks = append(blocks, Block{Kind: BlockIngredients, Top: c.Ingredients.Top(), Bottom: ingBottom})
	if c.Allergens != nil {
		blocks = append(blocks, Block{Kind: BlockAllergens, Top: c.Allergens.Top(), Bottom: c.Allergens.Bottom()})
	}
	blocks = append(blocks, Block{Kind: BlockInstructions, Top: c.Instructions.Top(), Bottom: c.Instructions.Bottom()})
	return blocks
}

// Texts 按绘制顺序返回单元内所有文本块（单元内坐标）。
func (c Cell) Texts() []TextBox {
	out := []TextBox{c.Title}
	if c.DueDate != nil {
		out = append(out, *c.DueDate)
	}
	if c.Description != nil {
		out = append(out, *c.Description)
	}
	out = append(out, c.Ingredients.Heading, c.Ingredients.Body, c.Price)
	if c.Allergens != nil {
		out = append(out, c.Allergens.Heading, c.Allergens.Body)
	}
	out = append(out, c.Instructions.Heading, c.Instructions.Body)
	if c.Vegan != nil {
		out = append(out, c.Vegan.Label)
	}
	return out
}
