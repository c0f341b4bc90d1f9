package layout

// A4 纵向页面与网格常量（单位 pt）。
// 上下边距 1.2cm ≈ 34pt，左右边距 0.6cm ≈ 17pt，两列之间间隔 0.3cm ≈ 8.5pt。
const (
	A4Width  = 595.28
	A4Height = 841.89

	MarginY     = 34.0
	MarginX     = 17.0
	ColumnInset = 4.25 // 每列左右各留出的距离，两列之间合计为一个 gutter

	Columns       = 2
	RowsPerColumn = 8
	CellCount     = Columns * RowsPerColumn

	CellBorder  = 1.0
	CellPadding = 8.0
)

// cellDash 是单元外框的点线模式（裁切线）。
var cellDash = []float64{1, 1}

// Geometry 描述整页网格。派生字段由 DefaultGeometry 计算一次。
type Geometry struct {
	PageWidth   float64 `json:"pageWidth"`
	PageHeight  float64 `json:"pageHeight"`
	MarginX     float64 `json:"marginX"`
	MarginY     float64 `json:"marginY"`
	ColumnInset float64 `json:"columnInset"`
	Columns     int     `json:"columns"`
	Rows        int     `json:"rows"`
	Border      float64 `json:"border"`
	Padding     float64 `json:"padding"`

	ColumnWidth float64 `json:"columnWidth"`
	Gutter      float64 `json:"gutter"`
	CellHeight  float64 `json:"cellHeight"`
}

// DefaultGeometry 返回固定的 A4 2×8 网格。
func DefaultGeometry() Geometry {
	g := Geometry{
		PageWidth:   A4Width,
		PageHeight:  A4Height,
		MarginX:     MarginX,
		MarginY:     MarginY,
		ColumnInset: ColumnInset,
		Columns:     Columns,
		Rows:        RowsPerColumn,
		Border:      CellBorder,
		Padding:     CellPadding,
	}
	cols := float64(g.Columns)
	g.ColumnWidth = (g.PageWidth - 2*g.MarginX - cols*2*g.ColumnInset) / cols
	g.Gutter = 2 * g.ColumnInset
	// 行高 = (页面高度 - 上下边距) / 行数，8 行恰好铺满可打印区域
	g.CellHeight = (g.PageHeight - 2*g.MarginY) / float64(g.Rows)
	return g
}

// CellCount 返回网格中的单元数量。
func (g Geometry) CellCount() int { return g.Columns * g.Rows }

// Inset 是外框到内容区的距离（边框 + 内边距）。
func (g Geometry) Inset() float64 { return g.Border + g.Padding }

// ContentWidth 是单元内容区宽度。
func (g Geometry) ContentWidth() float64 { return g.ColumnWidth - 2*g.Inset() }

// ContentHeight 是单元内容区高度。
func (g Geometry) ContentHeight() float64 { return g.CellHeight - 2*g.Inset() }

// Position 将单元序号映射到列与行：0..Rows-1 属于第一列，依此类推，列内自上而下。
func (g Geometry) Position(index int) (column, row int) {
	return index / g.Rows, index % g.Rows
}

// Frame 返回单元在页面坐标中的外框。
func (g Geometry) Frame(index int) Rect {
	col, row := g.Position(index)
	x := g.MarginX + g.ColumnInset + float64(col)*(g.ColumnWidth+g.Gutter)
	y := g.MarginY + float64(row)*g.CellHeight
	return Rect{
		X:           x,
		Y:           y,
		Width:       g.ColumnWidth,
		Height:      g.CellHeight,
		StrokeColor: ColorCellOutline,
		StrokeWidth: g.Border,
		Dash:        append([]float64(nil), cellDash...),
	}
}
