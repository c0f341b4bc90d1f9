package layout

// BuildOptions 配置布局阶段所需的依赖，例如排版后端。
type BuildOptions struct {
	Typesetter Typesetter
	Meta       DocumentMeta // 为空的字段由 Build 填入默认值
}

// Typesetter 负责根据字体与宽度约束将文本拆成可绘制的行。
// 所有长度均为 pt；width <= 0 表示不限宽度（仅按显式换行拆分），可用于测量单行宽度。
type Typesetter interface {
	LayoutLines(content string, width float64, font FontStyle, fontSize float64, lineHeight float64) ([]TextLine, error)
}
