package renderer

import "github.com/ByLCY/foodlabels/layout"

// Renderer 将布局结果输出为最终文件，例如 PDF。
// Render 返回生成的二进制数据（例如 PDF 字节切片）以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Engine 同时提供排版测量与渲染，canvas 渲染器即是一个 Engine。
type Engine interface {
	Renderer
	layout.Typesetter
}
