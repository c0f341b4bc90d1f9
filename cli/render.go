package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/foodlabels/binding"
	"github.com/ByLCY/foodlabels/label"
	"github.com/ByLCY/foodlabels/layout"
	"github.com/ByLCY/foodlabels/source"
)

// DefaultFileName is the export file name when neither --out nor the config sets one.
const DefaultFileName = "food-labels.pdf"

// renderOpts holds the flags shared by render, check and form.
type renderOpts struct {
	output  string // PDF 输出路径
	density string // 覆盖记录中的密度
	data    string // 绑定数据：JSON 文本，或 @path 读取文件
	debug   string // 布局调试 JSON 输出路径
	force   bool   // 记录未就绪时仍然导出
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a label file (.label, .toml, .yaml, .json) to a PDF sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfig(cmd, &opts)
			form, err := c.loadForm(args[0], opts)
			if err != nil {
				return err
			}
			return c.export(cmd.Context(), cmd.OutOrStdout(), form, opts)
		},
	}
	addRenderFlags(cmd, &opts)
	cmd.Flags().BoolVar(&opts.force, "force", false, "记录未就绪时仍然导出")
	return cmd
}

func (c *CLI) checkCommand() *cobra.Command {
	var opts renderOpts
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Report whether a label file is ready for export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfig(cmd, &opts)
			form, err := c.loadForm(args[0], opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printStatus(out, form.Ready())
			printFieldErrors(out, form.Errors())
			if !form.Ready() {
				return ErrNotReady
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.data, "data", "", "绑定到 ${...} 占位符的 JSON 数据（或 @文件）")
	return cmd
}

func addRenderFlags(cmd *cobra.Command, opts *renderOpts) {
	cmd.Flags().StringVarP(&opts.output, "out", "o", DefaultFileName, "PDF 输出路径")
	cmd.Flags().StringVar(&opts.density, "density", "", "字号密度: normal, small, smallest")
	cmd.Flags().StringVar(&opts.data, "data", "", "绑定到 ${...} 占位符的 JSON 数据（或 @文件）")
	cmd.Flags().StringVar(&opts.debug, "debug", "", "布局调试 JSON 输出路径")
}

// applyConfig 用配置文件填充未显式给出的参数。
func (c *CLI) applyConfig(cmd *cobra.Command, opts *renderOpts) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if !changed("out") && c.cfg.Output != "" {
		opts.output = c.cfg.Output
	}
	if !changed("debug") && c.cfg.Debug != "" {
		opts.debug = c.cfg.Debug
	}
	if !changed("data") && c.cfg.Data != "" {
		opts.data = "@" + c.cfg.Data
	}
	if opts.output == "" {
		opts.output = DefaultFileName
	}
}

// loadForm 读取标签文件并生成表单：配置中的密度作为初始值，文件内容覆盖它，--density 最后生效。
func (c *CLI) loadForm(path string, opts renderOpts) (*label.Form, error) {
	data, err := loadData(opts.data)
	if err != nil {
		return nil, err
	}
	edits, err := source.Load(path, data)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded label", "path", path, "edits", len(edits))

	base := label.Empty()
	base.Density = c.cfg.Density.Resolve()
	form := label.NewFormFrom(base)
	if err := form.ApplyAll(edits); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if opts.density != "" {
		d, err := label.ParseDensity(opts.density)
		if err != nil {
			return nil, err
		}
		if err := form.SetDensity(d); err != nil {
			return nil, err
		}
	}
	return form, nil
}

func loadData(arg string) (any, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, nil
	}
	raw := []byte(arg)
	if strings.HasPrefix(arg, "@") {
		b, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
		if err != nil {
			return nil, fmt.Errorf("读取绑定数据失败: %w", err)
		}
		raw = b
	}
	return binding.ParseData(raw)
}

// export 串联布局与渲染，并写出 PDF。
func (c *CLI) export(ctx context.Context, out io.Writer, form *label.Form, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	if !form.Ready() {
		if !opts.force {
			printStatus(out, false)
			printFieldErrors(out, form.Errors())
			return ErrNotReady
		}
		logger.Warn("exporting a record that is not ready", "errors", len(form.Errors()))
	}

	rec := form.Snapshot()
	engine, err := c.engine()
	if err != nil {
		return err
	}
	res, err := layout.Build(rec, rec.Density, layout.BuildOptions{
		Typesetter: engine,
		Meta: layout.DocumentMeta{
			Author:   c.cfg.PDF.Author,
			Keywords: c.cfg.PDF.Keywords,
		},
	})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	if n := overflowCount(res); n > 0 {
		logger.Warn("label content clipped", "cells", n, "density", res.Density)
		printWarning(out, "text does not fit at %s density; try a smaller setting", res.Density)
	}

	if opts.debug != "" {
		if err := writeDebug(res, opts.debug); err != nil {
			return err
		}
		logger.Debug("wrote layout debug JSON", "path", opts.debug)
	}

	pdfBytes, err := engine.Render(res)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if dir := filepath.Dir(opts.output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(opts.output, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	logger.Info("exported labels", "density", res.Density, "bytes", len(pdfBytes))
	printFile(out, opts.output)
	return nil
}

func overflowCount(res *layout.Result) int {
	n := 0
	for _, cell := range res.Cells {
		if cell.Overflow {
			n++
		}
	}
	return n
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
