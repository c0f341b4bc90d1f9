// Package cli implements the foodlabels command-line interface.
//
// Commands:
//   - render: load a label file and export the 16-up PDF sheet
//   - check: report whether a label file is ready for export
//   - form: fill in the label interactively
//   - serve: run the HTTP API
//
// All commands accept --config (TOML) and --verbose (-v).
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ByLCY/foodlabels/config"
	"github.com/ByLCY/foodlabels/layout"
	"github.com/ByLCY/foodlabels/renderer"
	canvasrenderer "github.com/ByLCY/foodlabels/renderer/canvas"
)

// ErrNotReady is returned when a record fails the export gate.
var ErrNotReady = errors.New("label is not ready for export")

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Prompter drives the interactive form; nil means the survey terminal driver.
	Prompter PromptDriver
	// NewEngine creates the layout/render backend; nil means the canvas renderer.
	NewEngine func() renderer.Engine

	configPath string
	cfg        config.Config
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "foodlabels",
		Short:         "Foodlabels prints sheets of 16 identical food labels",
		Long:          `Foodlabels turns one food label record into a print-ready A4 PDF with 16 identical labels in two columns.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML 配置文件路径")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.formCommand())
	root.AddCommand(c.serveCommand())

	return root
}

// engine 创建排版/渲染后端，配置中的字体文件在这里读取。
func (c *CLI) engine() (renderer.Engine, error) {
	if c.NewEngine != nil {
		return c.NewEngine(), nil
	}
	r, err := canvasrenderer.NewRendererWithOptions(fontOptions(c.cfg.PDF.Fonts))
	if err != nil {
		return nil, fmt.Errorf("加载字体失败: %w", err)
	}
	return r, nil
}

func fontOptions(f config.Fonts) canvasrenderer.Options {
	opts := canvasrenderer.Options{Fonts: map[layout.FontStyle]canvasrenderer.Resource{}}
	if f.Regular != "" {
		opts.Fonts[layout.FontRegular] = canvasrenderer.Resource{Path: f.Regular}
	}
	if f.Bold != "" {
		opts.Fonts[layout.FontBold] = canvasrenderer.Resource{Path: f.Bold}
	}
	return opts
}

func (c *CLI) prompter() PromptDriver {
	if c.Prompter != nil {
		return c.Prompter
	}
	return newSurveyDriver()
}
