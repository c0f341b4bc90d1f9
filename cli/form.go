package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/ByLCY/foodlabels/label"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("aborted")

// InputConfig configures a text prompt.
type InputConfig struct {
	Message string
	Default string
	Help    string
}

// ConfirmConfig configures a yes/no prompt.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig configures a single-choice prompt.
type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Help         string
}

// PromptDriver abstracts the terminal so the form flow can be tested
// without a real TTY.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
}

// 表单各字段的提示文字。
var fieldPrompts = map[label.Field]string{
	label.FieldProductName:  "Product name",
	label.FieldPrice:        "Price (kr)",
	label.FieldDueDate:      "Best before (YYYY-MM-DD)",
	label.FieldIngredients:  "Ingredients",
	label.FieldAllergens:    "Allergens",
	label.FieldInstructions: "Instructions",
	label.FieldDescription:  "Description",
	label.FieldIsVegan:      "Vegan?",
	label.FieldDensity:      "Font size",
}

func (c *CLI) formCommand() *cobra.Command {
	var opts renderOpts
	cmd := &cobra.Command{
		Use:   "form [file]",
		Short: "Fill in a label interactively and export it when ready",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfig(cmd, &opts)
			var form *label.Form
			if len(args) == 1 {
				f, err := c.loadForm(args[0], opts)
				if err != nil {
					return err
				}
				form = f
			} else {
				base := label.Empty()
				base.Density = c.cfg.Density.Resolve()
				form = label.NewFormFrom(base)
			}
			out := cmd.OutOrStdout()
			ok, err := c.runForm(cmd.Context(), out, c.prompter(), form)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			return c.export(cmd.Context(), out, form, opts)
		},
	}
	addRenderFlags(cmd, &opts)
	return cmd
}

// runForm 依次询问每个字段，每次修改后输出导出状态；返回用户是否确认导出。
func (c *CLI) runForm(ctx context.Context, out io.Writer, driver PromptDriver, form *label.Form) (bool, error) {
	form.OnChange(func(ready bool) {
		loggerFromContext(ctx).Debug("export readiness changed", "ready", ready)
	})

	for _, field := range label.Fields {
		rec := form.Snapshot()
		var err error
		switch {
		case field.Text():
			err = askText(ctx, driver, form, field, rec.Text(field))
		case field == label.FieldIsVegan:
			err = askVegan(ctx, driver, form, rec.IsVegan)
		case field == label.FieldDensity:
			err = askDensity(ctx, driver, form, rec.Density)
		}
		if err != nil {
			return false, err
		}
		printStatus(out, form.Ready())
	}

	if !form.Ready() {
		printFieldErrors(out, form.Errors())
		return false, nil
	}
	return driver.Confirm(ctx, ConfirmConfig{Message: "Export " + DefaultFileName + "?", Default: true})
}

func askText(ctx context.Context, driver PromptDriver, form *label.Form, field label.Field, current string) error {
	v, err := driver.Input(ctx, InputConfig{Message: fieldPrompts[field], Default: current})
	if err != nil {
		return err
	}
	return form.Apply(label.Edit{Field: field, Value: v})
}

func askVegan(ctx context.Context, driver PromptDriver, form *label.Form, current bool) error {
	v, err := driver.Confirm(ctx, ConfirmConfig{Message: fieldPrompts[label.FieldIsVegan], Default: current})
	if err != nil {
		return err
	}
	form.SetVegan(v)
	return nil
}

func askDensity(ctx context.Context, driver PromptDriver, form *label.Form, current label.Density) error {
	options := make([]string, len(label.Densities))
	def := 0
	for i, d := range label.Densities {
		options[i] = string(d)
		if d == current.Resolve() {
			def = i
		}
	}
	idx, err := driver.Select(ctx, SelectConfig{Message: fieldPrompts[label.FieldDensity], Options: options, DefaultIndex: def})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(options) {
		return fmt.Errorf("%w: option %d", label.ErrInvalidDensity, idx)
	}
	return form.SetDensity(label.Densities[idx])
}

type surveyDriver struct{}

func newSurveyDriver() PromptDriver {
	return &surveyDriver{}
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	prompt := &survey.Confirm{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var out int
	prompt := &survey.Select{
		Message: cfg.Message,
		Options: cfg.Options,
		Help:    cfg.Help,
	}
	if cfg.DefaultIndex >= 0 && cfg.DefaultIndex < len(cfg.Options) {
		prompt.Default = cfg.Options[cfg.DefaultIndex]
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return 0, translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
