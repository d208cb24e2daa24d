package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/internal/app"
	"github.com/goliatone/go-formbuilder/pkg/orchestrator"
	"github.com/goliatone/go-formbuilder/pkg/renderers/tui"
)

type renderFlags struct {
	renderer string
	output   string
	answers  string
}

func (f renderFlags) tuiOptions(cmd *cobra.Command) ([]tui.Option, error) {
	var format tui.OutputFormat
	switch f.answers {
	case "", "json":
		format = tui.OutputFormatJSON
	case "form":
		format = tui.OutputFormatFormURLEncoded
	case "pretty":
		format = tui.OutputFormatPrettyText
	default:
		return nil, fmt.Errorf("unknown answers format %q (json|form|pretty)", f.answers)
	}
	// Prompts go to stderr so stdout carries only the answers.
	return []tui.Option{tui.WithOutputFormat(format), tui.WithOutput(cmd.ErrOrStderr())}, nil
}

func runRender(cmd *cobra.Command, env *Env, f renderFlags) error {
	tuiOpts, err := f.tuiOptions(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := env.open(ctx, app.WithTUIOptions(tuiOpts...))
	if err != nil {
		return err
	}
	defer a.Close()

	if f.renderer != "" && !a.Registry.Has(f.renderer) {
		return fmt.Errorf("unknown renderer %q (available: %v)", f.renderer, a.Registry.List())
	}
	result, err := a.Orchestrator.Generate(ctx, orchestrator.Request{Renderer: f.renderer})
	if err != nil {
		return err
	}
	out := result.Body
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	return writeOutput(cmd, f.output, out)
}

func newRenderCmd(env *Env) *cobra.Command {
	var f renderFlags
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the persisted form",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, env, f)
		},
	}
	cmd.Flags().StringVar(&f.renderer, "renderer", "html", "Renderer to use (html|tui)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().StringVar(&f.answers, "answers", "json", "Answer encoding for the tui renderer (json|form|pretty)")
	return cmd
}

func newFillCmd(env *Env) *cobra.Command {
	f := renderFlags{renderer: "tui"}
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill in the persisted form from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, env, f)
		},
	}
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the answers to a file instead of stdout")
	cmd.Flags().StringVar(&f.answers, "answers", "json", "Answer encoding (json|form|pretty)")
	return cmd
}
