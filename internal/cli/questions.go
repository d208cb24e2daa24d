package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/pkg/question"
)

type addFlags struct {
	label      string
	kind       string
	helper     string
	numberType string
	options    string
	min        float64
	max        float64
	required   bool
	hidden     bool
}

// patch turns the flags the user actually set into a question.Patch.
func (f addFlags) patch(cmd *cobra.Command) (question.Patch, error) {
	var p question.Patch
	flags := cmd.Flags()
	if flags.Changed("label") {
		p.Label = &f.label
	}
	if flags.Changed("type") {
		t, err := question.ParseType(f.kind)
		if err != nil {
			return question.Patch{}, err
		}
		p.Type = &t
	}
	if flags.Changed("helper") {
		p.HelperText = &f.helper
	}
	if flags.Changed("number-type") {
		p.NumberType = &f.numberType
	}
	if flags.Changed("options") {
		options := question.ParseOptions(f.options)
		p.Options = &options
	}
	if flags.Changed("min") {
		p.Min = &f.min
	}
	if flags.Changed("max") {
		p.Max = &f.max
	}
	if flags.Changed("required") {
		p.Required = &f.required
	}
	if flags.Changed("hidden") {
		p.Hidden = &f.hidden
	}
	return p, nil
}

func newAddCmd(env *Env) *cobra.Command {
	var f addFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a question and wait for its auto-save to settle",
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := f.patch(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			q, err := a.Collection.Add(ctx)
			if err != nil {
				return err
			}
			if !patch.Empty() {
				if _, ok := a.Collection.Update(ctx, q.ID, patch); !ok {
					return fmt.Errorf("question %s vanished", q.ID)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "waiting %s for auto-save...\n", a.Collection.Delay())
				if err := a.Collection.WaitIdle(ctx); err != nil {
					return err
				}
			}

			saved, _ := a.Collection.Get(q.ID)
			for _, n := range a.Collection.Notifications() {
				if n.QuestionID == q.ID {
					fmt.Fprintln(cmd.ErrOrStderr(), strings.TrimSpace(n.Title+" "+n.Description))
				}
			}
			if err := writeJSON(cmd, saved); err != nil {
				return err
			}
			if saved.SaveStatus == question.StatusError {
				return errors.New(saved.Error)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.label, "label", "", "Question label")
	flags.StringVar(&f.kind, "type", string(question.TypeText), "Question type (text|number|select)")
	flags.StringVar(&f.helper, "helper", "", "Helper text shown under the field")
	flags.StringVar(&f.numberType, "number-type", question.DefaultNumberType, "Unit for number questions")
	flags.StringVar(&f.options, "options", "", "Comma-separated options for select questions")
	flags.Float64Var(&f.min, "min", question.DefaultMin, "Lower bound for number questions")
	flags.Float64Var(&f.max, "max", question.DefaultMax, "Upper bound for number questions")
	flags.BoolVar(&f.required, "required", false, "Mark the question as required")
	flags.BoolVar(&f.hidden, "hidden", false, "Hide the question from the form preview")
	return cmd
}

func newListCmd(env *Env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the persisted questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := env.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			questions, err := s.Read(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, questions)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tTYPE\tREQUIRED\tHIDDEN\tSTATUS")
			for idx, q := range questions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%s\n", q.ID, q.DisplayLabel(idx), q.Type, q.Required, q.Hidden, q.SaveStatus)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw snapshot as JSON")
	return cmd
}

func newDeleteCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			ok, err := a.Collection.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("question not found: %s", args[0])
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "deleted %s\n", args[0])
			return nil
		},
	}
}
