package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/openapi"
	"github.com/goliatone/go-formbuilder/pkg/question"
)

func newOpenAPICmd(env *Env) *cobra.Command {
	var output, title, version string
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print an OpenAPI document for the question API and the form submission",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := env.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			questions, err := s.Read(ctx)
			if err != nil {
				return err
			}
			formCfg := env.Config.Form
			form := model.NewBuilder(
				model.WithEndpoint(formCfg.Method, formCfg.Endpoint),
				model.WithSummary(formCfg.Summary),
				model.WithOperationID(formCfg.OperationID),
			).Build(questions)
			if title == "" {
				title = form.Summary
			}

			doc, err := openapi.Export(ctx, form, openapi.Info{Title: title, Version: version})
			if err != nil {
				return err
			}
			raw, err := doc.MarshalJSON()
			if err != nil {
				return fmt.Errorf("encode document: %w", err)
			}
			return writeOutput(cmd, output, append(raw, '\n'))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().StringVar(&title, "title", "", "Document title (defaults to the form summary)")
	cmd.Flags().StringVar(&version, "version", "1.0.0", "Document version")
	return cmd
}

func newImportCmd(env *Env) *cobra.Command {
	var operationID string
	var replace bool
	cmd := &cobra.Command{
		Use:   "import <openapi-file>",
		Short: "Create questions from an OpenAPI operation's request body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := openapi.LoadFile(ctx, args[0])
			if err != nil {
				return err
			}
			result, err := openapi.Import(doc, operationID)
			if err != nil {
				return err
			}

			s, err := env.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			var existing []question.Question
			if !replace {
				if existing, err = s.Read(ctx); err != nil {
					return err
				}
			}
			merged, renamed := appendUnique(existing, result.Questions)
			if err := s.Write(ctx, merged); err != nil {
				return err
			}

			errOut := cmd.ErrOrStderr()
			fmt.Fprintf(errOut, "imported %d questions from %s\n", len(result.Questions), result.OperationID)
			for _, name := range result.Skipped {
				fmt.Fprintf(errOut, "skipped %s: no matching question type\n", name)
			}
			for from, to := range renamed {
				fmt.Fprintf(errOut, "renamed %s to %s: id already in use\n", from, to)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&operationID, "operation", "", "Operation ID (defaults to the first operation with a request body)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the stored questions instead of appending")
	return cmd
}

// appendUnique appends incoming to existing, suffixing ids that collide.
func appendUnique(existing, incoming []question.Question) ([]question.Question, map[string]string) {
	taken := make(map[string]bool, len(existing)+len(incoming))
	for _, q := range existing {
		taken[q.ID] = true
	}
	renamed := map[string]string{}
	out := append([]question.Question(nil), existing...)
	for _, q := range incoming {
		id := q.ID
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("%s_%d", q.ID, n)
		}
		if id != q.ID {
			renamed[q.ID] = id
			q.ID = id
		}
		taken[id] = true
		out = append(out, q)
	}
	return out, renamed
}
