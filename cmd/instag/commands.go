package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Luismorlan/instag/app_setting"
	"github.com/Luismorlan/instag/importer"
	"github.com/Luismorlan/instag/model"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type importerFactory func(ctx context.Context, setting app_setting.InstagAppSetting) (*importer.Importer, error)

type cliApp struct {
	configPath string

	out   io.Writer
	in    io.Reader
	build importerFactory
}

func (a *cliApp) setting() (app_setting.InstagAppSetting, error) {
	return app_setting.ParseInstagAppSetting(a.configPath)
}

func (a *cliApp) importer(ctx context.Context) (*importer.Importer, app_setting.InstagAppSetting, error) {
	setting, err := a.setting()
	if err != nil {
		return nil, setting, err
	}
	imp, err := a.build(ctx, setting)
	return imp, setting, err
}

func newRootCommand(app *cliApp) *cobra.Command {
	root := &cobra.Command{
		Use:           "instag",
		Short:         "Import Instagram profile and hashtag feeds as posts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.out)
	root.SetIn(app.in)
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "path to the yaml setting file")

	root.AddCommand(
		newImportUserCommand(app),
		newImportTagCommand(app),
		newDeleteAllCommand(app),
		newBatchCommand(app),
	)
	return root
}

func newImportUserCommand(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "import-user <handle>",
		Short: "Import all posts of a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imp, _, err := app.importer(cmd.Context())
			if err != nil {
				return err
			}
			n, err := imp.ImportProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d posts from profile %s\n", n, args[0])
			return nil
		},
	}
}

func newImportTagCommand(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "import-tag <tag> [max]",
		Short: "Import posts of a hashtag, reading at most max pages",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxPages := 0
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n <= 0 {
					return errors.Errorf("max must be a positive number, got %q", args[1])
				}
				maxPages = n
			}
			imp, setting, err := app.importer(cmd.Context())
			if err != nil {
				return err
			}
			if maxPages == 0 {
				maxPages = setting.HASHTAG_MAX_PAGES
			}
			n, err := imp.ImportTag(cmd.Context(), args[0], maxPages)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d posts from hashtag %s\n", n, args[0])
			return nil
		},
	}
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func newDeleteAllCommand(app *cliApp) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every imported post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Delete all imported posts?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
			imp, _, err := app.importer(cmd.Context())
			if err != nil {
				return err
			}
			n, err := imp.DeleteAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d posts\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation")
	return cmd
}

func newBatchCommand(app *cliApp) *cobra.Command {
	var (
		method   string
		target   string
		limit    int
		maxPages int
		refresh  bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run an import batch chunk by chunk, printing progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseFetchKind(method)
			if err != nil {
				return err
			}
			imp, setting, err := app.importer(cmd.Context())
			if err != nil {
				return err
			}
			if limit == 0 {
				limit = setting.ItemLimit()
			} else {
				limit = app_setting.ClampItemLimit(limit)
			}
			if kind == model.FetchKindHashtag && maxPages <= 0 {
				maxPages = setting.HASHTAG_MAX_PAGES
			}

			out := cmd.OutOrStdout()
			printed := 0
			printMessages := func(state model.BatchState) {
				for _, msg := range state.Messages[printed:] {
					fmt.Fprintf(out, "  %s: %s\n", msg.Level, msg.Text)
				}
				printed = len(state.Messages)
			}
			state, err := imp.Runner().Run(cmd.Context(), importer.BatchRequest{
				Kind:     kind,
				Target:   target,
				Limit:    limit,
				MaxPages: maxPages,
				Refresh:  refresh,
			}, func(state model.BatchState) {
				fmt.Fprintf(out, "[%3.0f%%] %d/%d\n", state.Fraction()*100, state.Progress, state.Max)
				printMessages(state)
			})
			printMessages(state)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Batch %s finished: %d created, %d updated, %d failed\n",
				state.Id, state.Imported, state.Updated, state.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&method, "method", "profile", "feed to walk, profile or hashtag")
	cmd.Flags().StringVar(&target, "target", "", "profile handle or hashtag")
	cmd.Flags().IntVar(&limit, "limit", 0, "posts to process, 1 to 100")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "page limit of hashtag feeds")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached post list")
	cmd.MarkFlagRequired("target")
	return cmd
}
