package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rizkirmdhn/vistopia/pkg/models"
	"github.com/spf13/cobra"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <show-id>",
		Short: "Display a show and its episodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseShowID(args[0])
			if err != nil {
				return err
			}
			client, err := ctx.catalogClient()
			if err != nil {
				return err
			}

			series, err := client.GetSeries(cmd.Context(), id)
			if err != nil {
				return err
			}
			catalog, err := client.GetCatalog(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", series.Title)
			if series.Author != "" {
				fmt.Fprintf(out, "Reader: %s\n", series.Author)
			}
			if desc := strings.TrimSpace(series.ShareDesc); desc != "" {
				fmt.Fprintf(out, "%s\n", desc)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Title", "Type"},
				episodeRows(catalog),
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func episodeRows(catalog *models.Catalog) [][]string {
	var rows [][]string
	for _, part := range catalog.Parts {
		for _, ep := range part.Episodes {
			rows = append(rows, []string{
				strconv.Itoa(int(ep.SortNumber)),
				ep.Title,
				string(ep.MediaType),
			})
		}
	}
	return rows
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Search shows by keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.catalogClient()
			if err != nil {
				return err
			}

			results, err := client.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No shows found")
				return nil
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{strconv.Itoa(int(r.ContentID)), r.Title, r.Author})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Reader"},
				rows,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}
}

func newSubscriptionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "subscriptions",
		Short: "List the shows the configured account subscribed to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.catalogClient()
			if err != nil {
				return err
			}

			subs, err := client.Subscriptions(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(subs))
			for _, s := range subs {
				rows = append(rows, []string{
					strconv.Itoa(int(s.ContentID)),
					s.Title,
					s.Author,
					strconv.Itoa(int(s.Count)),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Reader", "Episodes"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}
