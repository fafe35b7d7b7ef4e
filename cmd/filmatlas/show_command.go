package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"filmatlas/internal/api"
	"filmatlas/internal/geo"
	"filmatlas/internal/store"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var (
		runID  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "show <country-code>",
		Short: "List the movies attributed to one country in a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := geo.NormalizeCode(args[0])
			if code == "" {
				return fmt.Errorf("invalid country code %q: expected two letters such as US", args[0])
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			var run store.Run
			if id := strings.TrimSpace(runID); id != "" {
				run, err = st.GetRun(cmd.Context(), id)
			} else {
				run, err = st.LatestRun(cmd.Context())
			}
			if err != nil {
				return err
			}
			agg, err := st.LoadAggregate(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			country := api.FromCountry(code, agg)
			if asJSON {
				return writeJSON(cmd, country)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s): %d movies in run %s\n", country.Name, country.Code, country.Count, run.ID)
			if len(country.Movies) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(country.Movies))
			for _, movie := range country.Movies {
				tmdbID := ""
				if movie.TMDBID != 0 {
					tmdbID = fmt.Sprint(movie.TMDBID)
				}
				rows = append(rows, []string{movie.Title, movie.Year, tmdbID, movie.URI})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Title", "Year", "TMDB", "Letterboxd"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run ID (defaults to the latest run)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the country as JSON")
	return cmd
}
