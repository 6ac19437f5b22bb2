package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/streamq-io/streamq/query/graph"
	"github.com/streamq-io/streamq/runtime/client"
	"github.com/streamq-io/streamq/schema"
)

// demoOrder is the entity the compile command renders queries for.
type demoOrder struct {
	Id       string  `streamq:"Id,key=1"`
	Region   string  `streamq:"Region"`
	Amount   float64 `streamq:"Amount"`
	IsActive bool    `streamq:"IsActive"`
}

// noopService satisfies the execution contract for compile-only use; the
// compile command never executes.
type noopService struct{}

func (noopService) ExecutePull(string, *schema.EntityMetadata) ([]client.Row, error) {
	return nil, fmt.Errorf("compile-only service")
}

func (noopService) ExecutePullAsync(context.Context, string, *schema.EntityMetadata) ([]client.Row, error) {
	return nil, fmt.Errorf("compile-only service")
}

func (noopService) ExecuteStream(context.Context, string, *schema.EntityMetadata, func(client.Row) error) error {
	return fmt.Errorf("compile-only service")
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Render example query graphs as streaming SQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		pull, _ := cmd.Flags().GetBool("pull")
		verbose, _ := cmd.Flags().GetBool("verbose")

		c := client.NewClient(noopService{})
		orders := client.ForEntity[demoOrder](c)

		samples := []struct {
			name  string
			query *client.Stream[demoOrder]
		}{
			{"filter", orders.Where(graph.Col("IsActive"))},
			{"projection", orders.
				Where(graph.Gt(graph.Col("Amount"), graph.Lit(100))).
				Select(graph.Col("Id"), graph.Col("Amount"))},
			{"aggregate", orders.
				GroupBy(graph.Col("Region")).
				Select(graph.Col("Region"), graph.As(graph.Average(graph.Col("Amount")), "AvgAmount"))},
			{"windowed", orders.
				WindowedBy(graph.WindowDef{Type: graph.WindowTumbling, Size: 5 * time.Minute}).
				GroupBy(graph.Col("Region")).
				Select(graph.Col("Region"), graph.Count())},
		}

		heading := color.New(color.FgCyan, color.Bold)
		for _, s := range samples {
			heading.Fprintf(cmd.OutOrStdout(), "-- %s\n", s.name)
			fmt.Fprintln(cmd.OutOrStdout(), s.query.ToQueryText(pull))
			if verbose {
				fmt.Fprintln(cmd.OutOrStdout(), s.query.Diagnostics())
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}

func init() {
	compileCmd.Flags().Bool("pull", false, "compile in pull mode (no EMIT CHANGES)")
	compileCmd.Flags().Bool("verbose", false, "print compile diagnostics")
}
