package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/streamq-io/streamq/cli/internal/config"
	"github.com/streamq-io/streamq/cli/internal/watch"
	"github.com/streamq-io/streamq/runtime/client"
	"github.com/streamq-io/streamq/runtime/transport"
	"github.com/streamq-io/streamq/schema"
)

var runCmd = &cobra.Command{
	Use:   "run <statements-file>",
	Short: "Run streaming-SQL statements from a file against the engine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		push, _ := cmd.Flags().GetBool("push")
		watchMode, _ := cmd.Flags().GetBool("watch")
		timeoutFlag, _ := cmd.Flags().GetInt("timeout")

		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeoutFlag > 0 {
			timeout = time.Duration(timeoutFlag) * time.Second
		}

		engine, err := transport.New(transport.Config{
			BaseURL:          cfg.Endpoint,
			WSURL:            cfg.WSEndpoint,
			MinServerVersion: cfg.MinServerVersion,
		})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		if err := engine.CheckServerVersion(ctx); err != nil {
			return err
		}

		runOnce := func() error {
			return runStatements(cmd, engine, args[0], push, timeout)
		}
		if !watchMode {
			return runOnce()
		}

		watcher, err := watch.NewWatcher(args[0], runOnce)
		if err != nil {
			return err
		}
		defer watcher.Stop()
		color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "watching %s for changes\n", args[0])
		return watcher.Start()
	},
}

func runStatements(cmd *cobra.Command, engine *transport.Engine, path string, push bool, timeout time.Duration) error {
	raw, err := afero.ReadFile(config.AppFs, path)
	if err != nil {
		return fmt.Errorf("reading statements: %w", err)
	}

	// Statements are text already; attach placeholder metadata for logging.
	meta := &schema.EntityMetadata{Entity: "adhoc", Stream: "adhoc", Valid: true}

	for _, stmt := range splitStatements(string(raw)) {
		color.New(color.FgCyan).Fprintf(cmd.OutOrStdout(), "> %s\n", stmt)

		if push {
			if err := streamStatement(cmd, engine, stmt, meta, timeout); err != nil {
				return err
			}
			continue
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		rows, err := engine.ExecutePullAsync(ctx, stmt, meta)
		cancel()
		if err != nil {
			return err
		}
		renderRows(rows)
	}
	return nil
}

func streamStatement(cmd *cobra.Command, engine *transport.Engine, stmt string, meta *schema.EntityMetadata, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	count := 0
	err := engine.ExecuteStream(ctx, stmt, meta, func(row client.Row) error {
		count++
		fmt.Fprintf(cmd.OutOrStdout(), "  %v\n", row)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "%d rows\n", count)
	return nil
}

func renderRows(rows []client.Row) {
	if len(rows) == 0 {
		pterm.Info.Println("no rows")
		return
	}

	// Stable column order across rows.
	columnSet := map[string]struct{}{}
	for _, row := range rows {
		for k := range row {
			columnSet[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(columnSet))
	for k := range columnSet {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	data := pterm.TableData{columns}
	for _, row := range rows {
		line := make([]string, len(columns))
		for i, col := range columns {
			line[i] = fmt.Sprintf("%v", row[col])
		}
		data = append(data, line)
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func splitStatements(text string) []string {
	var out []string
	for _, stmt := range strings.Split(text, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" && !strings.HasPrefix(stmt, "--") {
			out = append(out, stmt)
		}
	}
	return out
}

func init() {
	runCmd.Flags().Bool("push", false, "run statements as continuous push queries")
	runCmd.Flags().Bool("watch", false, "re-run when the statements file changes")
	runCmd.Flags().Int("timeout", 0, "per-run timeout in seconds (overrides config)")
}
