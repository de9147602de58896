// Command cyql is a small demo CLI around the translator: it prints the
// PostgreSQL SQL and parameter vector a query compiles to. It never opens
// a database connection or executes anything.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/cyphergraph/pgcypher"
	"github.com/cyphergraph/pgcypher/internal/telemetry"
)

func main() {
	app := &cli.Command{
		Name:  "cyql",
		Usage: "translate a Cypher-like query into parameterized PostgreSQL SQL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "tenant",
				Usage:   "tenant id used as the group_id filter",
				Value:   "default",
				Sources: cli.EnvVars("CYQL_TENANT"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable development-mode logging",
			},
		},
		Commands: []*cli.Command{
			translateCommand(),
			replCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newTranslator(cmd *cli.Command) (*pgcypher.Translator, error) {
	opts := []pgcypher.Option{}
	if cmd.Bool("verbose") {
		logger, err := telemetry.NewDevelopment()
		if err != nil {
			return nil, err
		}
		opts = append(opts, pgcypher.WithLogger(logger))
	}
	return pgcypher.New(cmd.String("tenant"), opts...), nil
}

func translateCommand() *cli.Command {
	return &cli.Command{
		Name:      "translate",
		Usage:     "translate a single query",
		ArgsUsage: "<query>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return fmt.Errorf("usage: cyql translate <query>")
			}
			t, err := newTranslator(cmd)
			if err != nil {
				return err
			}
			return printTranslation(t, cmd.Args().First())
		},
	}
}

func replCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "read queries from stdin, one per line, and print their SQL",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			t, err := newTranslator(cmd)
			if err != nil {
				return err
			}

			scanner := bufio.NewScanner(os.Stdin)
			fmt.Println("cyql — property-graph query translator")
			fmt.Println(`Type a query and press Enter; "exit" or "quit" to leave.`)
			fmt.Println()

			for {
				fmt.Print("cyql> ")
				if !scanner.Scan() {
					return nil
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}
				if err := printTranslation(t, line); err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
				}
			}
		},
	}
}

type translation struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

func printTranslation(t *pgcypher.Translator, query string) error {
	sql, params, err := t.Translate(query, nil)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(translation{SQL: sql, Params: params})
}
