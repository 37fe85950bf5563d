package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/adit/cli/render"
	"github.com/justapithecus/adit/links"
	"github.com/justapithecus/adit/tap"
	"github.com/justapithecus/adit/types"
)

// ParseCommand returns the parse command: a one-shot parse of a local
// log file, without any fetching or polling.
func ParseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Parse a TAP log file and report test results",
		ArgsUsage: "<file> (use - for stdin)",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "patterns",
				Usage: "Path to a link-patterns.json override file",
			},
		}, OutputFlags()...),
		Action: parseAction,
	}
}

func parseAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("parse requires exactly one file argument", 1)
	}

	text, err := readInput(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	annotator, err := loadAnnotator(c.String("patterns"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	run := tap.New(annotator).Parse(text)

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI("run_summary", run)
	}
	return r.Render(run)
}

// readInput reads the named file, or stdin when name is "-".
func readInput(name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}

// loadAnnotator builds a link annotator from an override file, falling
// back to the built-in patterns when path is empty.
func loadAnnotator(path string) (*links.Annotator, error) {
	if path == "" {
		return links.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading link patterns %s: %w", path, err)
	}
	patterns, err := links.ParsePatterns(data)
	if err != nil {
		return nil, err
	}
	return links.NewAnnotator(patterns)
}

// loadPatterns returns the effective pattern set for display.
func loadPatterns(path string) ([]types.LinkPattern, error) {
	if path == "" {
		return links.DefaultPatterns(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading link patterns %s: %w", path, err)
	}
	return links.ParsePatterns(data)
}
