package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/adit/cli/render"
)

// LinksCommand returns the links command: inspect the artifact link
// patterns a session would apply, or try them against a local file.
func LinksCommand() *cli.Command {
	return &cli.Command{
		Name:  "links",
		Usage: "Show effective artifact link patterns",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "patterns",
				Usage: "Path to a link-patterns.json override file",
			},
			&cli.StringFlag{
				Name:  "annotate",
				Usage: "Annotate the given log file instead of listing patterns",
			},
		}, OutputFlags()...),
		Action: linksAction,
	}
}

func linksAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for links command", 1)
	}

	if file := c.String("annotate"); file != "" {
		text, err := readInput(file)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		annotator, err := loadAnnotator(c.String("patterns"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return r.Render(annotator.Annotate(text))
	}

	patterns, err := loadPatterns(c.String("patterns"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return r.Render(patterns)
}
