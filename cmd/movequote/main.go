// movequote CLI - quote a move from the command line.
//
// Usage:
//   movequote quote --input request.json [--catalogue scenarios.yaml]
//   movequote scenarios [--catalogue scenarios.yaml]
//   movequote verify --quote signed.json
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"movequote/internal/catalog"
	"movequote/internal/modules"
	"movequote/internal/quote"
	"movequote/internal/secure"
	"movequote/internal/service"
	"movequote/pkg/api"
	"movequote/pkg/platform"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	app := &cli.App{
		Name:    "movequote",
		Usage:   "Price a service order across scenarios",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "signing-secret",
				Usage:   "Secret for secured-price signatures",
				Value:   "dev-secret",
				EnvVars: []string{"QUOTE_SIGNING_SECRET"},
			},
			&cli.StringFlag{
				Name:    "catalogue",
				Usage:   "Scenario catalogue YAML file (defaults to the built-in six archetypes)",
				EnvVars: []string{"QUOTE_CATALOGUE"},
			},
		},
		Commands: []*cli.Command{
			quoteCommand(),
			scenariosCommand(),
			verifyCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadScenarios(c *cli.Context) ([]quote.Scenario, error) {
	if path := c.String("catalogue"); path != "" {
		return catalog.Load(path)
	}
	return catalog.Default(), nil
}

func buildQuoter(c *cli.Context) (*service.Quoter, error) {
	reg, err := modules.NewRegistry()
	if err != nil {
		return nil, err
	}
	scenarios, err := loadScenarios(c)
	if err != nil {
		return nil, err
	}
	signer := secure.NewSigner([]byte(c.String("signing-secret")))
	log := platform.InitLogger()
	return service.NewQuoter(reg, signer, log).WithScenarios(scenarios), nil
}

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "quote",
		Usage: "Compute base cost and scenario prices for a request file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Usage:    "JSON file with the raw request",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the full response as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			raw, err := os.ReadFile(c.String("input"))
			if err != nil {
				return err
			}
			var fields map[string]any
			if err := json.Unmarshal(raw, &fields); err != nil {
				return fmt.Errorf("parse input: %w", err)
			}

			in, err := api.BuildInput(fields)
			if err != nil {
				return err
			}
			quoter, err := buildQuoter(c)
			if err != nil {
				return err
			}

			base, err := quoter.BaseQuote(in)
			if err != nil {
				return err
			}
			resp, err := quoter.ScenarioQuote(api.ScenarioQuoteRequest{
				BaseCost: &base.BaseCost,
				Context:  base.Context,
			})
			if err != nil {
				return err
			}

			if c.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			fmt.Printf("Base cost: %.2f\n\n", base.BaseCost)
			for _, sc := range resp.Scenarios {
				marker := "  "
				if sc.ScenarioID == resp.Comparison.RecommendedID {
					marker = "> "
				}
				fmt.Printf("%s%-14s %10.2f  (margin %.0f%%, extras %.2f)\n",
					marker, sc.Label, sc.FinalPrice, sc.MarginRate*100, sc.AdditionalCosts)
			}
			fmt.Printf("\nRecommended: %s (%s confidence)\n",
				resp.Recommendation.Best.Archetype, resp.Recommendation.Best.Confidence)
			for _, r := range resp.Recommendation.Best.Reasons {
				fmt.Printf("  + %s\n", r)
			}
			for _, wmsg := range resp.Recommendation.Best.Warnings {
				fmt.Printf("  - %s\n", wmsg)
			}
			return nil
		},
	}
}

func scenariosCommand() *cli.Command {
	return &cli.Command{
		Name:  "scenarios",
		Usage: "List the scenario catalogue",
		Action: func(c *cli.Context) error {
			scenarios, err := loadScenarios(c)
			if err != nil {
				return err
			}
			for _, sc := range scenarios {
				fmt.Printf("%-14s margin %.0f%%  %s\n", sc.ID, sc.MarginRate*100, sc.Description)
			}
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Verify a secured price snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "quote",
				Usage:    "JSON file with the secured price",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			raw, err := os.ReadFile(c.String("quote"))
			if err != nil {
				return err
			}
			var sp secure.SecuredPrice
			if err := json.Unmarshal(raw, &sp); err != nil {
				return fmt.Errorf("parse secured price: %w", err)
			}
			signer := secure.NewSigner([]byte(c.String("signing-secret")))
			if err := signer.Verify(sp); err != nil {
				return fmt.Errorf("invalid: %w", err)
			}
			fmt.Printf("valid (calculation %s, signed %s)\n", sp.CalculationID, sp.Timestamp)
			return nil
		},
	}
}
