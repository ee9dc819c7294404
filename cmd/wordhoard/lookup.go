package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wordhoard/wordhoard/internal/definition"
	"github.com/wordhoard/wordhoard/internal/source"
)

type sourceName string

func (s *sourceName) Set(val string) error {
	for _, name := range source.PriorityOrder() {
		if val == name {
			*s = sourceName(name)
			return nil
		}
	}
	return fmt.Errorf("invalid source: %s. Possible values are %v", val, source.PriorityOrder())
}

func (s sourceName) String() string {
	return string(s)
}

func (s *sourceName) Type() string {
	return "source"
}

var _ pflag.Value = (*sourceName)(nil)

func newLookupCommand() *cobra.Command {
	var noCache bool
	var asJSON bool
	var onlySource sourceName

	cmd := &cobra.Command{
		Use:   "lookup <term>",
		Short: "Resolve a term's definitions across all configured sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			engine, closeCache, err := newEngine(cfg, string(onlySource))
			if err != nil {
				return err
			}
			defer func() {
				_ = closeCache()
			}()

			result, err := engine.Lookup(cmd.Context(), term, !noCache)
			if err != nil {
				return fmt.Errorf("engine.Lookup > %w", err)
			}

			if asJSON {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(result); err != nil {
					return fmt.Errorf("json.Encode > %w", err)
				}
				return nil
			}

			showResult(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the result cache for this lookup")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw result as JSON")
	cmd.Flags().Var(&onlySource, "source", fmt.Sprintf("Consult a single source. Possible values are %v", source.PriorityOrder()))
	return cmd
}

func showResult(result definition.LookupResult) {
	bold := color.New(color.Bold)
	italic := color.New(color.Italic)
	heading := color.New(color.FgCyan, color.Bold)
	faint := color.New(color.Faint)

	_, _ = bold.Printf("%s", result.Term)
	if result.CacheHit {
		_, _ = faint.Printf("  (cached)")
	}
	fmt.Println()

	if result.DefinitionCount() == 0 {
		fmt.Println("No definitions found.")
		return
	}

	parts := make([]string, 0, len(result.DefinitionsByPOS))
	for pos := range result.DefinitionsByPOS {
		parts = append(parts, pos)
	}
	sort.Strings(parts)

	for _, pos := range parts {
		fmt.Println()
		_, _ = heading.Printf("%s\n", pos)
		for i, d := range result.DefinitionsByPOS[pos] {
			fmt.Printf("  %d. %s\n", i+1, d.Text)
			_, _ = faint.Printf("     %s (tier %d, reliability %.2f)\n", d.Source, d.SourceTier, d.ReliabilityScore)
			if d.Pronunciation != "" {
				fmt.Printf("     pronunciation: %s\n", d.Pronunciation)
			}
			for _, example := range d.Examples {
				_, _ = italic.Printf("     e.g. %s\n", example)
			}
			if d.Etymology != "" {
				_, _ = faint.Printf("     %s\n", d.Etymology)
			}
		}
	}

	fmt.Println()
	fmt.Printf("Overall reliability: %.3f\n", result.OverallReliability)
	fmt.Printf("Sources consulted: %s\n", strings.Join(result.SourcesConsulted, ", "))
}
