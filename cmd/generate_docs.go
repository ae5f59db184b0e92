package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate CLI reference documentation",
		Long: `Generate markdown documentation for every meetbook command and its flags.
The reference is built from the registered commands, so it always matches
the binary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			markdown := generateCommandsMarkdown(cmd.Root())

			if outputFile == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), markdown)
				return err
			}
			if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func generateCommandsMarkdown(root *cobra.Command) string {
	var sb strings.Builder

	sb.WriteString("# meetbook CLI Reference\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the command definitions.\n\n")

	commands := visibleCommands(root)

	sb.WriteString("## Table of Contents\n\n")
	for _, c := range commands {
		path := c.CommandPath()
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", path, strings.ReplaceAll(path, " ", "-")))
	}
	sb.WriteString("\n")

	for _, c := range commands {
		sb.WriteString(generateCommandMarkdown(c))
		sb.WriteString("\n")
	}

	if flags := flagRows(root.PersistentFlags()); len(flags) > 0 {
		sb.WriteString("## Global Flags\n\n")
		writeFlagTable(&sb, flags)
	}

	return sb.String()
}

// visibleCommands returns every runnable command below root, depth first and sorted by path.
func visibleCommands(root *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		for _, sub := range c.Commands() {
			if sub.Hidden || sub.Name() == "help" || sub.Name() == "completion" {
				continue
			}
			if sub.Runnable() {
				out = append(out, sub)
			}
			walk(sub)
		}
	}
	walk(root)

	sort.Slice(out, func(i, j int) bool {
		return out[i].CommandPath() < out[j].CommandPath()
	})
	return out
}

func generateCommandMarkdown(c *cobra.Command) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## %s\n\n", c.CommandPath()))

	description := c.Long
	if description == "" {
		description = c.Short
	}
	if description != "" {
		sb.WriteString(description)
		sb.WriteString("\n\n")
	}

	sb.WriteString("```\n")
	sb.WriteString(c.UseLine())
	sb.WriteString("\n```\n\n")

	if flags := flagRows(c.LocalNonPersistentFlags()); len(flags) > 0 {
		sb.WriteString("**Flags:**\n\n")
		writeFlagTable(&sb, flags)
	}

	return sb.String()
}

type flagRow struct {
	name, kind, def, usage string
}

func flagRows(fs *pflag.FlagSet) []flagRow {
	var rows []flagRow
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		name := "--" + f.Name
		if f.Shorthand != "" {
			name = "-" + f.Shorthand + ", " + name
		}
		rows = append(rows, flagRow{
			name:  name,
			kind:  f.Value.Type(),
			def:   f.DefValue,
			usage: f.Usage,
		})
	})
	return rows
}

func writeFlagTable(sb *strings.Builder, rows []flagRow) {
	sb.WriteString("| Flag | Type | Default | Description |\n")
	sb.WriteString("|------|------|---------|-------------|\n")
	for _, r := range rows {
		def := r.def
		if def == "" {
			def = "-"
		} else {
			def = "`" + def + "`"
		}
		sb.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s |\n", r.name, r.kind, def, strings.ReplaceAll(r.usage, "|", "\\|")))
	}
	sb.WriteString("\n")
}
