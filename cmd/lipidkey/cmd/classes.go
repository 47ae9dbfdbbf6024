package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/lipidkey/pkg/core"
	"github.com/ChrisMcGann/lipidkey/pkg/lipidclass"
)

var classesJSON bool

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List the lipid classes of the registry",
	Long: `List every lipid class with its chain positions, whitelist columns and
adducts. With --json the whole registry is written in the format accepted
by --registry, as a starting point for custom classes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(registryFile)
		if err != nil {
			return err
		}
		if classesJSON {
			return reg.WriteJSON(os.Stdout)
		}
		return printClasses(os.Stdout, reg)
	},
}

func init() {
	classesCmd.Flags().BoolVar(&classesJSON, "json", false, "Write the registry as JSON")
}

func printClasses(out io.Writer, reg *lipidclass.Registry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Class\tColumn\tPositions\tAdducts")
	for _, name := range reg.Classes() {
		c, err := reg.Class(name)
		if err != nil {
			return err
		}
		column := strings.Join(c.Columns(), ",")
		positions := make([]string, len(c.Positions))
		for i, p := range c.Positions {
			links := make([]string, len(p.Links))
			for j, l := range p.Links {
				links[j] = string(l)
			}
			positions[i] = p.Name + "[" + strings.Join(links, ",") + "]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, column, strings.Join(positions, " "), strings.Join(c.Adducts, " "))
	}
	return tw.Flush()
}

// linkNames lists the accepted spellings of --links.
func linkNames() string {
	names := make([]string, len(core.Links))
	for i, l := range core.Links {
		names[i] = string(l)
	}
	return strings.Join(names, ",")
}
