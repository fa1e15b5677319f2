package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/licor/internal/dictionary"
)

func newVariablesCmd(a *app) *cobra.Command {
	var section string

	c := &cobra.Command{
		Use:   "variables [name]",
		Short: "List or look up dictionary variables",
		Long: `Without arguments, lists every variable in the dictionary. With a name,
shows the full definition of that variable.

Examples:
  licor variables
  licor variables --section fluorescence
  licor variables gsw`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := dictionary.LoadEntriesOrDefault(a.cfg.Dictionary.Path)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return a.showVariable(entries, args[0])
			}
			return a.listVariables(entries, section)
		},
	}

	c.Flags().StringVar(&section, "section", "", "only list variables of this section, e.g. gas_exchange")
	return c
}

func (a *app) listVariables(entries []dictionary.Entry, section string) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		if section != "" && e.Section != section {
			continue
		}
		rows = append(rows, []string{
			e.InternalName,
			e.DisplayLabel,
			e.Units,
			e.DataType.String(),
			e.Section + "." + e.Subsection,
		})
	}
	if len(rows) == 0 {
		return fmt.Errorf("no variables in section %q", section)
	}

	st := newStyles(a.out)
	fmt.Fprintln(a.out, st.renderTable([]string{"Name", "Label", "Units", "Type", "Section"}, rows))
	fmt.Fprintln(a.out, st.muted.Render(fmt.Sprintf("%d variables", len(rows))))
	return nil
}

// showVariable prints the first entry named name, which is the one the
// parser uses.
func (a *app) showVariable(entries []dictionary.Entry, name string) error {
	for _, e := range entries {
		if e.InternalName != name {
			continue
		}
		st := newStyles(a.out)
		fmt.Fprintln(a.out, st.title.Render(e.InternalName))
		fmt.Fprintln(a.out, st.renderTable([]string{"Field", "Value"}, [][]string{
			{"Label", e.DisplayLabel},
			{"Units", e.Units},
			{"Type", e.DataType.String()},
			{"Description", e.Description},
			{"Section", e.Section + "." + e.Subsection},
			{"Source table", e.SourceTable},
		}))
		return nil
	}

	var similar []string
	lower := strings.ToLower(name)
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.InternalName), lower) {
			similar = append(similar, e.InternalName)
		}
	}
	if len(similar) > 0 {
		return fmt.Errorf("variable %q is not in the dictionary; similar: %s", name, strings.Join(similar, ", "))
	}
	return fmt.Errorf("variable %q is not in the dictionary", name)
}
