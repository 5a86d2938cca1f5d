package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lindia/preflight/internal/checks"
)

func newChecksCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "checks",
		Short: "List the checks the gate will run",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, cfg, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			reg, err := checks.Battery(cfg)
			if err != nil {
				return err
			}

			enabled := make(map[string]bool)
			for _, c := range reg.Enabled() {
				enabled[c.Name()] = true
			}

			out := cmd.OutOrStdout()
			if asJSON {
				type item struct {
					Name    string `json:"name"`
					Enabled bool   `json:"enabled"`
				}
				var list []item
				for _, name := range reg.Names() {
					list = append(list, item{Name: name, Enabled: enabled[name]})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			for _, name := range reg.Names() {
				state := "enabled"
				if !enabled[name] {
					state = "disabled"
				}
				fmt.Fprintf(out, "%-12s %s\n", name, state)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
