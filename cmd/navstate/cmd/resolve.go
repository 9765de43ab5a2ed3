package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-drift/navstate/pkg/navigation"
)

func init() {
	RegisterCommand(resolveCmd())
}

func resolveCmd() *cobra.Command {
	var prefix string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <url>...",
		Short: "Show the router path a deep link resolves to",
		Long: `Split each URL on the configured URI prefix and print the path a
container passes to its router.

The prefix defaults to uri_prefix from the config file, then "://".`,
		Example: `  navstate resolve myapp://chat/42
  navstate resolve --prefix example.com/app/ https://example.com/app/settings`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delim := prefix
			if delim == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				delim = cfg.URIPrefix
			}

			out := cmd.OutOrStdout()
			for _, rawURL := range args {
				loc := navigation.ResolveURL(rawURL, delim)
				if asJSON {
					data, err := json.Marshal(struct {
						URL    string              `json:"url"`
						Path   string              `json:"path"`
						Params map[string][]string `json:"params"`
					}{rawURL, loc.Path, loc.Params})
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(data))
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", rawURL, loc.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "URI prefix separating the scheme from the path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per URL")
	return cmd
}
