package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/navstate/pkg/persist"
)

func init() {
	RegisterCommand(inspectCmd())
	RegisterCommand(clearCmd())
	RegisterCommand(keysCmd())
}

// snapshotKey returns the key named on the command line or the configured
// one.
func snapshotKey(args []string, configured string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return configured
}

func inspectCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect [key]",
		Short: "Print a persisted navigation snapshot",
		Long: `Read the snapshot stored under key (default: the configured
persistence_key) and print it as JSON or YAML.

A snapshot that does not decode with the configured codec is reported as
malformed; a container would discard it and start fresh.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			codec, _ := persist.CodecByName(cfg.Codec)
			store, closeStore, err := openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer closeStore()

			key := snapshotKey(args, cfg.PersistenceKey)
			manager := persist.NewManager[any](store, persist.WithCodec(codec))
			raw, ok, err := manager.Raw(cmd.Context(), key)
			if err != nil {
				return fmt.Errorf("read snapshot %q: %w", key, err)
			}
			if !ok {
				return fmt.Errorf("no snapshot stored under %q", key)
			}

			var decoded any
			if err := codec.Decode([]byte(raw), &decoded); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "snapshot %q is malformed (%v); raw value follows\n", key, err)
				fmt.Fprintln(cmd.OutOrStdout(), raw)
				return nil
			}
			return printValue(cmd, format, decoded)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	return cmd
}

func printValue(cmd *cobra.Command, format string, v any) error {
	var data []byte
	var err error
	switch format {
	case "json":
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	case "yaml", "yml":
		data, err = yaml.Marshal(v)
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [key]",
		Short: "Delete a persisted navigation snapshot",
		Long: `Delete the snapshot stored under key (default: the configured
persistence_key). The next container startup begins from the router's
initial state.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer closeStore()

			key := snapshotKey(args, cfg.PersistenceKey)
			if err := persist.NewManager[any](store).Clear(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", key)
			return nil
		},
	}
}

func keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List persisted snapshot keys",
		Long:  `List the keys held by the configured store. Only the sqlite backend can enumerate keys.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer closeStore()

			lister, ok := store.(keyLister)
			if !ok {
				return fmt.Errorf("the %s backend cannot list keys", cfg.Store.Backend)
			}
			keys, err := lister.Keys(cmd.Context())
			if err != nil {
				return err
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
