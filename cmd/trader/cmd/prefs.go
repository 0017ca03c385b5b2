package cmd

import (
	"fmt"
	"io"

	"github.com/rustyeddy/tradesim/config"
	"github.com/rustyeddy/tradesim/store"
	"github.com/spf13/cobra"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change stored order ticket preferences",
	Long: `Preferences are the last-used order ticket settings kept in the store.
'trader run --prefs' applies them to the strategy's orders.

Examples:
  trader prefs show
  trader prefs set stop 15
  trader prefs set method atr`,
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored preferences",
	Args:  cobra.NoArgs,
	RunE:  runPrefsShow,
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Change one preference (asset, timeframe, method, units, stop, target)",
	Args:  cobra.ExactArgs(2),
	RunE:  runPrefsSet,
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default preferences",
	Args:  cobra.NoArgs,
	RunE:  runPrefsReset,
}

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsSetCmd)
	prefsCmd.AddCommand(prefsResetCmd)
}

// withStore opens the configured store for the duration of fn.
func withStore(cfg config.StoreConfig, fn func(bs store.BlobStore) error) error {
	bs, err := openStore(cfg)
	if err != nil {
		return err
	}
	if c, ok := bs.(io.Closer); ok {
		defer c.Close()
	}
	return fn(bs)
}

func runPrefsShow(cmd *cobra.Command, _ []string) error {
	return withStore(appCfg.Store, func(bs store.BlobStore) error {
		p, err := store.LoadPreferences(bs)
		if err != nil {
			appLog.WithError(err).Warn("preferences unreadable, showing defaults")
		}
		printPreferences(cmd.OutOrStdout(), p)
		return nil
	})
}

func runPrefsSet(cmd *cobra.Command, args []string) error {
	return withStore(appCfg.Store, func(bs store.BlobStore) error {
		p, err := store.LoadPreferences(bs)
		if err != nil {
			appLog.WithError(err).Warn("preferences unreadable, starting from defaults")
		}
		if err := p.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := store.SavePreferences(bs, p); err != nil {
			return fmt.Errorf("save preferences: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s\n", args[0], args[1])
		return nil
	})
}

func runPrefsReset(cmd *cobra.Command, _ []string) error {
	return withStore(appCfg.Store, func(bs store.BlobStore) error {
		p := store.DefaultPreferences()
		if err := store.SavePreferences(bs, p); err != nil {
			return fmt.Errorf("save preferences: %w", err)
		}
		printPreferences(cmd.OutOrStdout(), p)
		return nil
	})
}

func printPreferences(w io.Writer, p store.Preferences) {
	fmt.Fprintf(w, "asset:     %s\n", p.Asset)
	fmt.Fprintf(w, "timeframe: %s\n", p.Timeframe)
	fmt.Fprintf(w, "method:    %s\n", p.Method)
	fmt.Fprintf(w, "units:     %g\n", p.Units)
	fmt.Fprintf(w, "stop:      %g\n", p.Stop)
	fmt.Fprintf(w, "target:    %g\n", p.Target)
}
