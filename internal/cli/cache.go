package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bpcgraph/pkg/cache"
	apperr "github.com/matzehuels/bpcgraph/pkg/errors"
)

// cacheKinds are the entry types accepted by "cache clear --kind".
var cacheKinds = []string{"transform", "layout", "artifact"}

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local result cache",
		Long: `Manage the local cache of solutions, layouts and rendered artifacts.

The cache lives under $XDG_CACHE_HOME/bpcgraph. Entries are keyed by the
content of their inputs, so editing a problem never returns a stale result.`,
	}

	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePruneCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// openFileCache opens the local cache. ok is false when it does not exist.
func openFileCache() (fc *cache.FileCache, ok bool, err error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, false, fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, false, nil
	}
	fc, err = cache.NewFileCache(dir)
	if err != nil {
		return nil, false, fmt.Errorf("open cache: %w", err)
	}
	return fc, true, nil
}

func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count cached entries per stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := openFileCache()
			if err != nil {
				return err
			}
			if !ok {
				printInfo("Cache is empty")
				return nil
			}
			st, err := fc.Stats()
			if err != nil {
				return fmt.Errorf("read cache: %w", err)
			}

			for _, kind := range cacheKinds {
				printKeyValue(kind, fmt.Sprint(st.Entries[kind]))
			}
			if other := st.Entries["other"]; other > 0 {
				printKeyValue("other", fmt.Sprint(other))
			}
			printKeyValue("expired", fmt.Sprint(st.Expired))
			printKeyValue("size", fmt.Sprintf("%.1f KiB", float64(st.Bytes)/1024))
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached solutions, layouts and artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != "" && !slices.Contains(cacheKinds, kind) {
				return apperr.New(apperr.ErrCodeInvalidInput, "unknown cache kind %q (want transform, layout or artifact)", kind)
			}
			fc, ok, err := openFileCache()
			if err != nil {
				return err
			}
			if !ok {
				printInfo("Cache is empty")
				return nil
			}

			var n int
			if kind == "" {
				n, err = fc.Clear()
			} else {
				n, err = fc.ClearType(kind)
			}
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only clear one stage: transform, layout, artifact")
	return cmd
}

func (c *CLI) cachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := openFileCache()
			if err != nil || !ok {
				return err
			}
			n, err := fc.Prune()
			if err != nil {
				return fmt.Errorf("prune cache: %w", err)
			}
			printSuccess("Removed %d expired entries", n)
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
