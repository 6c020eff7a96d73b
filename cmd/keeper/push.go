package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hudkeep/keeper/internal/util"
	"github.com/hudkeep/keeper/internal/watch"
)

var flagDebounce time.Duration

var pushCmd = &cobra.Command{
	Use:   "push <local-dir> [prefix]",
	Short: "Mirror a flat local folder into a remote prefix",
	Long: `Diffs every file in the folder against the remote prefix and uploads
new and updated files. If any file cannot be decided (the remote copy is
newer, or updates are not allowed), the whole batch is rejected and nothing
is transferred.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		prefix := pushPrefix(a, args)
		result, err := a.keeper.Push(cmd.Context(), args[0], prefix, transferPolicy())
		if err != nil {
			return err
		}
		fmt.Printf("pushed %d of %d file(s) to %s\n", result.Transferred, len(result.Entries), prefix)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <local-dir> [prefix]",
	Short: "Watch a folder and push it on every change",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		prefix := pushPrefix(a, args)
		w := watch.New(args[0], flagDebounce, func(ctx context.Context) error {
			result, err := a.keeper.Push(ctx, args[0], prefix, transferPolicy())
			if err != nil {
				return err
			}
			if result.Transferred > 0 {
				fmt.Printf("pushed %d file(s) to %s\n", result.Transferred, prefix)
			}
			return nil
		})
		return w.Watch(cmd.Context())
	},
}

func pushPrefix(a *app, args []string) string {
	prefix := ""
	if len(args) > 1 {
		prefix = args[1]
	}
	return util.JoinKey(a.cfg.Remote.GetPrefix(), prefix)
}

func init() {
	addPolicyFlags(pushCmd)
	addPolicyFlags(watchCmd)
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", watch.DefaultDebounce, "How long changes must settle before a push")
	rootCmd.AddCommand(pushCmd, watchCmd)
}
