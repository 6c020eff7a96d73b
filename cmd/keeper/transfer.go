package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hudkeep/keeper/internal/reconcile"
)

var (
	flagUpdate bool
	flagForced bool
)

func transferPolicy() reconcile.Policy {
	return reconcile.Policy{Update: flagUpdate, Forced: flagForced}
}

func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagUpdate, "update", false, "Allow a newer source to overwrite the destination")
	cmd.Flags().BoolVar(&flagForced, "forced", false, "Skip all checks and always overwrite")
}

var storeCmd = &cobra.Command{
	Use:   "store <local-file> <key>",
	Short: "Upload a local file, refusing to clobber a differing remote copy",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		key := a.remoteKey(args[1])
		action, err := a.keeper.Store(cmd.Context(), args[0], key, transferPolicy())
		if err != nil {
			return err
		}
		if action == reconcile.ActionSkip {
			fmt.Printf("%s already stored as %s\n", args[0], key)
		} else {
			fmt.Printf("stored %s as %s\n", args[0], key)
		}
		return nil
	},
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <local-file> <key>",
	Short: "Download a remote object, refusing to clobber differing local edits",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		key := a.remoteKey(args[1])
		action, err := a.keeper.Retrieve(cmd.Context(), args[0], key, transferPolicy())
		if err != nil {
			return err
		}
		if action == reconcile.ActionSkip {
			fmt.Printf("%s already matches %s\n", args[0], key)
		} else {
			fmt.Printf("retrieved %s to %s\n", key, args[0])
		}
		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls [prefix]",
	Short: "List stored objects",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		prefix := ""
		if len(args) > 0 {
			prefix = args[0]
		}

		objects, err := a.keeper.List(cmd.Context(), a.remoteKey(prefix))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tSIZE\tMODIFIED\tHASH")
		for _, obj := range objects {
			hash := obj.Hash
			if hash == "" {
				hash = "-"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
				obj.Key, obj.Size, obj.ModTime.Format(time.RFC3339), hash)
		}
		return w.Flush()
	},
}

func init() {
	addPolicyFlags(storeCmd)
	addPolicyFlags(retrieveCmd)
	rootCmd.AddCommand(storeCmd, retrieveCmd, lsCmd)
}
