package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add TERM [MEANING...]",
	Short: "Add a word",
	Example: `  vocabd add serendipity "a happy accident"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List words in insertion order",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var renameCmd = &cobra.Command{
	Use:   "rename ID TERM [MEANING...]",
	Short: "Change a word's term and meaning",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runRename,
}

var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a word and its review history",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(addCmd, listCmd, renameCmd, deleteCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		w, err := a.svc.AddWord(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), w.ID)
		return nil
	})
}

func runList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		words, err := a.svc.Words(ctx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), output, words, wordTable(words))
	})
}

func runRename(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		w, err := a.svc.RenameWord(ctx, args[0], args[1], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s renamed to %q\n", w.ID, w.Term)
		return nil
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.svc.DeleteWord(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s deleted\n", args[0])
		return nil
	})
}
