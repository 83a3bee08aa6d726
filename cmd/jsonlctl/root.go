package main

import (
	"github.com/danmuck/jsonl/internal/config"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "jsonlctl",
		Short:         "Frame, inspect and relay newline-delimited JSON streams",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	opts.bind(root)
	root.AddCommand(
		newInitCmd(),
		newTailCmd(opts),
		newEchoCmd(opts),
		newSendCmd(opts),
	)
	return root
}

func newInitCmd() *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write an example config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "jsonl.toml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteTemplate(path, overwrite); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing file")
	return cmd
}

func newTailCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print records read from stdin or a remote stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			return runWithAdmin(cmd.Context(), cfg, func(rt *runtime) error {
				return runTail(rt, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&opts.connect, "connect", "", "read from this TCP address instead of stdin")
	return cmd
}

func newEchoCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Serve connections that write every JSON record back to the sender",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			return runWithAdmin(cmd.Context(), cfg, func(rt *runtime) error {
				ln, err := listen(cfg)
				if err != nil {
					return err
				}
				return serveEcho(rt, ln)
			})
		},
	}
	cmd.Flags().StringVar(&opts.listen, "listen", "", "TCP address to accept connections on")
	return cmd
}

func newSendCmd(opts *options) *cobra.Command {
	var dropText bool
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Re-frame stdin records to stdout or a remote stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			return runWithAdmin(cmd.Context(), cfg, func(rt *runtime) error {
				return runSend(rt, cmd.InOrStdin(), cmd.OutOrStdout(), dropText)
			})
		},
	}
	cmd.Flags().StringVar(&opts.connect, "connect", "", "write to this TCP address instead of stdout")
	cmd.Flags().BoolVar(&dropText, "drop-text", false, "skip non-JSON lines instead of wrapping them")
	return cmd
}
