package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/raumbridge/internal/core"
)

func nodesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "nodes",
		Aliases: []string{"ls"},
		Short: "List online bridge nodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(cmd.Context(), app.timeout)
			defer cancel()
			result, err := app.service.ListNodes(ctx)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}

func pressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "press <device> <button...>",
		Short: "Press a remote button (e.g. VOLUME UP, PLAY TOGGLE)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(cmd.Context(), app.timeout)
			defer cancel()
			return app.service.Press(ctx, app.target(args[0]), strings.Join(args[1:], " "))
		},
	}
}

func setCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <device> <component> <value>",
		Short: "Set a switch or slider component",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(cmd.Context(), app.timeout)
			defer cancel()
			return app.service.Set(ctx, app.target(args[0]), args[1], args[2])
		},
	}
}

func getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <device> <component>",
		Short: "Show the last known component value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(cmd.Context(), app.timeout)
			defer cancel()
			result, err := app.service.Get(ctx, app.target(args[0]), args[1])
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}

func volumeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "volume [device]",
		Short: "Read the live renderer volume",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(cmd.Context(), app.timeout)
			defer cancel()
			result, err := app.service.Volume(ctx, app.target(optionalArg(args, 0)))
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}

func browseCommand() *cobra.Command {
	var opts core.BrowseOptions

	cmd := &cobra.Command{
		Use:   "browse <device> [identifier]",
		Short: "List the root, a catalog node or the queue",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(cmd.Context(), app.timeout)
			defer cancel()
			opts.Identifier = optionalArg(args, 1)
			result, err := app.service.Browse(ctx, app.target(args[0]), opts)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
	cmd.Flags().BoolVar(&opts.Queue, "queue", false, "browse the player queue")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "page offset")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "page size (max 64)")
	return cmd
}

func actionCommand() *cobra.Command {
	var queue bool

	cmd := &cobra.Command{
		Use:   "action <device> <identifier>",
		Short: "Select a browse entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(cmd.Context(), app.timeout)
			defer cancel()
			return app.service.Action(ctx, app.target(args[0]), queue, args[1])
		},
	}
	cmd.Flags().BoolVar(&queue, "queue", false, "the entry comes from the queue directory")
	return cmd
}

func discoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Re-enumerate the rooms on the bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(cmd.Context(), app.timeout)
			defer cancel()
			result, err := app.service.Discover(ctx, app.node)
			if err != nil {
				return err
			}
			return app.printer.Print(result)
		},
	}
}

func playURICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "play-uri <device> <uri>",
		Short: "Play a stream URI on a room",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := withTimeout(cmd.Context(), app.timeout)
			defer cancel()
			return app.service.PlayURI(ctx, app.target(args[0]), args[1])
		},
	}
}

func watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [device]",
		Short: "Stream component notifications",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx := cmd.Context()
			notes, errs, err := app.service.Watch(ctx, app.node, optionalArg(args, 0))
			if err != nil {
				return err
			}
			for {
				select {
				case <-ctx.Done():
					return nil
				case note, ok := <-notes:
					if !ok {
						return nil
					}
					if err := app.printer.Print(note); err != nil {
						return err
					}
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					return core.WrapError(core.ExitRuntime, "watch", err)
				}
			}
		},
	}
}

func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}
