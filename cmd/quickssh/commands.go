package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ganot/quickssh/internal/codec"
	"github.com/ganot/quickssh/internal/domain/activity"
	"github.com/ganot/quickssh/internal/domain/store"
	"github.com/ganot/quickssh/internal/domain/tree"
	"github.com/spf13/cobra"
)

func newListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list [location]",
		Short: "Print the session tree, or the part under a folder",
		Long: `Print the session tree with child indices. A location is a slash-separated
list of names such as /work/db; the root is used when it is omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.store.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			path, err := t.ResolveLocation(firstArg(args))
			if err != nil {
				return err
			}
			nodes := t.Roots
			if !path.IsRoot() {
				node, err := t.Get(path)
				if err != nil {
					return err
				}
				folder, ok := node.(*tree.Folder)
				if !ok {
					printNodes(cmd.OutOrStdout(), []tree.Node{node}, 0)
					return nil
				}
				nodes = folder.Children
			}
			if len(nodes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(empty)")
				return nil
			}
			printNodes(cmd.OutOrStdout(), nodes, 0)
			return nil
		},
	}
}

func printNodes(w io.Writer, nodes []tree.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for i, node := range nodes {
		switch n := node.(type) {
		case *tree.Folder:
			fmt.Fprintf(w, "%s[%d] %s/\n", indent, i, n.Name)
			printNodes(w, n.Children, depth+1)
		case *tree.Session:
			target := fmt.Sprintf("%s:%d", n.Host, n.Port)
			if n.Login != "" {
				target = n.Login + "@" + target
			}
			fmt.Fprintf(w, "%s[%d] %s  %s\n", indent, i, n.Name, target)
		}
	}
}

func newMenuCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Print the editor menu generated from the sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.store.Menu(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func newOpenCmd(c *cli) *cobra.Command {
	var req store.OpenRequest

	cmd := &cobra.Command{
		Use:   "open [location]",
		Short: "Launch the SSH client for a stored session or explicit details",
		Long: `Launch the SSH client. With a location the stored session is used;
otherwise the --host, --port, --login and --password flags are passed through
(--password takes a stored token). Without a host the client starts bare.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var spec store.LaunchSpec
			if location := firstArg(args); strings.Trim(location, "/") != "" {
				t, err := a.store.Sessions(cmd.Context())
				if err != nil {
					return err
				}
				path, err := t.ResolveLocation(location)
				if err != nil {
					return err
				}
				spec, err = a.store.LaunchPath(cmd.Context(), path)
				if err != nil {
					return err
				}
			} else {
				spec, err = a.store.Launch(cmd.Context(), req)
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "opened %s\n", spec)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Host, "host", "", "server host")
	cmd.Flags().IntVar(&req.Port, "port", 0, "server port (default 22)")
	cmd.Flags().StringVar(&req.Login, "login", "", "login name")
	cmd.Flags().StringVar(&req.Password, "password", "", "stored password token")
	return cmd
}

func newNewCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a session or a folder",
	}
	cmd.AddCommand(newNewSessionCmd(c), newNewFolderCmd(c))
	return cmd
}

func newNewSessionCmd(c *cli) *cobra.Command {
	var (
		parent string
		in     store.SessionInput
	)
	cmd := &cobra.Command{
		Use:   "session NAME",
		Short: "Create a session; the password is stored encoded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			in.Name = args[0]
			return createNode(cmd, a, parent, func(p tree.Path) (tree.Path, error) {
				return a.store.CreateSession(cmd.Context(), p, in)
			})
		},
	}
	cmd.Flags().StringVar(&parent, "in", "", "parent folder location (default root)")
	cmd.Flags().StringVar(&in.Host, "host", "", "server host")
	cmd.Flags().IntVar(&in.Port, "port", 22, "server port")
	cmd.Flags().StringVar(&in.Login, "login", "", "login name")
	cmd.Flags().StringVar(&in.Password, "password", "", "plaintext password")
	_ = cmd.MarkFlagRequired("host")
	return cmd
}

func newNewFolderCmd(c *cli) *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "folder NAME",
		Short: "Create an empty folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return createNode(cmd, a, parent, func(p tree.Path) (tree.Path, error) {
				return a.store.CreateFolder(cmd.Context(), p, args[0])
			})
		},
	}
	cmd.Flags().StringVar(&parent, "in", "", "parent folder location (default root)")
	return cmd
}

func createNode(cmd *cobra.Command, a *app, parentLocation string, create func(tree.Path) (tree.Path, error)) error {
	t, err := a.store.Sessions(cmd.Context())
	if err != nil {
		return err
	}
	parent, err := t.ResolveLocation(parentLocation)
	if err != nil {
		return err
	}
	path, err := create(parent)
	if err != nil {
		return err
	}
	if t, err = a.store.Sessions(cmd.Context()); err != nil {
		return err
	}
	location, err := t.DescribePath(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", location)
	return nil
}

func newRemoveCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "rm LOCATION",
		Short: "Remove a session or a folder with everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.store.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			path, err := t.ResolveLocation(args[0])
			if err != nil {
				return err
			}
			if path.IsRoot() {
				return errors.New("cannot remove the root")
			}
			node, err := t.Get(path)
			if err != nil {
				return err
			}
			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Remove %s? [y/N] ", store.Describe(node))
				if !confirmed(cmd.InOrStdin()) {
					fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
					return nil
				}
			}

			removal, err := a.store.Remove(cmd.Context(), path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", removal.Description)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func confirmed(r io.Reader) bool {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func newReloadCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Encode pending passwords and regenerate the menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.store.Reload(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d sessions, %d passwords re-encrypted\n", result.Sessions, result.Reencrypted)
			return nil
		},
	}
}

func newWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload whenever the sessions file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			w := a.watcher()
			if w == nil {
				return errors.New("watch requires the file backend")
			}
			if _, err := a.store.Reload(cmd.Context()); err != nil {
				a.logger.Warn("initial reload failed", "error", err)
			}
			return w.Run(cmd.Context())
		},
	}
}

func newHistoryCmd(c *cli) *cobra.Command {
	var (
		limit   int
		subject string
		typ     string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent store activity, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			opts := activity.ListActivityOptions{Limit: limit}
			if subject != "" {
				opts.Subject = &subject
			}
			if typ != "" {
				t := activity.ActivityType(typ)
				opts.ActivityType = &t
			}
			entries, err := a.activity.GetRecentActivity(cmd.Context(), opts)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.CreatedAt.Local().Format(time.DateTime), e.ActivityType, e.Subject, e.Summary)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries")
	cmd.Flags().StringVar(&subject, "subject", "", "only entries for this location")
	cmd.Flags().StringVar(&typ, "type", "", "only entries of this type")
	return cmd
}

func newEncodeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "encode TEXT",
		Short: "Print the stored token for a plaintext password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cd, err := c.codec()
			if err != nil {
				return err
			}
			token, err := cd.Encode(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func newDecodeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "decode TOKEN",
		Short: "Print the plaintext for a stored password token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cd, err := c.codec()
			if err != nil {
				return err
			}
			text, err := cd.Decode(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func (c *cli) codec() (*codec.Codec, error) {
	return codec.New(c.cfg.Codec.KeyOne, c.cfg.Codec.KeyTwo, codec.WithRadix(c.cfg.Codec.Radix))
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
