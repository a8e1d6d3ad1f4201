package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/authtoken"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/pkg/taskclient"
)

type cli struct {
	profilePath string
	server      string
	token       string
	timeout     time.Duration
	logLevel    string

	in         io.Reader
	out        io.Writer
	errOut     io.Writer
	httpClient *fasthttp.Client
}

func newCLI() *cli {
	return &cli{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
}

func newRootCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage your tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(c.in)
	cmd.SetOut(c.out)
	cmd.SetErr(c.errOut)

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.profilePath, "config", defaultProfilePath(), "Profile file path (YAML)")
	flags.StringVar(&c.server, "server", "", "API base URL (overrides profile and "+envServer+")")
	flags.StringVar(&c.token, "token", "", "Bearer token (overrides profile and "+envToken+")")
	flags.DurationVar(&c.timeout, "timeout", 0, "Request timeout (0 waits indefinitely)")
	flags.StringVar(&c.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		c.tokenCmd(),
		c.whoamiCmd(),
		c.listCmd(),
		c.addCmd(),
		c.editCmd(),
		c.deleteCmd(),
		c.logoutCmd(),
	)
	return cmd
}

func (c *cli) profile() (*Profile, error) {
	profile, err := LoadProfile(c.profilePath)
	if err != nil {
		return nil, err
	}
	profile.Merge(c.server, c.token)
	return profile, nil
}

func (c *cli) logger() *zap.Logger {
	zl, err := logger.New(logger.Config{Level: c.logLevel, Encoding: "console", Output: c.errOut})
	if err != nil {
		return zap.NewNop()
	}
	return zl
}

func (c *cli) client() (*taskclient.Client, error) {
	profile, err := c.profile()
	if err != nil {
		return nil, err
	}
	if profile.Token == "" {
		return nil, errors.New("no token configured; run `taskctl token --save` or set " + envToken)
	}
	return taskclient.New(profile.Server, profile.Token, taskclient.WithHTTPClient(c.httpClient)), nil
}

func (c *cli) controller() (*taskclient.Controller, error) {
	client, err := c.client()
	if err != nil {
		return nil, err
	}
	notify := taskclient.NotifierFunc(func(n taskclient.Notice) {
		if n.Level == taskclient.NoticeError {
			fmt.Fprintln(c.errOut, n.Message)
			return
		}
		fmt.Fprintln(c.out, n.Message)
	})
	return taskclient.NewController(client, notify, c.logger()), nil
}

func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *cli) tokenCmd() *cobra.Command {
	var (
		secret   string
		issuer   string
		identity domain.Identity
		ttl      time.Duration
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development token signed with the shared secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if issuer == "" {
				issuer = os.Getenv("JWT_ISSUER")
			}
			manager, err := authtoken.NewManager(secret, issuer)
			if err != nil {
				return fmt.Errorf("%w (pass --secret or set JWT_SECRET)", err)
			}
			token, claims, err := manager.Issue(identity, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}

			if save {
				profile, err := c.profile()
				if err != nil {
					return err
				}
				profile.Token = token
				if err := profile.Save(c.profilePath); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "saved token %s for %s to %s\n", claims.ID, identity.ID, c.profilePath)
				return nil
			}
			fmt.Fprintln(c.out, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret (defaults to JWT_SECRET)")
	cmd.Flags().StringVar(&issuer, "issuer", "", "Token issuer (defaults to JWT_ISSUER)")
	cmd.Flags().StringVar(&identity.ID, "user", "", "User id (token subject)")
	cmd.Flags().StringVar(&identity.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&identity.Email, "email", "", "Email address")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime (0 never expires)")
	cmd.Flags().BoolVar(&save, "save", false, "Store the token in the profile instead of printing it")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity of the configured token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			identity, err := client.Me(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Welcome, %s\n", displayName(identity))
			return nil
		},
	}
}

func (c *cli) listCmd() *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := c.controller()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			if err := ctrl.Refresh(ctx); err != nil {
				return err
			}
			printTasks(c.out, ctrl.Filter(filter))
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only show tasks whose title or description contains this text")
	return cmd
}

func (c *cli) addCmd() *cobra.Command {
	var draft taskclient.Draft
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := c.controller()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			ctrl.SetDraft(draft)
			return ctrl.Submit(ctx)
		},
	}
	cmd.Flags().StringVarP(&draft.Title, "title", "t", "", "Task title")
	cmd.Flags().StringVarP(&draft.Description, "description", "d", "", "Task description")
	return cmd
}

func (c *cli) editCmd() *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := c.controller()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			if err := ctrl.Refresh(ctx); err != nil {
				return err
			}
			task, ok := ctrl.Task(args[0])
			if !ok {
				return fmt.Errorf("task %s not found", args[0])
			}

			ctrl.BeginEdit(task)
			draft := ctrl.Draft()
			if cmd.Flags().Changed("title") {
				draft.Title = title
			}
			if cmd.Flags().Changed("description") {
				draft.Description = description
			}
			ctrl.SetDraft(draft)
			return ctrl.Submit(ctx)
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := c.controller()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			confirm := c.prompt
			if yes {
				confirm = func(string) bool { return true }
			}
			err = ctrl.RequestDelete(ctx, args[0], confirm)
			if errors.Is(err, taskclient.ErrDeleteNotConfirmed) {
				fmt.Fprintln(c.out, "aborted")
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the configured token and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			revoked, err := client.Logout(ctx)
			if err != nil && !domain.IsDomainError(err, domain.ErrCodeUnsupported) {
				return err
			}

			profile, loadErr := LoadProfile(c.profilePath)
			if loadErr != nil {
				return loadErr
			}
			profile.Token = ""
			if err := profile.Save(c.profilePath); err != nil {
				return err
			}

			if revoked == "" {
				fmt.Fprintln(c.out, "token forgotten (server revocation is not enabled)")
				return nil
			}
			fmt.Fprintf(c.out, "revoked token %s\n", revoked)
			return nil
		},
	}
}

func (c *cli) prompt(id string) bool {
	fmt.Fprintf(c.out, "Delete task %s? Are you sure? [y/N] ", id)
	answer, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func printTasks(w io.Writer, tasks []domain.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDESCRIPTION\tCREATED")
	for _, task := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			task.ID,
			task.Title,
			task.Description,
			task.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

func displayName(identity domain.Identity) string {
	if identity.Name != "" {
		return identity.Name
	}
	if identity.Email != "" {
		return identity.Email
	}
	return identity.ID
}
