package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-client/dispatch"
	"github.com/spf13/cobra"
)

func newWhoamiCmd(current func() *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := current().profile.Current(cmd.Context(), force)
			if err != nil {
				return err
			}
			printIdentity(cmd, id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "fetch from the server instead of the cache")
	return cmd
}

func newGetCmd(current func() *app) *cobra.Command {
	var query []string

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Send an authenticated GET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseQuery(query)
			if err != nil {
				return err
			}
			result, err := current().api.Get(cmd.Context(), args[0], dispatch.WithQuery(values))
			if err != nil {
				return err
			}
			return printResult(cmd, result)
		},
	}
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter as key=value, repeatable")
	return cmd
}

func newPostCmd(current func() *app) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "post <path>",
		Short: "Send an authenticated POST with a JSON body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body any
			if data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data is not valid JSON")
				}
				body = json.RawMessage(data)
			}
			result, err := current().api.Post(cmd.Context(), args[0], body)
			if err != nil {
				return err
			}
			return printResult(cmd, result)
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	return cmd
}

func newNotificationsCmd(current func() *app) *cobra.Command {
	notificationsCmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "Read the notification inbox",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := current().inbox.List(cmd.Context(), true)
			if err != nil {
				return err
			}
			for _, n := range list {
				marker := "*"
				if n.Read {
					marker = " "
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-12s %s\n", marker, n.ID, n.Title)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d unread\n", current().inbox.UnreadCount())
			return nil
		},
	}

	notificationsCmd.AddCommand(&cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification read",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			current().inbox.MarkRead(cmd.Context(), args[0])
		},
	}, &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification read",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			current().inbox.MarkAllRead(cmd.Context())
		},
	})
	return notificationsCmd
}

func parseQuery(pairs []string) (url.Values, error) {
	values := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("query %q is not key=value", pair)
		}
		values.Add(key, value)
	}
	return values, nil
}

func printResult(cmd *cobra.Command, result *dispatch.Result) error {
	if result.Empty() {
		fmt.Fprintf(cmd.OutOrStdout(), "%d (no content)\n", result.Status)
		return nil
	}
	if !result.JSON() {
		fmt.Fprintln(cmd.OutOrStdout(), result.Text())
		return nil
	}

	var pretty any
	if err := result.Decode(&pretty); err != nil {
		return err
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
