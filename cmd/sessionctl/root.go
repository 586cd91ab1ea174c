package main

import (
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/spf13/cobra"
)

func newRootCmd(c config.Config) *cobra.Command {
	var a *app

	rootCmd := &cobra.Command{
		Use:   "sessionctl",
		Short: "Sign in and call the Sankofa API with a persisted session",
		Long: `sessionctl keeps one signed-in session on disk and uses it for API calls.

Access tokens are refreshed shortly before they expire, and once more if the
server rejects one. A rejected refresh ends the session (exit code 2).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(c.GetLogLevel())
			built, err := newApp(c)
			if err != nil {
				return err
			}
			a = built
			return nil
		},
	}

	current := func() *app { return a }
	rootCmd.AddCommand(
		newBannerCmd(c),
		newLoginCmd(current),
		newRegisterCmd(current),
		newOTPCmd(current),
		newLogoutCmd(current),
		newStatusCmd(current),
		newRefreshCmd(current),
		newWhoamiCmd(current),
		newGetCmd(current),
		newPostCmd(current),
		newNotificationsCmd(current),
	)
	return rootCmd
}

func newBannerCmd(c config.Config) *cobra.Command {
	return &cobra.Command{
		Use:    "banner",
		Short:  "Print the application banner",
		Hidden: true,
		Args:   cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			displayAppname(c.GetAppName())
		},
	}
}
