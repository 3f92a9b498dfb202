// Command hqctl drives the hq pipeline boards from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/hq/internal/client"
	"github.com/gosuda/hq/internal/config"
)

var (
	serverURL    string
	token        string
	verbose      bool
	writeTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "hqctl",
	Short: "Manage hq pipeline boards",
	Long: `hqctl shows and edits the investor and mission boards of an hq server.

Boards: investors, missions.

Examples:
  hqctl login --tenant acme --email me@acme.io
  hqctl board investors
  hqctl move investors 3f2a --to meeting
  hqctl create mission --title "Ship v1" --priority 2`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	},
}

func init() {
	cc := config.LoadClient()

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", cc.Server, "hq server URL (env HQ_SERVER)")
	rootCmd.PersistentFlags().StringVar(&token, "token", cc.Token, "access token (env HQ_TOKEN)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().DurationVar(&writeTimeout, "write-timeout", 10*time.Second, "timeout of each card write")

	loginCmd.Flags().StringVar(&loginTenant, "tenant", cc.TenantSlug, "tenant slug (env HQ_TENANT)")

	rootCmd.AddCommand(loginCmd, boardCmd, moveCmd, createCmd, deleteCmd)
}

func newClient() *client.Client {
	return client.New(serverURL, client.WithToken(token))
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		cancel()
		os.Exit(1) //nolint:gocritic // cancel already called
	}
}
