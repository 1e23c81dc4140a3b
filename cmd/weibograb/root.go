package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"weibograb/pkg/auth"
	"weibograb/pkg/config"
	"weibograb/pkg/logger"
	"weibograb/pkg/ui"
	"weibograb/pkg/weibo"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "weibograb",
	Short: "Archive Weibo posts with their images and videos",
	Long: `weibograb downloads Weibo posts into a local archive.

Queue post URLs with 'add', then 'run' resolves each post through the
mobile API, downloads its media, and appends a row to a dated CSV file.
Reposts are recorded with the original post's content and the repost
wrapper preserved alongside it.

A logged-in session cookie is required for most posts; store one with
'weibograb cookie set'.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.weibograb.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`weibograb {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig builds the effective configuration from the global flags
// plus any command-specific overrides.
func loadConfig(extraFlags map[string]interface{}) (*config.Config, error) {
	flags := map[string]interface{}{}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	for k, v := range extraFlags {
		flags[k] = v
	}
	return config.Load(configFile, flags)
}

// sessionCookie returns the cookie to use: config takes priority, then
// the credential store chain.
func sessionCookie(cfg *config.Config) (cookie, userAgent string) {
	cookie = cfg.Weibo.Cookie
	userAgent = cfg.Weibo.UserAgent
	if cookie != "" {
		return cookie, userAgent
	}

	manager, err := auth.NewManager()
	if err != nil {
		return "", userAgent
	}
	cred, err := manager.Retrieve()
	if err != nil {
		return "", userAgent
	}
	if cred.UserAgent != "" {
		userAgent = cred.UserAgent
	}
	return cred.Cookie, userAgent
}

// newAPIClient builds the authenticated client used for post and
// favorites lookups.
func newAPIClient(cfg *config.Config, log logger.Logger) *weibo.Client {
	client := weibo.NewClient(cfg.Download.APITimeout, log)
	cookie, userAgent := sessionCookie(cfg)
	if cookie != "" {
		client.SetCookie(cookie)
	} else {
		ui.PrintWarning("No session cookie configured; private or restricted posts will not resolve")
	}
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return client
}
