package main

import (
	"github.com/spf13/cobra"

	"weibograb/pkg/auth"
	"weibograb/pkg/ui"
)

var cookieShowGuide bool

// cookieCmd represents the cookie command
var cookieCmd = &cobra.Command{
	Use:   "cookie",
	Short: "Manage the Weibo session cookie",
	Long: `Manage the stored Weibo session cookie.

The cookie is kept in the system keychain when available, falling back
to an encrypted file. WEIBOGRAB_COOKIE overrides both.`,
}

// cookieSetCmd represents the cookie set command
var cookieSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store a session cookie",
	Long: `Prompt for a session cookie and store it securely.

Use --guide to see how to capture the cookie from your browser.`,
	Example: `  weibograb cookie set
  weibograb cookie set --guide`,
	Args: cobra.NoArgs,
	RunE: runCookieSet,
}

// cookieShowCmd represents the cookie show command
var cookieShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored cookie (masked)",
	Args:  cobra.NoArgs,
	RunE:  runCookieShow,
}

// cookieClearCmd represents the cookie clear command
var cookieClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored cookie",
	Args:  cobra.NoArgs,
	RunE:  runCookieClear,
}

func init() {
	rootCmd.AddCommand(cookieCmd)
	cookieCmd.AddCommand(cookieSetCmd)
	cookieCmd.AddCommand(cookieShowCmd)
	cookieCmd.AddCommand(cookieClearCmd)

	cookieSetCmd.Flags().BoolVar(&cookieShowGuide, "guide", false, "show cookie extraction instructions first")
}

func runCookieSet(cmd *cobra.Command, args []string) error {
	if cookieShowGuide {
		auth.ShowCookieExtractionGuide()
	}

	cookie, err := auth.PromptCookie()
	if err != nil {
		ui.PrintError("Failed to read cookie", err.Error())
		return err
	}
	if cookie == "" {
		ui.PrintError("Empty cookie; nothing stored")
		return auth.ErrInvalidCredential
	}

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential storage", err.Error())
		return err
	}
	if err := manager.Store(&auth.Credential{Cookie: cookie}); err != nil {
		ui.PrintError("Failed to store cookie", err.Error())
		return err
	}
	ui.PrintSuccess("Cookie stored")
	return nil
}

func runCookieShow(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential storage", err.Error())
		return err
	}

	cred, err := manager.Retrieve()
	if err != nil {
		ui.PrintWarning("No cookie stored")
		return nil
	}

	ui.PrintInfo("Cookie", auth.MaskCookie(cred.Cookie))
	if !cred.LastModified.IsZero() {
		ui.PrintInfo("Stored", cred.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runCookieClear(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential storage", err.Error())
		return err
	}

	if err := manager.Delete(); err != nil {
		ui.PrintWarning("No cookie stored")
		return nil
	}
	ui.PrintSuccess("Cookie removed")
	return nil
}
