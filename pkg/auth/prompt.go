package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ShowCookieExtractionGuide prints how to capture the Weibo session
// cookie from a browser.
func ShowCookieExtractionGuide() {
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("WEIBO COOKIE EXTRACTION GUIDE")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println()
	fmt.Println("This tool needs your Weibo session cookie to read posts that")
	fmt.Println("require a logged-in session.")
	fmt.Println()
	fmt.Println("STEP 1: Log in")
	fmt.Println("   - Go to https://m.weibo.cn and log in with your account")
	fmt.Println()
	fmt.Println("STEP 2: Open Developer Tools")
	fmt.Println("   - Press F12 (Cmd+Option+I on Mac) and open the Network tab")
	fmt.Println("   - Refresh the page if the tab is empty")
	fmt.Println()
	fmt.Println("STEP 3: Copy the cookie")
	fmt.Println("   - Click any request to m.weibo.cn")
	fmt.Println("   - Under Request Headers, find the 'Cookie:' line")
	fmt.Println("   - Copy the entire value")
	fmt.Println()
	fmt.Println("The cookie expires after a while; rerun 'weibograb cookie set'")
	fmt.Println("when downloads start failing with session errors.")
	fmt.Println(strings.Repeat("=", 70))
}

// PromptCookie reads the cookie interactively. On a terminal the input
// is not echoed; otherwise it falls back to a plain line read so the
// command still works in pipes.
func PromptCookie() (string, error) {
	fmt.Print("Paste your Weibo cookie: ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read cookie: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read cookie: %w", err)
	}
	return strings.TrimSpace(line), nil
}
