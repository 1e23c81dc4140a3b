package ui

import "fmt"

// ASCII logo printed before every command
const ASCIILogo = `
    ╔═══════════════════════════════════════════════════════════════╗
    ║  ██╗    ██╗███████╗██╗██████╗  ██████╗                        ║
    ║  ██║    ██║██╔════╝██║██╔══██╗██╔═══██╗                       ║
    ║  ██║ █╗ ██║█████╗  ██║██████╔╝██║   ██║                       ║
    ║  ██║███╗██║██╔══╝  ██║██╔══██╗██║   ██║                       ║
    ║  ╚███╔███╔╝███████╗██║██████╔╝╚██████╔╝                       ║
    ║   ╚══╝╚══╝ ╚══════╝╚═╝╚═════╝  ╚═════╝   G R A B              ║
    ║              POST ARCHIVAL UTILITY                            ║
    ╚═══════════════════════════════════════════════════════════════╝
`

const ansiReset = "\033[0m"

// paint wraps text in the given ANSI escape code.
type paint string

func (p paint) apply(text string) string {
	return string(p) + text + ansiReset
}

// Terminal colors used across the command output.
var (
	Cyan    = paint("\033[36m").apply
	Yellow  = paint("\033[33m").apply
	Red     = paint("\033[31m").apply
	Green   = paint("\033[32m").apply
	Magenta = paint("\033[35m").apply
	Dim     = paint("\033[2m").apply
)

// PrintLogo prints the application banner
func PrintLogo() {
	fmt.Print(Cyan(ASCIILogo))
}

// PrintError prints an error line, with an optional detail appended
func PrintError(msg string, args ...interface{}) {
	fmt.Println(Red(withDetail(msg, args)))
}

// PrintWarning prints a warning line, with an optional detail appended
func PrintWarning(msg string, args ...interface{}) {
	fmt.Println(Yellow(withDetail(msg, args)))
}

// PrintSuccess prints a success line
func PrintSuccess(msg string) {
	fmt.Println(Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintHighlight prints a line that should stand out from the rest
func PrintHighlight(msg string) {
	fmt.Println(Magenta(msg))
}

func withDetail(msg string, args []interface{}) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, args[0])
}
