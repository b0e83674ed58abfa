// Package tui provides terminal output and progress reporting for gentoostats.
package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gg7/gentoostats/internal/core"
	"github.com/gg7/gentoostats/internal/types"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	styleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// output receives status messages. Reports and SBOMs go to stdout, so
// everything else is kept on stderr.
var output io.Writer = os.Stderr

// PrintError displays an error message with styling to the terminal.
func PrintError(title, msg string) {
	fmt.Fprintln(output, styleErr.Render("✖ "+title))
	fmt.Fprintln(output, msg)
}

// PrintSuccess displays a success message with styling to the terminal.
func PrintSuccess(msg string) { fmt.Fprintln(output, styleSuccess.Render("✔ "+msg)) }

// PrintInfo displays an informational message to the terminal.
func PrintInfo(msg string) { fmt.Fprintln(output, styleInfo.Render(msg)) }

// PrintWarning displays a warning message with styling to the terminal.
func PrintWarning(title, msg string) {
	fmt.Fprintln(output, styleWarn.Render("! "+title))
	fmt.Fprintln(output, msg)
}

// StyleTitle applies title styling to the given text string.
func StyleTitle(text string) string { return styleTitle.Render(text) }

// PrintHistory renders submission records as a table on stdout.
func PrintHistory(records []types.SubmissionRecord) {
	if len(records) == 0 {
		fmt.Println(styleDim.Render("No submissions recorded"))
		return
	}

	fmt.Println(styleTitle.Render(fmt.Sprintf("%-20s  %-10s  %-8s  %-12s  %s", "SUBMITTED", "STATUS", "PACKAGES", "DIGEST", "SERVER")))
	for _, r := range records {
		var status string
		switch r.Status {
		case types.StatusSubmitted:
			status = styleSuccess.Render(fmt.Sprintf("%-10s", r.Status))
		case types.StatusFailed:
			status = styleErr.Render(fmt.Sprintf("%-10s", r.Status))
		default:
			status = styleDim.Render(fmt.Sprintf("%-10s", r.Status))
		}
		fmt.Printf("%-20s  %s  %8d  %-12s  %s\n",
			r.SubmittedAt.Local().Format(time.DateTime),
			status,
			r.Packages,
			shortDigest(r.Digest),
			r.Server)
	}
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

// PrintPolicySummary lists the entries a policy keeps out of reports.
func PrintPolicySummary(policy *core.Policy) {
	disabled := policy.Disabled()
	if len(disabled) == 0 {
		PrintInfo(fmt.Sprintf("Policy %s reports every field", policy.Source()))
		return
	}
	PrintInfo(fmt.Sprintf("Policy %s withholds %s: %s",
		policy.Source(),
		core.Pluralize(len(disabled), "field", "fields"),
		strings.Join(disabled, ", ")))
}

// PrintHelp displays usage information for gentoostats commands.
func PrintHelp() {
	fmt.Println(styleTitle.Render("gentoostats"))
	fmt.Println("Collect anonymous statistics about a Gentoo installation and submit them")
	fmt.Println("\nCommands:")
	fmt.Println("  submit [options]    Build the report and upload it to the stats server")
	fmt.Println("    --pretend         Print what would be sent without uploading")
	fmt.Println("    --server <host>   Server host:port (default: " + types.DefaultServer + ")")
	fmt.Println("    --url <path>      Upload path (default: " + types.DefaultUploadURL + ")")
	fmt.Println("    --ssl=<bool>      Use HTTPS (default: true)")
	fmt.Println("    --auth <file>     Credentials file (default: " + types.DefaultAuthFile + ")")
	fmt.Println("    --payload <file>  Payload policy (default: " + types.DefaultPayloadFile + ")")
	fmt.Println("  dump [--human]      Print the report that would be submitted")
	fmt.Println("  sbom [options]      Export installed packages as an SBOM")
	fmt.Println("    --format <fmt>    cyclonedx (default) or spdx")
	fmt.Println("    -o <file>         Write to file instead of stdout")
	fmt.Println("  history [--limit N] Show previous submissions")
	fmt.Println("  watch               Re-print the report whenever the payload policy changes")
	fmt.Println("  init [--force]      Write default gentoostats.yml and payload.yml")
	fmt.Println("  completion <shell>  Generate shell completion script (bash/zsh/fish/powershell)")
	fmt.Println("\nCommon options:")
	fmt.Println("  --config <file>     Client configuration (default: " + core.ConfigDir + "/" + core.ClientConfigFile + ")")
	fmt.Println("  --root <dir>        Inspect the Gentoo system mounted at <dir>")
	fmt.Println("  --json              Machine-readable output")
	fmt.Println("  --quiet, -q         Errors only")
	fmt.Println("  --verbose, -v       Debug logging on stderr")
	fmt.Println("\nExamples:")
	fmt.Println("  gentoostats init")
	fmt.Println("  gentoostats dump --human")
	fmt.Println("  gentoostats submit --pretend")
	fmt.Println("  gentoostats submit --server localhost:5000 --ssl=no")
	fmt.Println("  gentoostats sbom --format spdx -o host.spdx.json")
	fmt.Println("  gentoostats history --limit 5")
	fmt.Println("  gentoostats completion bash > /etc/bash_completion.d/gentoostats")
}
