// Package cmd provides shell completion scripts for gentoostats.
package cmd

import (
	"fmt"
	"strings"
)

// flag describes one command-line option for completion purposes.
type flag struct {
	long  string
	short string
	desc  string
	value string // completion hint for options taking a value, "" for switches
}

type command struct {
	name  string
	desc  string
	flags []flag
	args  []string // fixed positional choices
}

var commonFlags = []flag{
	{long: "config", desc: "Client configuration file", value: "file"},
	{long: "root", desc: "Inspect the system mounted at a directory", value: "dir"},
	{long: "json", desc: "JSON output"},
	{long: "quiet", short: "q", desc: "Errors only"},
	{long: "verbose", short: "v", desc: "Debug logging"},
}

// commands lists every gentoostats command in help order.
var commands = []command{
	{name: "submit", desc: "Build the report and upload it", flags: []flag{
		{long: "pretend", desc: "Print the report without uploading"},
		{long: "server", desc: "Server host:port", value: "host"},
		{long: "url", desc: "Upload path", value: "path"},
		{long: "ssl", desc: "Use HTTPS", value: "bool"},
		{long: "auth", desc: "Credentials file", value: "file"},
		{long: "payload", desc: "Payload policy file", value: "file"},
	}},
	{name: "dump", desc: "Print the report that would be submitted", flags: []flag{
		{long: "human", desc: "Indented output"},
		{long: "payload", desc: "Payload policy file", value: "file"},
	}},
	{name: "sbom", desc: "Export installed packages as an SBOM", flags: []flag{
		{long: "format", desc: "SBOM format", value: "format"},
		{long: "output", short: "o", desc: "Output file", value: "file"},
	}},
	{name: "history", desc: "Show previous submissions", flags: []flag{
		{long: "limit", desc: "Number of records", value: "n"},
	}},
	{name: "watch", desc: "Re-print the report when the policy changes", flags: []flag{
		{long: "payload", desc: "Payload policy file", value: "file"},
	}},
	{name: "init", desc: "Write default configuration files", flags: []flag{
		{long: "force", desc: "Overwrite existing files"},
		{long: "payload", desc: "Payload policy file", value: "file"},
	}},
	{name: "completion", desc: "Generate shell completion script", args: []string{"bash", "zsh", "fish", "powershell"}},
	{name: "help", desc: "Show help information"},
}

func commandNames() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}
	return names
}

// options returns the option words of c, common flags included.
func (c command) options() []string {
	if c.args != nil {
		return c.args
	}
	var out []string
	for _, f := range append(append([]flag{}, c.flags...), commonFlags...) {
		out = append(out, "--"+f.long)
		if f.short != "" {
			out = append(out, "-"+f.short)
		}
	}
	return out
}

// GenerateBashCompletion generates bash completion script
func GenerateBashCompletion() string {
	var cases strings.Builder
	for _, c := range commands {
		fmt.Fprintf(&cases, "        %s)\n            opts=\"%s\"\n            ;;\n", c.name, strings.Join(c.options(), " "))
	}

	return fmt.Sprintf(`# bash completion for gentoostats
_gentoostats_completions() {
    local cur prev opts cmd
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    cmd="${COMP_WORDS[1]}"

    case "${prev}" in
        --config|--auth|--payload|--output|-o|--root)
            COMPREPLY=( $(compgen -f -- ${cur}) )
            return 0
            ;;
        --format)
            COMPREPLY=( $(compgen -W "cyclonedx spdx" -- ${cur}) )
            return 0
            ;;
        --ssl)
            COMPREPLY=( $(compgen -W "yes no" -- ${cur}) )
            return 0
            ;;
    esac

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        opts="%s"
    else
        case "${cmd}" in
%s            *)
                opts=""
                ;;
        esac
    fi

    COMPREPLY=( $(compgen -W "${opts}" -- ${cur}) )
    return 0
}

complete -F _gentoostats_completions gentoostats
`, strings.Join(commandNames(), " "), cases.String())
}

// GenerateZshCompletion generates zsh completion script
func GenerateZshCompletion() string {
	cmdList := make([]string, len(commands))
	for i, c := range commands {
		cmdList[i] = fmt.Sprintf("        '%s:%s'", c.name, c.desc)
	}

	var cases strings.Builder
	for _, c := range commands {
		var specs []string
		if c.args != nil {
			specs = append(specs, fmt.Sprintf("'1:shell:(%s)'", strings.Join(c.args, " ")))
		} else {
			for _, f := range append(append([]flag{}, c.flags...), commonFlags...) {
				specs = append(specs, zshSpec(f)...)
			}
		}
		if len(specs) == 0 {
			continue
		}
		fmt.Fprintf(&cases, "                %s)\n                    _arguments \\\n                        %s\n                    ;;\n",
			c.name, strings.Join(specs, " \\\n                        "))
	}

	return fmt.Sprintf(`#compdef gentoostats

_gentoostats() {
    local -a commands
    commands=(
%s
    )

    _arguments -C \
        '1: :->command' \
        '*::arg:->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
%s            esac
            ;;
    esac
}

_gentoostats "$@"
`, strings.Join(cmdList, "\n"), cases.String())
}

func zshSpec(f flag) []string {
	suffix := ""
	switch f.value {
	case "":
	case "file", "dir":
		suffix = ":" + f.value + ":_files"
	case "format":
		suffix = ":format:(cyclonedx spdx)"
	default:
		suffix = ":" + f.value + ":"
	}
	specs := []string{fmt.Sprintf("'--%s[%s]%s'", f.long, f.desc, suffix)}
	if f.short != "" {
		specs = append(specs, fmt.Sprintf("'-%s[%s]%s'", f.short, f.desc, suffix))
	}
	return specs
}

// GenerateFishCompletion generates fish completion script
func GenerateFishCompletion() string {
	var completions []string

	for _, c := range commands {
		completions = append(completions, fmt.Sprintf("complete -c gentoostats -f -n '__fish_use_subcommand' -a '%s' -d '%s'", c.name, c.desc))
	}

	for _, c := range commands {
		completions = append(completions, "# "+c.name)
		cond := fmt.Sprintf("-n '__fish_seen_subcommand_from %s'", c.name)
		if c.args != nil {
			completions = append(completions, fmt.Sprintf("complete -c gentoostats %s -f -a '%s'", cond, strings.Join(c.args, " ")))
			continue
		}
		for _, f := range c.flags {
			completions = append(completions, fishLine(cond, f))
		}
	}

	completions = append(completions, "# common options")
	for _, f := range commonFlags {
		completions = append(completions, fishLine("-n 'not __fish_use_subcommand'", f))
	}

	return strings.Join(completions, "\n")
}

func fishLine(cond string, f flag) string {
	line := fmt.Sprintf("complete -c gentoostats %s -l %s", cond, f.long)
	if f.short != "" {
		line += " -s " + f.short
	}
	line += fmt.Sprintf(" -d '%s'", f.desc)
	if f.value != "" {
		line += " -r"
	}
	return line
}

// GeneratePowerShellCompletion generates PowerShell completion script
func GeneratePowerShellCompletion() string {
	quote := func(words []string) string {
		out := make([]string, len(words))
		for i, w := range words {
			out[i] = "'" + w + "'"
		}
		return strings.Join(out, ", ")
	}

	var cases strings.Builder
	for _, c := range commands {
		fmt.Fprintf(&cases, "            '%s' { $options = @(%s) }\n", c.name, quote(c.options()))
	}

	return fmt.Sprintf(`# PowerShell completion for gentoostats
Register-ArgumentCompleter -Native -CommandName gentoostats -ScriptBlock {
    param($wordToComplete, $commandAst, $cursorPosition)

    $commands = @(%s)

    $line = $commandAst.ToString()
    $tokens = $line.Split(' ')

    if ($tokens.Count -eq 2) {
        $commands | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
        }
    }
    elseif ($tokens.Count -gt 2) {
        $options = @()
        switch ($tokens[1]) {
%s        }
        $options | Where-Object { $_ -like "$wordToComplete*" } | ForEach-Object {
            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)
        }
    }
}
`, quote(commandNames()), cases.String())
}

// Generate returns the completion script for shell.
func Generate(shell string) (string, error) {
	switch shell {
	case "bash":
		return GenerateBashCompletion(), nil
	case "zsh":
		return GenerateZshCompletion(), nil
	case "fish":
		return GenerateFishCompletion(), nil
	case "powershell":
		return GeneratePowerShellCompletion(), nil
	default:
		return "", fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", shell)
	}
}
