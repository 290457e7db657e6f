// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdConversations
	CmdDocuments
	CmdExport
	CmdExportConversation
	CmdResearch
	CmdBriefing
	CmdKnowledge
	CmdMetrics
	CmdServe
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdTUI:                "tui",
	CmdAsk:                "ask",
	CmdChat:               "chat",
	CmdConversations:      "conversations",
	CmdDocuments:          "documents",
	CmdExport:             "export",
	CmdExportConversation: "export-conversation",
	CmdResearch:           "research",
	CmdBriefing:           "briefing",
	CmdKnowledge:          "knowledge",
	CmdMetrics:            "metrics",
	CmdServe:              "serve",
	CmdStatus:             "status",
	CmdConfig:             "config",
	CmdVersion:            "version",
	CmdHelp:               "help",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// commandAliases maps every accepted spelling to its command.
var commandAliases = map[string]Command{
	"tui":                 CmdTUI,
	"ask":                 CmdAsk,
	"a":                   CmdAsk,
	"chat":                CmdChat,
	"conversations":       CmdConversations,
	"convs":               CmdConversations,
	"documents":           CmdDocuments,
	"docs":                CmdDocuments,
	"export":              CmdExport,
	"export-conversation": CmdExportConversation,
	"research":            CmdResearch,
	"briefing":            CmdBriefing,
	"knowledge":           CmdKnowledge,
	"kb":                  CmdKnowledge,
	"metrics":             CmdMetrics,
	"serve":               CmdServe,
	"status":              CmdStatus,
	"s":                   CmdStatus,
	"config":              CmdConfig,
	"version":             CmdVersion,
	"help":                CmdHelp,
}

// commandBoolFlags lists per-command flags that never take a value.
var commandBoolFlags = map[Command][]string{
	CmdAsk:                {"no-stream", "raw"},
	CmdChat:               {"no-history"},
	CmdExportConversation: {"open", "no-metadata"},
	CmdServe:              {"no-connect"},
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON    bool
	Quiet   bool
	Verbose bool
	NoColor bool
	Help    bool

	// Name is the command as typed, kept for error messages.
	Name string

	// Parser holds the command's own flags and positionals.
	Parser *ArgParser

	// Raw args after the command name.
	Raw []string
}

const usageText = `oneshot - terminal client for the OneShot multi-agent platform

Talks to the OneShot backend over HTTP and follows agent activity live over
a WebSocket while the agents work on your request.

Usage:
  oneshot                                 Start TUI (default)
  oneshot ask "question"                  Ask a single question
  oneshot chat                            Interactive chat with live agent output
  oneshot conversations [--limit N]       List conversations
  oneshot documents [--type T]            List generated documents
  oneshot export <doc-id> --format F      Download a document (md, html, pdf, docx)
  oneshot export-conversation <id>        Save a conversation locally (md, json, html)
  oneshot research "query"                Queue a research job
  oneshot briefing <company>              Queue a company briefing
  oneshot knowledge search "query"        Search the knowledge base
  oneshot metrics [--period P]            Agent metrics (day, week, month)
  oneshot serve [--addr host:port]        Local state bridge for other tools
  oneshot status, s                       Backend connectivity check
  oneshot config [show|get|set|path]      Configuration
  oneshot version                         Build information

Ask Options:
  --conversation <id>   Continue an existing conversation
  --no-stream           Do not open the live agent connection
  --raw                 Print the answer without markdown rendering

Chat Options:
  --conversation <id>   Resume an existing conversation
  --no-history          Do not read or write the input history file

Export Options:
  --format <fmt>        Output format
  --out <path>          Output file (default: server-suggested name)

Serve Options:
  --addr <host:port>    Listen address (default: 127.0.0.1:8765)
  --token <token>       Require a bearer token (or ONESHOT_BRIDGE_TOKEN)

Global Options:
  --json                Machine-readable output
  -q, --quiet           Only print results
  -v, --verbose         Debug logging on stderr
  --no-color            Disable colors
  -h, --help            Show this help

Environment:
  ONESHOT_API_URL       Backend base URL (overrides config)
  ONESHOT_WS_URL        WebSocket base URL (default: derived from the API URL)
  NO_COLOR              Disable colors

Examples:
  oneshot ask "Draft a proposal outline for Acme"
  oneshot conversations --limit 5 --json
  oneshot export 3f2a --format pdf --out proposal.pdf
  oneshot config set realtime.max_reconnect_attempts 8
`

// PrintUsage prints the usage text to stdout.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion prints build information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "oneshot %s\n", Version)
	fmt.Fprintf(w, "  Commit:  %s\n", GitCommit)
	fmt.Fprintf(w, "  Built:   %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:      %s\n", runtime.Version())
	fmt.Fprintf(w, "  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs splits argv into global flags, the command and the command's
// own arguments. Global flags are accepted before or after the command.
func ParseArgs(argv []string) (Command, Args) {
	var (
		leading []string
		name    string
		rest    []string
	)
	for i, arg := range argv {
		if strings.HasPrefix(arg, "-") && arg != "-" {
			leading = append(leading, arg)
			continue
		}
		name = strings.ToLower(arg)
		rest = argv[i+1:]
		break
	}

	cmd := CmdTUI
	if name != "" {
		c, ok := commandAliases[name]
		if !ok {
			c = CmdUnknown
		}
		cmd = c
	}

	pre := NewArgParser(leading)
	p := NewArgParser(rest, commandBoolFlags[cmd]...)
	args := Args{
		JSON:    pre.BoolFlag("json") || p.BoolFlag("json"),
		Quiet:   pre.BoolFlag("quiet", "q") || p.BoolFlag("quiet", "q"),
		Verbose: pre.BoolFlag("verbose", "v") || p.BoolFlag("verbose", "v"),
		NoColor: pre.BoolFlag("no-color") || p.BoolFlag("no-color"),
		Help:    pre.BoolFlag("help", "h") || p.BoolFlag("help", "h"),
		Name:    name,
		Parser:  p,
		Raw:     rest,
	}

	if args.Help && (cmd == CmdTUI || cmd == CmdUnknown) {
		cmd = CmdHelp
	}
	if pre.BoolFlag("version") && name == "" {
		cmd = CmdVersion
	}
	return cmd, args
}

// HandleVersion prints build info, as JSON when requested.
func HandleVersion(w io.Writer, args Args) error {
	if args.JSON {
		return NewJSONResponse("version", map[string]string{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
			"go":         runtime.Version(),
			"platform":   runtime.GOOS + "/" + runtime.GOARCH,
		}).Write(w)
	}
	PrintVersion(w)
	return nil
}

// UnknownCommandError is returned for a command name that does not exist.
func UnknownCommandError(name string) error {
	return NewValidationErrorWithExample("command", name, "unknown command", "oneshot help")
}
