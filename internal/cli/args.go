// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// globalBoolFlags never take a value, wherever they appear.
var globalBoolFlags = []string{"json", "quiet", "q", "verbose", "v", "help", "h", "no-color"}

// ArgParser splits a command's arguments into flags and positionals.
//
// Accepted forms:
//
//	--flag value    --flag=value    -f value
//	--flag          (boolean, or a known boolean flag before a positional)
//	--              (everything after is positional)
type ArgParser struct {
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser parses raw. Names in boolNames, plus the global boolean
// flags, never consume the following argument as their value.
//
//	p := NewArgParser([]string{"--json", "what is new", "--limit", "5"})
//	p.BoolFlag("json")      // true
//	p.Positional(0)         // "what is new"
//	p.FlagInt("limit")      // 5
func NewArgParser(raw []string, boolNames ...string) *ArgParser {
	p := &ArgParser{
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
		positional: make([]string, 0, len(raw)),
		raw:        raw,
	}

	isBool := make(map[string]bool, len(globalBoolFlags)+len(boolNames))
	for _, n := range globalBoolFlags {
		isBool[n] = true
	}
	for _, n := range boolNames {
		isBool[strings.TrimLeft(n, "-")] = true
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		if arg == "--" {
			p.positional = append(p.positional, raw[i+1:]...)
			break
		}
		// A lone dash, or a negative number, is a value.
		if !strings.HasPrefix(arg, "-") || arg == "-" || isNumber(arg) {
			p.positional = append(p.positional, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if k, v, ok := strings.Cut(name, "="); ok {
			if isBool[k] || v == "true" || v == "false" {
				b, err := ParseBoolString(v)
				p.boolFlags[k] = err == nil && b
			} else {
				p.flags[k] = v
			}
			continue
		}

		if !isBool[name] && i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			p.flags[name] = raw[i+1]
			i++
			continue
		}
		p.boolFlags[name] = true
	}
	return p
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// Subcommand returns the first positional argument, or "".
func (p *ArgParser) Subcommand() string {
	return p.Positional(0)
}

// Flag returns a string flag's value, or "".
func (p *ArgParser) Flag(name string) string {
	return p.flags[strings.TrimLeft(name, "-")]
}

// FlagOrDefault returns the first of names that is set, else def.
func (p *ArgParser) FlagOrDefault(def string, names ...string) string {
	for _, n := range names {
		if v := p.Flag(n); v != "" {
			return v
		}
	}
	return def
}

// FlagInt parses an integer flag.
func (p *ArgParser) FlagInt(name string) (int, error) {
	val := p.Flag(name)
	if val == "" {
		return 0, fmt.Errorf("flag --%s not set", strings.TrimLeft(name, "-"))
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, NewValidationErrorWithExample(strings.TrimLeft(name, "-"), val, "must be an integer", "--"+strings.TrimLeft(name, "-")+" 20")
	}
	return n, nil
}

// FlagIntOrDefault parses an integer flag, returning def when it is unset.
// A set but malformed value is an error.
func (p *ArgParser) FlagIntOrDefault(name string, def int) (int, error) {
	if p.Flag(name) == "" {
		return def, nil
	}
	return p.FlagInt(name)
}

// BoolFlag reports whether any of names was given as a boolean flag.
func (p *ArgParser) BoolFlag(names ...string) bool {
	for _, n := range names {
		if p.boolFlags[strings.TrimLeft(n, "-")] {
			return true
		}
	}
	return false
}

// HasFlag reports whether name was given in either form.
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, s := p.flags[name]
	_, b := p.boolFlags[name]
	return s || b
}

// Positional returns the positional argument at index, or "".
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns the positionals from index on.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return []string{}
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// Joined returns the positionals from index on, joined with spaces. Used for
// free-text queries that were not quoted.
func (p *ArgParser) Joined(index int) string {
	return strings.TrimSpace(strings.Join(p.PositionalFrom(index), " "))
}

// Raw returns the unparsed arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}

// =============================================================================
// VALUE HELPERS
// =============================================================================

// ParseBoolString accepts true/false, yes/no, y/n, 1/0 and on/off.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true, nil
	case "false", "no", "n", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}

// ParsePositiveInt parses s and requires it to be greater than zero.
func ParsePositiveInt(s, field string) (int, error) {
	if s == "" {
		return 0, NewValidationError(field, s, "is required")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, NewValidationError(field, s, "must be an integer")
	}
	if n <= 0 {
		return 0, NewValidationError(field, s, "must be positive")
	}
	return n, nil
}
