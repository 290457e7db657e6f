// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/oneshot-tui/internal/config"
)

// HandleConfig shows or edits the config file.
//
//	oneshot config [show]
//	oneshot config get <key>
//	oneshot config set <key> <value>
//	oneshot config path
func HandleConfig(env *Env, args Args) error {
	p := args.Parser
	switch sub := strings.ToLower(p.Subcommand()); sub {
	case "", "show", "list":
		return showConfig(env, args)

	case "path":
		if args.JSON {
			return NewJSONResponse("config", map[string]string{"path": env.ConfigPath}).Write(env.Out)
		}
		fmt.Fprintln(env.Out, env.ConfigPath)
		return nil

	case "get":
		key := p.Positional(1)
		if key == "" {
			return ErrMissingArgument("key", "oneshot config get realtime.max_delay_ms")
		}
		val, err := env.Config.Get(key)
		if err != nil {
			return NewValidationErrorWithExample("key", key, err.Error(), "oneshot config show")
		}
		if args.JSON {
			return NewJSONResponse("config", map[string]any{key: val}).Write(env.Out)
		}
		fmt.Fprintln(env.Out, val)
		return nil

	case "set":
		key, value := p.Positional(1), p.Joined(2)
		if key == "" || p.PositionalCount() < 3 {
			return ErrMissingArgument("key and value", "oneshot config set ui.theme light")
		}
		next := env.Config.Clone()
		if err := next.Set(key, value); err != nil {
			return NewValidationError("key", key, err.Error())
		}
		if err := next.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if err := config.SaveTo(next, env.ConfigPath); err != nil {
			return NewCommandError("config", "save", err)
		}
		env.Config = next
		if args.JSON {
			return NewJSONResponse("config", map[string]any{"key": key, "value": value, "path": env.ConfigPath}).Write(env.Out)
		}
		if !args.Quiet {
			fmt.Fprintf(env.Out, "%s %s = %s\n", SuccessStyle.Render("Set"), key, value)
		}
		return nil

	default:
		return NewValidationErrorWithExample("subcommand", sub, "must be show, get, set or path", "oneshot config set ui.theme light")
	}
}

func showConfig(env *Env, args Args) error {
	if args.JSON {
		return NewJSONResponse("config", env.Config).Write(env.Out)
	}
	keys := config.Keys()
	width := 0
	for _, key := range keys {
		_, field, _ := strings.Cut(key, ".")
		width = max(width, len(field))
	}
	label := LabelStyle.Width(width + 2)

	section := ""
	for _, key := range keys {
		name, field, _ := strings.Cut(key, ".")
		if name != section {
			if section != "" {
				fmt.Fprintln(env.Out)
			}
			fmt.Fprintln(env.Out, SectionStyle.UnsetMarginTop().Render("["+name+"]"))
			section = name
		}
		val, _ := env.Config.Get(key)
		fmt.Fprintln(env.Out, "  "+label.Render(field)+ValueStyle.Render(fmt.Sprint(val)))
	}
	return nil
}
