// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"
)

// StatusReport is the --json payload of status.
type StatusReport struct {
	APIURL        string `json:"api_url"`
	WebSocketURL  string `json:"ws_url"`
	ConfigPath    string `json:"config_path"`
	Reachable     bool   `json:"reachable"`
	BackendStatus string `json:"backend_status,omitempty"`
	Version       string `json:"backend_version,omitempty"`
	LatencyMS     int64  `json:"latency_ms"`
	Error         string `json:"error,omitempty"`
}

// HandleStatus checks the backend and prints the resolved endpoints. An
// unreachable backend is reported and returned as the command's error.
func HandleStatus(ctx context.Context, env *Env, args Args) error {
	report := StatusReport{
		APIURL:       env.Client.BaseURL(),
		WebSocketURL: env.Config.WebSocketURL(),
		ConfigPath:   env.ConfigPath,
	}

	start := time.Now()
	health, err := env.Client.Health(ctx)
	report.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		report.Error = err.Error()
	} else {
		report.Reachable = true
		report.BackendStatus = health.Status
		report.Version = health.Version
	}

	if args.JSON {
		if werr := NewJSONResponse("status", report).Write(env.Out); werr != nil {
			return werr
		}
		return err
	}

	fmt.Fprintln(env.Out, TitleStyle.Render("OneShot status"))
	fmt.Fprintln(env.Out, RenderSeparator(40))
	fmt.Fprintln(env.Out, RenderLabel("API")+ValueStyle.Render(report.APIURL))
	fmt.Fprintln(env.Out, RenderLabel("Realtime")+ValueStyle.Render(report.WebSocketURL))
	if report.ConfigPath != "" {
		fmt.Fprintln(env.Out, RenderLabel("Config")+DimStyle.Render(report.ConfigPath))
	}
	if err != nil {
		fmt.Fprintln(env.Out, RenderLabel("Backend")+RenderStatus("fail"))
		return NewCommandError("status", "health", err)
	}
	line := RenderStatus(report.BackendStatus) + " " + DimStyle.Render(fmt.Sprintf("%dms", report.LatencyMS))
	if report.Version != "" {
		line += " " + DimStyle.Render("v"+report.Version)
	}
	fmt.Fprintln(env.Out, RenderLabel("Backend")+line)
	return nil
}
