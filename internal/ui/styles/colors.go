// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/oneshot-tui/internal/model"
)

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Purple - Primary accent, assistant messages, selections
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, user highlights
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Blue - Executing agents
var Blue = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}

// Emerald - Success, completed agents, open connection
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, thinking agents, reconnecting
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Orange, Pink, Yellow are only used for agent identity.
var (
	Orange = lipgloss.AdaptiveColor{Light: "#EA580C", Dark: "#FB923C"}
	Pink   = lipgloss.AdaptiveColor{Light: "#DB2777", Dark: "#F472B6"}
	Yellow = lipgloss.AdaptiveColor{Light: "#CA8A04", Dark: "#FACC15"}
)

// =============================================================================
// SURFACE AND TEXT
// =============================================================================

var (
	Surface       = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
	SurfaceDim    = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}
	SurfaceBright = lipgloss.AdaptiveColor{Light: "#FAFAFA", Dark: "#313244"}
	Overlay       = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
	TextInverse   = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

	UserBorder      = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}
	AssistantBorder = lipgloss.AdaptiveColor{Light: "#C4B5FD", Dark: "#A78BFA"}
	LinkColor       = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}
	SelectionBg     = lipgloss.AdaptiveColor{Light: "#BFDBFE", Dark: "#1E3A5F"}
)

// =============================================================================
// AGENTS
// =============================================================================

var agentColors = map[model.AgentName]lipgloss.AdaptiveColor{
	model.AgentOrchestrator: Purple,
	model.AgentStrategist:   Blue,
	model.AgentResearcher:   Emerald,
	model.AgentAnalyst:      Orange,
	model.AgentScribe:       Pink,
	model.AgentAdvisor:      Cyan,
	model.AgentMemory:       Yellow,
}

// AgentColor returns the identity color for an agent, TextSecondary for
// unknown names.
func AgentColor(name model.AgentName) lipgloss.AdaptiveColor {
	if c, ok := agentColors[name]; ok {
		return c
	}
	return TextSecondary
}

// StatusColor returns the badge color for an agent status.
func StatusColor(s model.AgentStatus) lipgloss.AdaptiveColor {
	switch s {
	case model.StatusThinking:
		return Amber
	case model.StatusExecuting:
		return Blue
	case model.StatusWaiting:
		return Purple
	case model.StatusCompleted:
		return Emerald
	case model.StatusError:
		return Rose
	default:
		return TextMuted
	}
}

// StatusIndicator returns an ASCII marker so status reads without color.
func StatusIndicator(s model.AgentStatus) string {
	switch s {
	case model.StatusThinking:
		return "[~]"
	case model.StatusExecuting:
		return "[>]"
	case model.StatusWaiting:
		return "[.]"
	case model.StatusCompleted:
		return "[OK]"
	case model.StatusError:
		return "[X]"
	default:
		return "[ ]"
	}
}
