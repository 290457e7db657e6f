// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package events decodes realtime frames sent by the platform backend.
//
// Every frame is an envelope {event_type, timestamp, data}. Decode returns one
// of the concrete payload types in this package behind the Event interface:
//
//	evt, err := events.Decode(frame)
//	if err != nil {
//	    // log and drop; never fatal
//	}
//	switch e := evt.(type) {
//	case *events.StreamToken:
//	    ...
//	}
//
// Unknown tags decode to *UnknownEventError so newer backends stay compatible.
package events
