package drover

import "github.com/drover-io/drover/types"

// Re-export types from the types subpackage.
//
// This file provides a stable public API for the library's core types and
// interfaces via type aliases. Internal packages depend on `types` without
// depending on the root package, while users get the convenient
// `drover.Membership`, `drover.Cluster`, etc.
type (
	LeaderEvent = types.LeaderEvent
	Membership  = types.Membership
)

// Re-export interfaces from the types subpackage for convenience.
type (
	Cluster          = types.Cluster
	Endpoint         = types.Endpoint
	ConfigWatch      = types.ConfigWatch
	ControlWatch     = types.ControlWatch
	MembershipWatch  = types.MembershipWatch
	ConfigValidator  = types.ConfigValidator
	Logger           = types.Logger
	MetricsCollector = types.MetricsCollector
)

// Re-export LeaderEvent constants from the types subpackage.
const (
	EventMembershipChange = types.EventMembershipChange
	EventConfigChange     = types.EventConfigChange
	EventPause            = types.EventPause
	EventResume           = types.EventResume
	EventFatalError       = types.EventFatalError
)
