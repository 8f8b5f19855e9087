// Package config loads reactor settings.
//
// A configuration file may be YAML (.yaml, .yml), TOML (.toml) or CUE
// (.cue). Every format rejects unknown keys. CUE files are unified with an
// embedded schema, so they are checked against the same constraints and
// defaults the other formats get from Default and Validate.
//
// Environment variables override file values:
//
//	REACTOR_CHANNEL_CAPACITY  channel.capacity
//	REACTOR_JOURNAL           journal.path
//
// The log settings are overridden by the logging package's own variables.
package config
