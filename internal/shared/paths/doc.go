// Package paths places the agent's files in per-user directories.
//
// Configured paths may be relative; they are resolved against the user's
// config root (settings, journal) or cache root (screenshots):
//
//	$XDG_CONFIG_HOME/agentbrowser/settings.toml
//	$XDG_CONFIG_HOME/agentbrowser/journal.zst
//	$XDG_CACHE_HOME/agentbrowser/screenshots/
package paths
