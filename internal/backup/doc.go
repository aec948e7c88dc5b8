// Package backup runs the backup wizard.
//
// The wizard is a strictly linear sequence of steps:
//
//	check dependencies → detect environment → repository URL → backup name
//	→ backup type → categories → shells → size estimate → stage tree
//	→ category backups → manifest → clone or init → copy → commit and push
//
// Categories run in a fixed order (shells, packages, starship, git-config,
// ssh, conda, history, cloud) and each reports a [status.Result]. A failing
// category never stops the run.
//
// Shareable backups never touch SSH keys, git identity, history or cloud
// credentials.
//
// The staged tree lives in the run's workspace. When the push fails the
// local path is reported, but the workspace is still removed when the run
// returns.
package backup
