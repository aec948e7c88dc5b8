// Package restore runs the restore wizard.
//
// The run clones the backup repository into a temporary workspace, lets the
// user pick one backups/<name> directory, and replays it onto the home
// directory: SSH keys, shells, Starship, git config, Conda, history and
// cloud credentials, in that order. Missing shells and Starship are
// installed first and the chosen default shell is set last.
//
// A failing category is reported and the run continues. Every file a
// category writes is journaled first; when any category reports an error
// the user is offered a rollback. Nothing rolls back on its own.
package restore
