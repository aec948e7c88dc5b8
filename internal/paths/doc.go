// Package paths resolves the filesystem locations shellpack reads from and
// writes to: the user's home directory, XDG config and state directories,
// and the fixed layout of a backup tree inside a repository.
package paths
