package paths

// Archive file names inside a backup tree.
const (
	FishArchive    = "fish_config.tar.gz"
	OhMyZshArchive = "ohmyzsh.tar.gz"
	SSHArchive     = "ssh_backup.tar.gz"
)

// Files and directories in the user's home that backups read and restores
// write, relative to home.
const (
	FishConfigDir  = ".config/fish"
	FishHistoryDir = ".local/share/fish"
	OhMyZshDir     = ".oh-my-zsh"
	StarshipConfig = ".config/starship.toml"
	GitConfig      = ".gitconfig"
	SSHHome        = ".ssh"
)

// BashFiles is the allowlist of bash dotfiles.
var BashFiles = []string{".bashrc", ".bash_aliases", ".bash_profile", ".profile", ".bash_logout"}

// ZshFiles is the allowlist of zsh dotfiles.
var ZshFiles = []string{".zshrc", ".zprofile", ".zshenv", ".zlogin", ".zlogout"}

// HistoryFiles are the plain history files copied as-is.
var HistoryFiles = []string{".bash_history", ".zsh_history"}

// ShellFiles returns the dotfile allowlist for shell, nil for fish.
func ShellFiles(shell string) []string {
	switch shell {
	case "bash":
		return BashFiles
	case "zsh":
		return ZshFiles
	}
	return nil
}

// CloudSource is one cloud CLI's credential directory.
type CloudSource struct {
	Name string
	// Dir is the credential directory relative to home.
	Dir string
	// Root is the archive-internal root name.
	Root string
	// Parent is where the archive is extracted, relative to home.
	Parent string
}

// Archive returns the archive file name under config/cloud.
func (c CloudSource) Archive() string {
	return c.Name + ".tar.gz"
}

// CloudSources lists the credential directories backed up, in order.
var CloudSources = []CloudSource{
	{Name: "aws", Dir: ".aws", Root: ".aws", Parent: ""},
	{Name: "azure", Dir: ".azure", Root: ".azure", Parent: ""},
	{Name: "gcloud", Dir: ".config/gcloud", Root: "gcloud", Parent: ".config"},
}
