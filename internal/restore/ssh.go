package restore

import (
	"path/filepath"

	"github.com/moxforge/shellpack/internal/paths"
	"github.com/moxforge/shellpack/internal/sshkeys"
	"github.com/moxforge/shellpack/internal/status"
)

// handleSSH restores, generates or skips SSH keys. The menu has three
// choices when the backup holds keys; otherwise generation is a yes/no.
func (o *Orchestrator) handleSSH(a *applier) status.Result {
	s := o.s
	p := s.Printer

	p.Section("SSH Keys")
	p.Blank()

	if isFile(a.from(paths.SSHDir, paths.SSHArchive)) {
		p.Line("Found SSH keys in backup.")
		switch s.Prompt.Choice("What do you want to do?", sshOptions) {
		case SSHRestore:
			return a.sshKeys()
		case SSHGenerate:
			return o.generateKey(a)
		default:
			return status.Skipf(CategorySSH, "SSH setup skipped")
		}
	}

	p.Line("No SSH keys in backup.")
	if !s.Prompt.YesNo("Generate new SSH keys?", true) {
		return status.Skipf(CategorySSH, "SSH setup skipped")
	}
	return o.generateKey(a)
}

func (o *Orchestrator) generateKey(a *applier) status.Result {
	s := o.s
	p := s.Printer

	email := s.Prompt.Input("Enter email for SSH key", "")
	if email == "" {
		return status.Skipf(CategorySSH, "SSH key generation skipped (no email)")
	}
	if !sshkeys.ValidEmail(email) {
		p.Error("Invalid email address: " + email)
		return status.Errorf(CategorySSH, sshkeys.ErrInvalidEmail, "SSH key generation failed")
	}
	passphrase := s.Prompt.Password("Passphrase (empty for none)")

	if a.dryRun {
		return status.DryRun(CategorySSH, "generate SSH key for "+email)
	}

	priv := a.to(filepath.Join(paths.SSHHome, sshkeys.KeyName))
	if err := a.journal.TrackAll(priv, priv+".pub"); err != nil {
		return status.Errorf(CategorySSH, err, "SSH key generation failed")
	}
	key, err := sshkeys.Generate(a.home, email, passphrase)
	if err != nil {
		return status.Errorf(CategorySSH, err, "SSH key generation failed")
	}

	p.Blank()
	p.Line("Add this public key to your GitHub/GitLab account:")
	p.Highlight("%s", key.AuthorizedKey)
	p.Blank()
	return status.Okf(CategorySSH, "SSH key generated")
}
