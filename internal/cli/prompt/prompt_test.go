package prompt

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func newPrompter(input string) (*Prompter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewWithIO(strings.NewReader(input), &out, &errOut), &out, &errOut
}

func TestInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   string
		want  string
	}{
		{"typed value", "git@github.com:me/dots.git\n", "", "git@github.com:me/dots.git"},
		{"empty takes default", "\n", "bash-host-20240101", "bash-host-20240101"},
		{"whitespace trimmed", "  my-backup  \n", "x", "my-backup"},
		{"eof takes default", "", "fallback", "fallback"},
		{"last line without newline", "no-newline", "x", "no-newline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _ := newPrompter(tt.input)
			if got := p.Input("Backup name", tt.def); got != tt.want {
				t.Errorf("Input() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInput_ShowsDefault(t *testing.T) {
	p, out, _ := newPrompter("\n")
	p.Input("Backup name", "zsh-box-20240215")

	if got := out.String(); got != "  Backup name [zsh-box-20240215]: " {
		t.Errorf("prompt = %q", got)
	}
}

func TestYesNo(t *testing.T) {
	tests := []struct {
		input string
		def   bool
		want  bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"maybe\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"", true, true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			p, _, _ := newPrompter(tt.input)
			if got := p.YesNo("Include SSH keys?", tt.def); got != tt.want {
				t.Errorf("YesNo(%q, %v) = %v, want %v", tt.input, tt.def, got, tt.want)
			}
		})
	}
}

func TestYesNo_Suffix(t *testing.T) {
	p, out, _ := newPrompter("\n")
	p.YesNo("Include shell history?", false)
	if !strings.Contains(out.String(), "[y/N]") {
		t.Errorf("expected [y/N] suffix, got %q", out.String())
	}
}

func TestChoice(t *testing.T) {
	options := []string{"bash-host1-20240101", "zsh-host2-20240215"}

	tests := []struct {
		name    string
		input   string
		want    int
		wantErr int
	}{
		{"explicit second", "2\n", 2, 0},
		{"empty defaults to first", "\n", 1, 0},
		{"eof defaults to first", "", 1, 0},
		{"out of range then valid", "3\n2\n", 2, 1},
		{"zero then non-numeric then valid", "0\nabc\n1\n", 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out, errOut := newPrompter(tt.input)

			if got := p.Choice("Select backup", options); got != tt.want {
				t.Errorf("Choice() = %d, want %d", got, tt.want)
			}
			if n := strings.Count(errOut.String(), "Invalid choice. Please enter 1-2"); n != tt.wantErr {
				t.Errorf("range errors = %d, want %d (stderr %q)", n, tt.wantErr, errOut.String())
			}
			if !strings.Contains(out.String(), "[1] bash-host1-20240101") ||
				!strings.Contains(out.String(), "[2] zsh-host2-20240215") {
				t.Errorf("options not listed: %q", out.String())
			}
		})
	}
}

func TestPassword_NonTTY(t *testing.T) {
	p, _, _ := newPrompter("s3cret\n")
	if got := p.Password("Passphrase"); got != "s3cret" {
		t.Errorf("Password() = %q", got)
	}

	p, _, _ = newPrompter("")
	if got := p.Password("Passphrase"); got != "" {
		t.Errorf("Password() on EOF = %q", got)
	}
}

func TestSequentialReadsShareBuffer(t *testing.T) {
	p, _, _ := newPrompter("git@github.com:me/dots.git\nmy-backup\n2\nn\n")

	if got := p.Input("Repository URL", ""); got != "git@github.com:me/dots.git" {
		t.Errorf("first = %q", got)
	}
	if got := p.Input("Backup name", "x"); got != "my-backup" {
		t.Errorf("second = %q", got)
	}
	if got := p.Choice("Select backup type", []string{"Full", "Shareable"}); got != 2 {
		t.Errorf("choice = %d", got)
	}
	if p.YesNo("Include Conda environments?", true) {
		t.Error("expected no")
	}
}

func TestInteractive_NonTTY(t *testing.T) {
	p := NewWithIO(io.LimitReader(strings.NewReader(""), 0), io.Discard, io.Discard)
	if p.Interactive() {
		t.Error("reader is not a terminal")
	}
}

func TestFuzzy_Empty(t *testing.T) {
	p, _, _ := newPrompter("")
	if _, err := p.Fuzzy(nil, nil); err == nil {
		t.Error("expected error for empty options")
	}
}

func TestChoice_Cancelled(t *testing.T) {
	var out bytes.Buffer
	p := NewWithIO(&eofReader{}, &out, io.Discard)

	if got := p.Choice("Select backup", []string{"a", "b"}); got != 1 {
		t.Errorf("Choice() on EOF = %d, want 1", got)
	}
}

// eofReader simulates immediate EOF (like Ctrl+D).
type eofReader struct{}

func (r *eofReader) Read(_ []byte) (int, error) {
	return 0, io.EOF
}
