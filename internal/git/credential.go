package git

// wslCredentialManager is Git for Windows' credential manager as seen from WSL.
const wslCredentialManager = "/mnt/c/Program Files/Git/mingw64/bin/git-credential-manager.exe"

// Helper is a credential.helper value and a description of its storage.
type Helper struct {
	Value       string
	Description string
	// Persistent is false for the in-memory cache helper.
	Persistent bool
}

var cacheHelper = Helper{Value: "cache --timeout=3600", Description: "cache helper (1 hour timeout)"}

// CredentialHelper picks the best credential helper for the platform.
// lookPath and exists are injected for testing.
func CredentialHelper(osName string, lookPath func(string) (string, error), exists func(string) bool) Helper {
	switch osName {
	case "macos":
		return Helper{Value: "osxkeychain", Description: "macOS Keychain", Persistent: true}
	case "linux":
		if _, err := lookPath("gnome-keyring-daemon"); err == nil {
			return Helper{Value: "libsecret", Description: "GNOME Keyring", Persistent: true}
		}
		if _, err := lookPath("pass"); err == nil {
			return Helper{Value: "pass", Description: "pass (password store)", Persistent: true}
		}
	case "wsl":
		if exists(wslCredentialManager) {
			return Helper{Value: "manager", Description: "Git Credential Manager (Windows)", Persistent: true}
		}
	}
	return cacheHelper
}
