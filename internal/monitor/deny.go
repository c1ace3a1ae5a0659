package monitor

import "strings"

// DefaultDenyList names applications whose copies are never recorded.
var DefaultDenyList = []string{
	"Passwords",
	"Keychain Access",
	"Bitwarden",
	"1Password",
	"KeePassXC",
}

// IsSensitive reports whether app contains any deny entry, ignoring case.
func IsSensitive(app string, deny []string) bool {
	if app == "" {
		return false
	}
	app = strings.ToLower(app)
	for _, d := range deny {
		if d != "" && strings.Contains(app, strings.ToLower(d)) {
			return true
		}
	}
	return false
}
