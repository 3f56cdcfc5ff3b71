package svchost

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/pflag"
)

// Argument keys, spelled as on the command line. Lookups ignore case.
const (
	keyHelp             = "help"
	keyInstall          = "install"
	keyUninstall        = "uninstall"
	keyStart            = "start"
	keyStop             = "stop"
	keyDebug            = "debug"
	keyServiceName      = "serviceName"
	keyInstance         = "instance"
	keyDisplayName      = "displayName"
	keyDescription      = "description"
	keyUsername         = "username"
	keyPassword         = "password"
	keyStartMode        = "startMode"
	keyDelayedAutoStart = "delayedAutoStart"
	keyTimeout          = "timeout"
	keyServicePath      = "servicePath"
	keyConfigFile       = "configFile"
)

// knownFlags lists every option the host understands
var knownFlags = []struct {
	key    string
	isBool bool
	usage  string
}{
	{keyHelp, true, "show help and exit"},
	{keyInstall, true, "install the service"},
	{keyUninstall, true, "uninstall the service"},
	{keyStart, true, "start the installed service"},
	{keyStop, true, "stop the installed service"},
	{keyDebug, true, "enable debug logging and pause for a debugger"},
	{keyDelayedAutoStart, true, "delay automatic start after boot"},
	{keyServiceName, false, "service name"},
	{keyInstance, false, "service instance"},
	{keyDisplayName, false, "display name"},
	{keyDescription, false, "service description"},
	{keyUsername, false, "account the service runs as"},
	{keyPassword, false, "password for the service account"},
	{keyStartMode, false, "Automatic, Manual or Disabled"},
	{keyTimeout, false, "start/stop timeout in milliseconds"},
	{keyServicePath, false, "remote service executable to install or uninstall"},
	{keyConfigFile, false, "TOML or YAML configuration file"},
}

// Arguments holds the options and positional tokens of a single invocation.
// Option keys are case-insensitive.
type Arguments struct {
	values     map[string]string
	positional []string
}

// token is one option token split into key and value
type token struct {
	key      string
	value    string
	hasValue bool
}

// ParseArguments parses invocation tokens (without the program name).
//
// Options may be written as /key, /key=value, /key:value, /key:"value",
// -key=value or --key=value. Tokens that are not options are positional.
// Unrecognized options are kept so callers can inspect them.
func ParseArguments(tokens []string) (*Arguments, error) {
	fs := newFlagSet()
	a := &Arguments{values: make(map[string]string)}

	var flagArgs []string
	for _, raw := range tokens {
		tok, ok := splitToken(raw)
		if !ok {
			a.positional = append(a.positional, raw)
			continue
		}

		f := fs.Lookup(tok.key)
		if f == nil {
			a.values[tok.key] = tok.value
			continue
		}

		if f.Value.Type() == "bool" && !tok.hasValue {
			flagArgs = append(flagArgs, "--"+f.Name)
		} else {
			flagArgs = append(flagArgs, "--"+f.Name+"="+tok.value)
		}
	}

	if err := fs.Parse(flagArgs); err != nil {
		return nil, fmt.Errorf("svchost: parse arguments: %w", err)
	}

	fs.Visit(func(f *pflag.Flag) {
		a.values[f.Name] = f.Value.String()
	})

	return a, nil
}

// ParseCommandLine splits a command line with shell quoting rules and parses it
func ParseCommandLine(commandLine string) (*Arguments, error) {
	tokens, err := shlex.Split(commandLine)
	if err != nil {
		return nil, fmt.Errorf("svchost: split command line: %w", err)
	}
	return ParseArguments(tokens)
}

// HelpRequested reports whether tokens ask for help, either through a help
// option (help, h, ?) or a leading help alias. It does not fail on malformed
// tokens so that help always wins.
func HelpRequested(tokens []string) bool {
	first := true
	for _, raw := range tokens {
		tok, ok := splitToken(raw)
		if !ok {
			if first && canonicalKey(raw) == keyHelp {
				return true
			}
			first = false
			continue
		}
		if tok.key == keyHelp {
			if !tok.hasValue {
				return true
			}
			if on, err := strconv.ParseBool(tok.value); err != nil || on {
				return true
			}
		}
	}
	return false
}

// Get returns the value of an option and whether it was present
func (a *Arguments) Get(key string) (string, bool) {
	v, ok := a.values[strings.ToLower(key)]
	return v, ok
}

// Has reports whether an option was present
func (a *Arguments) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Bool reports whether an option was present and not explicitly false
func (a *Arguments) Bool(key string) bool {
	v, ok := a.Get(key)
	if !ok {
		return false
	}
	return !strings.EqualFold(v, "false")
}

// Positional returns the non-option tokens in order
func (a *Arguments) Positional() []string {
	return a.positional
}

// Alias returns the first positional token in canonical lower case, or ""
func (a *Arguments) Alias() string {
	if len(a.positional) == 0 {
		return ""
	}
	return canonicalKey(a.positional[0])
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("svchost", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ToLower(name))
	})

	for _, kf := range knownFlags {
		if kf.isBool {
			fs.Bool(kf.key, false, kf.usage)
		} else {
			fs.String(kf.key, "", kf.usage)
		}
	}

	return fs
}

// splitToken recognizes an option token and splits it into key and value
func splitToken(raw string) (token, bool) {
	var body string
	switch {
	case strings.HasPrefix(raw, "--"):
		body = raw[2:]
	case strings.HasPrefix(raw, "-"), strings.HasPrefix(raw, "/"):
		body = raw[1:]
	default:
		return token{}, false
	}

	key := body
	var tok token
	if i := strings.IndexAny(body, "=:"); i >= 0 {
		key = body[:i]
		tok.value = unquote(body[i+1:])
		tok.hasValue = true
	}

	// Absolute paths such as /usr/bin/app are positional, not options
	if !validKey(key) {
		return token{}, false
	}

	tok.key = canonicalKey(key)
	return tok, true
}

// validKey reports whether s looks like an option name
func validKey(s string) bool {
	if s == "?" {
		return true
	}
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '_' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// canonicalKey lower-cases a key and folds the help aliases
func canonicalKey(key string) string {
	key = strings.ToLower(key)
	switch key {
	case "h", "?":
		return keyHelp
	}
	return key
}

// unquote strips one pair of surrounding double quotes
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
