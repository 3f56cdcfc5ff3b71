package svchost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgumentsForms(t *testing.T) {
	tests := []struct {
		name  string
		token string
		key   string
		want  string
	}{
		{"slash equals", "/serviceName=Demo", keyServiceName, "Demo"},
		{"slash colon", "/serviceName:Demo", keyServiceName, "Demo"},
		{"slash colon quoted", `/serviceName:"Demo Service"`, keyServiceName, "Demo Service"},
		{"single dash", "-instance=One", keyInstance, "One"},
		{"double dash", "--startMode=Manual", keyStartMode, "Manual"},
		{"case insensitive", "/SERVICENAME=Demo", keyServiceName, "Demo"},
		{"value with colon", `/servicePath=C:\svc\demo.exe`, keyServicePath, `C:\svc\demo.exe`},
		{"value with equals", "/description=a=b", keyDescription, "a=b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := ParseArguments([]string{tt.token})
			require.NoError(t, err)

			got, ok := args.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseArgumentsBoolFlags(t *testing.T) {
	args, err := ParseArguments([]string{"/install", "--delayedAutoStart=false", "-debug=true"})
	require.NoError(t, err)

	assert.True(t, args.Bool(keyInstall))
	assert.True(t, args.Has(keyDelayedAutoStart))
	assert.False(t, args.Bool(keyDelayedAutoStart))
	assert.True(t, args.Bool(keyDebug))
	assert.False(t, args.Bool(keyUninstall))
	assert.False(t, args.Has(keyUninstall))
}

func TestParseArgumentsInvalidBool(t *testing.T) {
	_, err := ParseArguments([]string{"/install=maybe"})
	require.Error(t, err)
}

func TestParseArgumentsPositional(t *testing.T) {
	args, err := ParseArguments([]string{"Install", "/serviceName=Demo", "/usr/bin/tool", "extra"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Install", "/usr/bin/tool", "extra"}, args.Positional())
	assert.Equal(t, keyInstall, args.Alias())
}

func TestParseArgumentsUnknownKeys(t *testing.T) {
	args, err := ParseArguments([]string{"/color=blue", "/verbose"})
	require.NoError(t, err)

	v, ok := args.Get("color")
	require.True(t, ok)
	assert.Equal(t, "blue", v)
	assert.True(t, args.Bool("verbose"))
}

func TestParseArgumentsLastValueWins(t *testing.T) {
	args, err := ParseArguments([]string{"/instance=One", "/instance=Two"})
	require.NoError(t, err)

	v, _ := args.Get(keyInstance)
	assert.Equal(t, "Two", v)
}

func TestHelpRequested(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   bool
	}{
		{"help flag", []string{"/help"}, true},
		{"h flag", []string{"-h"}, true},
		{"question mark", []string{"/?"}, true},
		{"positional help", []string{"help"}, true},
		{"positional question mark", []string{"?"}, true},
		{"help after malformed", []string{"/install=maybe", "/?"}, true},
		{"help false", []string{"/help=false"}, false},
		{"help zero", []string{"/help=0"}, false},
		{"help f", []string{"/help:f"}, false},
		{"help F", []string{"--help=F"}, false},
		{"help one", []string{"/help=1"}, true},
		{"help unparsable", []string{"/help=maybe"}, true},
		{"help not first positional", []string{"install", "help"}, false},
		{"none", []string{"/serviceName=Demo"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HelpRequested(tt.tokens))
		})
	}
}

func TestParseCommandLine(t *testing.T) {
	args, err := ParseCommandLine(`/serviceName="Demo" /description="say \"hi\" \\ bye" /delayedAutoStart`)
	require.NoError(t, err)

	v, _ := args.Get(keyServiceName)
	assert.Equal(t, "Demo", v)

	v, _ = args.Get(keyDescription)
	assert.Equal(t, `say "hi" \ bye`, v)

	assert.True(t, args.Bool(keyDelayedAutoStart))
}

func TestParseCommandLineUnterminatedQuote(t *testing.T) {
	_, err := ParseCommandLine(`/serviceName="Demo`)
	require.Error(t, err)
}

func TestParseAction(t *testing.T) {
	assert.Equal(t, ActionInstall, ParseAction("INSTALL"))
	assert.Equal(t, ActionUninstall, ParseAction("uninstall"))
	assert.Equal(t, ActionStart, ParseAction("start"))
	assert.Equal(t, ActionStop, ParseAction("Stop"))
	assert.Equal(t, ActionHelp, ParseAction("?"))
	assert.Equal(t, ActionNone, ParseAction("run"))
	assert.Equal(t, "uninstall", ActionUninstall.String())
}
