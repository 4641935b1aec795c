package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hashicorp-forge/hyperresource/internal/version"
)

func run(args []string, env map[string]string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := Run(args, Streams{In: strings.NewReader(""), Out: &out, Err: &errOut},
		func(k string) string { return env[k] })
	return code, out.String(), errOut.String()
}

func TestRun_Version(t *testing.T) {
	for _, arg := range []string{"version", "-v", "-version"} {
		t.Run(arg, func(t *testing.T) {
			code, out, _ := run([]string{"/usr/local/bin/hyperctl", arg}, nil)
			assert.Equal(t, 0, code)
			assert.Equal(t, "hyperctl "+version.Version+"\n", out)
		})
	}
}

func TestRun_GetRequiresRoot(t *testing.T) {
	code, out, errOut := run([]string{"hyperctl", "get"}, map[string]string{LogLevelEnv: "debug"})
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "a root URL is required")
}

func TestRun_UnknownCommand(t *testing.T) {
	code, out, _ := run([]string{"hyperctl", "frobnicate"}, nil)
	assert.NotEqual(t, 0, code)
	assert.Empty(t, out)
}

func TestSubcommandArgs(t *testing.T) {
	assert.Equal(t, []string{"version"}, subcommandArgs([]string{"-v"}))
	assert.Equal(t, []string{"get", "-v"}, subcommandArgs([]string{"get", "-v"}))
	assert.Empty(t, subcommandArgs(nil))
}
