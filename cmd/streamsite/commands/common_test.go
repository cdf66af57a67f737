package commands

import (
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Name("streamsite"), kong.Vars{"version": "test"})
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return cli, ctx
}

func TestBuildIsDefaultCommand(t *testing.T) {
	cli, ctx := parse(t, "-o", "public", "--serve", "--page-size", "3")
	assert.Equal(t, "build", ctx.Command())
	assert.Equal(t, "public", cli.Build.Output)
	assert.True(t, cli.Build.Serve)
	assert.Equal(t, 3, cli.Build.PageSize)
}

func TestBuildDefaults(t *testing.T) {
	cli, _ := parse(t, "build", "-v")
	assert.True(t, cli.Verbose)
	assert.Equal(t, "templates", cli.Build.Templates)
	assert.Equal(t, "data", cli.Build.Data)
	assert.Equal(t, "static", cli.Build.Static)
	assert.Equal(t, "dist", cli.Build.Output)
	assert.Equal(t, "config.yaml", cli.Build.Config)
	assert.Equal(t, "127.0.0.1:8080", cli.Build.Addr)
	assert.Equal(t, "127.0.0.1:9595", cli.Build.ReloadAddr)
	assert.False(t, cli.Build.AllowCache)
}
