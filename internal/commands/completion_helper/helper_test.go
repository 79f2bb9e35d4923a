package completion_helper

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestDefaultFlagComplete(t *testing.T) {
	var buf bytes.Buffer
	var got *cli.Command
	sub := &cli.Command{
		Name: "classify",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}},
			&cli.StringFlag{Name: "scope"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			got = cmd
			return nil
		},
	}
	app := &cli.Command{Name: "changelens", Writer: &buf, Reader: strings.NewReader("in"), Commands: []*cli.Command{sub}}

	require.NoError(t, app.Run(context.Background(), []string{"changelens", "classify"}))
	require.NotNil(t, got)

	DefaultFlagComplete(context.Background(), got)
	out := buf.String()
	assert.Contains(t, out, "--json\n-j\n")
	assert.Contains(t, out, "--scope\n")
	assert.Same(t, &buf, Writer(got))
	assert.NotNil(t, Reader(got))
}
