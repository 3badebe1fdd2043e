package main

import (
	"bytes"
	"testing"

	"github.com/oziev02/ResponsiveImages/internal/domain"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSummary_SingleImage(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, []domain.Record{{Name: "robot-robot.jpg"}})

	assert.Equal(t, "Shortcode:\n\n{{< picture name=\"robot-robot.jpg\" caption=\"\" >}}\n", buf.String())
}

func TestPrintSummary_SeveralImages(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, []domain.Record{{Name: "robot-a.jpg"}, {Name: "robot-b.jpg"}})

	assert.Equal(t, "-  robot-a.jpg\n-  robot-b.jpg\n", buf.String())
}

func parseRunFlags(t *testing.T, args ...string) (*cobra.Command, *runFlags) {
	t.Helper()
	cmd := &cobra.Command{Use: "process"}
	flags := &runFlags{}
	bindRunFlags(cmd, flags)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, flags
}

func TestRunFlags_Options(t *testing.T) {
	cmd, flags := parseRunFlags(t,
		"--name", "my robot",
		"-d", "bots",
		"--sizes", "320,640",
		"--quality", "70",
		"--skip-upload",
		"--clobber",
	)

	defaults := domain.RunOptions{Sizes: []int{320}, Codec: "webp", Quality: 85}
	opts, err := flags.options(cmd, defaults, "/photos")
	require.NoError(t, err)

	assert.Equal(t, domain.RunOptions{
		InputPath:  "/photos",
		Name:       "my robot",
		Directory:  "bots",
		Sizes:      []int{320, 640},
		Codec:      "webp",
		Quality:    70,
		SkipUpload: true,
		Force:      true,
	}, opts)
}

func TestRunFlags_OptionsKeepsDefaults(t *testing.T) {
	cmd, flags := parseRunFlags(t, "-n", "robot", "-f")

	opts, err := flags.options(cmd, domain.RunOptions{Sizes: []int{320, 480}, Codec: "png", Quality: 85}, "robot.jpg")
	require.NoError(t, err)

	assert.Equal(t, []int{320, 480}, opts.Sizes)
	assert.Equal(t, "png", opts.Codec)
	assert.True(t, opts.Force)
}

func TestRunFlags_OptionsRejectsBadSizes(t *testing.T) {
	cmd, flags := parseRunFlags(t, "--name", "robot", "--sizes", "320,abc")

	_, err := flags.options(cmd, domain.RunOptions{Quality: 85}, "/photos")
	assert.True(t, domain.IsKind(err, domain.KindConfig))
}

func TestRunFlags_OptionsRejectsMissingName(t *testing.T) {
	cmd, flags := parseRunFlags(t)

	_, err := flags.options(cmd, domain.RunOptions{Sizes: []int{320}, Quality: 85}, "/photos")
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"process", "enqueue", "worker", "serve"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
