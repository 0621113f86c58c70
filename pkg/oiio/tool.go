package oiio

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
)

// Tool is a located oiiotool executable.
type Tool struct {
	// Path is the absolute path of the executable.
	Path string

	// Env holds extra environment variables for every invocation, as
	// KEY=VALUE pairs. Used to point OCIO at a config file.
	Env []string
}

// Find locates oiiotool on PATH.
func Find() (*Tool, error) {
	path, err := exec.LookPath("oiiotool")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeOiiotoolMissing, err,
			"oiiotool not found on PATH; install OpenImageIO")
	}
	return &Tool{Path: path}, nil
}

// WithOCIOConfig returns a copy of the tool that sets the OCIO environment
// variable for every invocation.
func (t *Tool) WithOCIOConfig(configPath string) *Tool {
	env := append([]string{}, t.Env...)
	return &Tool{Path: t.Path, Env: append(env, "OCIO="+configPath)}
}

// Run invokes oiiotool with the given arguments. On failure the captured
// stderr is folded into the returned error.
func (t *Tool) Run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, t.Path, args...)
	cmd.Env = append(os.Environ(), t.Env...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return errors.Wrap(errors.ErrCodeOiiotool, err, "oiiotool failed: %s", msg)
	}
	return nil
}

// ImageSize probes the pixel dimensions of an image.
func (t *Tool) ImageSize(ctx context.Context, imagePath string) (width, height int, err error) {
	cmd := exec.CommandContext(ctx, t.Path,
		imagePath, "--echo", "{TOP.width}", "--echo", "{TOP.height}")
	cmd.Env = append(os.Environ(), t.Env...)

	out, err := cmd.Output()
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeOiiotool, err, "cannot probe size of %q", imagePath)
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) < 2 {
		return 0, 0, errors.New(errors.ErrCodeOiiotool, "unexpected size output %q", out)
	}
	width, err = strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeOiiotool, err, "unexpected width %q", lines[0])
	}
	height, err = strconv.Atoi(strings.TrimSpace(lines[1]))
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeOiiotool, err, "unexpected height %q", lines[1])
	}
	return width, height, nil
}
