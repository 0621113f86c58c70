package renderer

import (
	"fmt"
	"os"
	"strings"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
)

// Transform is one step of a patched colorspace's conversion chain.
// Exactly one of FileSrc or Src/Dst must be set.
type Transform struct {
	// FileSrc references a LUT file stored next to the config.
	FileSrc       string
	Interpolation string // only with FileSrc; e.g. "linear"

	// Src and Dst name colorspaces already defined in the config.
	Src string
	Dst string
}

// ConfigPatch describes a colorspace and display/view pair to graft onto
// an existing OCIO config.
type ConfigPatch struct {
	// ColorSpaceName is the name of the new colorspace.
	ColorSpaceName string

	// Display is an existing display to attach the new view to.
	Display string

	// View is the name of the new view, evaluated through ColorSpaceName.
	View string

	// Transforms convert scene reference to the new colorspace, in order.
	Transforms []Transform
}

// PatchConfig rewrites the OCIO config at configPath with the patch
// applied. Vendors publish some algorithms only as display-ready LUTs, so
// they have to be grafted onto a stock ACES config as an extra view.
//
// The patch is applied textually: OCIO configs are YAML, and both the new
// view and the new colorspace can be spliced in without interpreting the
// color science. The config's search path is also reset to its own
// directory so relative LUT references resolve.
func PatchConfig(configPath string, patch ConfigPatch) error {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "cannot read OCIO config %q", configPath)
	}

	text := string(raw)
	text, err = spliceView(text, patch)
	if err != nil {
		return err
	}
	text = spliceSearchPath(text)
	text += renderColorSpace(patch)

	return os.WriteFile(configPath, []byte(text), 0o644)
}

// spliceView inserts the new view as the first entry of the target display.
func spliceView(text string, patch ConfigPatch) (string, error) {
	lines := strings.Split(text, "\n")
	displayLine := fmt.Sprintf("  %s:", patch.Display)

	inDisplays := false
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "displays:"):
			inDisplays = true
		case inDisplays && line == displayLine:
			view := fmt.Sprintf("    - !<View> {name: %s, colorspace: %s}",
				patch.View, patch.ColorSpaceName)
			patched := append([]string{}, lines[:i+1]...)
			patched = append(patched, view)
			patched = append(patched, lines[i+1:]...)
			return strings.Join(patched, "\n"), nil
		case inDisplays && len(line) > 0 && line[0] != ' ':
			// left the displays block without a match
			inDisplays = false
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput,
		"display %q not found in OCIO config", patch.Display)
}

// spliceSearchPath points the config's search path at its own directory.
func spliceSearchPath(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "search_path:") {
			lines[i] = "search_path: ."
			return strings.Join(lines, "\n")
		}
	}
	// configs without a search path get one after the version header
	for i, line := range lines {
		if strings.HasPrefix(line, "ocio_profile_version:") {
			patched := append([]string{}, lines[:i+1]...)
			patched = append(patched, "search_path: .")
			patched = append(patched, lines[i+1:]...)
			return strings.Join(patched, "\n")
		}
	}
	return "search_path: .\n" + text
}

// renderColorSpace renders the new colorspace as a YAML block appended to
// the config's colorspaces list.
func renderColorSpace(patch ConfigPatch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  - !<ColorSpace>\n")
	fmt.Fprintf(&b, "    name: %s\n", patch.ColorSpaceName)
	fmt.Fprintf(&b, "    from_scene_reference: !<GroupTransform>\n")
	fmt.Fprintf(&b, "      children:\n")
	for _, t := range patch.Transforms {
		if t.FileSrc != "" {
			if t.Interpolation != "" {
				fmt.Fprintf(&b, "        - !<FileTransform> {src: %s, interpolation: %s}\n",
					t.FileSrc, t.Interpolation)
			} else {
				fmt.Fprintf(&b, "        - !<FileTransform> {src: %s}\n", t.FileSrc)
			}
			continue
		}
		fmt.Fprintf(&b, "        - !<ColorSpaceTransform> {src: %s, dst: %s}\n", t.Src, t.Dst)
	}
	return b.String()
}
