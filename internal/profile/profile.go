// Package profile manages the user's persistent kpimarks profile.
// The profile is stored at ~/.config/kpimarks/profile.json and is created
// once via the interactive setup flow, then referenced on every command.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Profile holds user-level preferences set during first-run setup.
type Profile struct {
	Name          string `json:"name"`           // default owner of new annotations
	DefaultFormat string `json:"default_format"` // "markdown" | "json" | "svg"
	OutputDir     string `json:"output_dir"`     // default export output dir
	Color         string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

var validate = validator.New()

func profilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "kpimarks", "profile.json"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := profilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p, err := profilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found, run 'kpimarks setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	if err := validate.Struct(prof); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	p, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// RunSetup runs the interactive setup wizard on in/out and returns the
// resulting profile. If existing is non-nil, it is used as the default for
// each prompt (edit mode).
func RunSetup(in io.Reader, out io.Writer, existing *Profile) (*Profile, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	prof := &Profile{
		DefaultFormat: "markdown",
		OutputDir:     ".",
	}
	if existing != nil {
		*prof = *existing
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │   kpimarks · first-time setup   │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error

	prof.Name, err = ask("  Your name (default annotation owner)", prof.Name)
	if err != nil {
		return nil, err
	}

	format, err := ask("  Default export format (markdown/json/svg)", prof.DefaultFormat)
	if err != nil {
		return nil, err
	}
	switch format {
	case "json", "svg":
		prof.DefaultFormat = format
	default:
		prof.DefaultFormat = "markdown"
	}

	prof.OutputDir, err = ask("  Default output directory", prof.OutputDir)
	if err != nil {
		return nil, err
	}

	for {
		color, err := ask("  Annotation color (#rrggbb, blank for default)", prof.Color)
		if err != nil {
			return nil, err
		}
		if color == "" || validate.Var(color, "hexcolor") == nil {
			prof.Color = color
			break
		}
		fmt.Fprintf(out, "  %q is not a hex color\n", color)
	}

	fmt.Fprintln(out)
	return prof, nil
}
