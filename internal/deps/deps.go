package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Dependency represents a required external dependency
type Dependency struct {
	Name        string // Command name (e.g., "ffmpeg")
	Description string // Human-readable description
	Required    bool   // If true, local compositing cannot run without it
}

// CheckResult contains the result of checking a dependency
type CheckResult struct {
	Dependency Dependency
	Available  bool
	Path       string // Path to the executable if found
	Error      error  // Error if check failed
}

// EngineDeps lists the binaries the local compositing engine needs
var EngineDeps = []Dependency{
	{
		Name:        "ffmpeg",
		Description: "Video decoding, compositing and encoding",
		Required:    true,
	},
	{
		Name:        "ffprobe",
		Description: "Video metadata extraction",
		Required:    true,
	},
}

// OptionalDeps lists optional dependencies that enhance functionality
var OptionalDeps = []Dependency{
	{
		Name:        "kitty",
		Description: "Inline image previews in the terminal",
		Required:    false,
	},
	{
		Name:        "notify-send",
		Description: "Desktop notifications when a composition finishes",
		Required:    false,
	},
}

// Check verifies if a single dependency is available
func Check(dep Dependency) CheckResult {
	return checkPath(dep, dep.Name)
}

func checkPath(dep Dependency, name string) CheckResult {
	result := CheckResult{Dependency: dep}

	path, err := exec.LookPath(name)
	if err != nil {
		result.Available = false
		result.Error = err
	} else {
		result.Available = true
		result.Path = path
	}

	return result
}

// CheckAll verifies all required and optional dependencies
func CheckAll() (required []CheckResult, optional []CheckResult) {
	for _, dep := range EngineDeps {
		required = append(required, Check(dep))
	}
	for _, dep := range OptionalDeps {
		optional = append(optional, Check(dep))
	}
	return required, optional
}

// MissingRequired filters results down to required dependencies that were not found
func MissingRequired(results []CheckResult) []CheckResult {
	var missing []CheckResult
	for _, r := range results {
		if r.Dependency.Required && !r.Available {
			missing = append(missing, r)
		}
	}
	return missing
}

// FormatMissing returns a formatted string of missing dependencies
func FormatMissing(results []CheckResult) string {
	if len(results) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Missing dependencies:\n\n")

	for _, r := range results {
		status := "MISSING"
		if r.Dependency.Required {
			status = "REQUIRED"
		}
		sb.WriteString(fmt.Sprintf("  • %s (%s)\n", r.Dependency.Name, status))
		sb.WriteString(fmt.Sprintf("    %s\n\n", r.Dependency.Description))
	}

	return sb.String()
}

// EngineChecker reports whether a compositing engine can run here.
// Local and remote execution share orchestration and differ in this check.
type EngineChecker interface {
	Available(ctx context.Context) bool
}

// BinaryChecker looks the engine binaries up on PATH.
// FFmpegPath and FFprobePath override the lookup when set.
type BinaryChecker struct {
	FFmpegPath  string
	FFprobePath string
}

// Available returns true when both ffmpeg and ffprobe resolve
func (b BinaryChecker) Available(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	return len(MissingRequired(b.Results())) == 0
}

// Results returns the per-binary check results honoring overrides
func (b BinaryChecker) Results() []CheckResult {
	overrides := map[string]string{
		"ffmpeg":  b.FFmpegPath,
		"ffprobe": b.FFprobePath,
	}
	results := make([]CheckResult, 0, len(EngineDeps))
	for _, dep := range EngineDeps {
		name := dep.Name
		if o := overrides[dep.Name]; o != "" {
			name = o
		}
		results = append(results, checkPath(dep, name))
	}
	return results
}

// StaticChecker always answers the same; used for remote-only deployments and tests
type StaticChecker bool

// Available returns the fixed answer
func (s StaticChecker) Available(context.Context) bool {
	return bool(s)
}
