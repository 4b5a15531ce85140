package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-video-composer/internal/config"
	"github.com/kartoza/kartoza-video-composer/internal/deps"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Check for required dependencies",
	Long:  `Check if the compositing engine and optional helpers are installed and available.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _, err := loadRuntime()
		if err != nil {
			defaults := config.DefaultConfig()
			cfg = &defaults
		}
		required := engineChecker(cfg).Results()
		_, optional := deps.CheckAll()

		// Colors
		green := lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
		red := lipgloss.NewStyle().Foreground(lipgloss.Color("#E95420"))
		gray := lipgloss.NewStyle().Foreground(lipgloss.Color("#9A9EA0"))
		cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("#00BCD4"))
		bold := lipgloss.NewStyle().Bold(true)

		fmt.Println()

		mode := "local (ffmpeg)"
		if cfg.RemoteURL != "" {
			mode = "remote (" + cfg.RemoteURL + ")"
		}
		fmt.Printf("%s %s\n\n", bold.Render("Execution:"), cyan.Render(mode))

		fmt.Println(bold.Render("Required Dependencies:"))
		fmt.Println()

		for _, r := range required {
			var status string
			if r.Available {
				status = green.Render("✓")
			} else {
				status = red.Render("✗")
			}
			fmt.Printf("  %s %s\n", status, bold.Render(r.Dependency.Name))
			fmt.Printf("    %s\n", gray.Render(r.Dependency.Description))
			if r.Available {
				fmt.Printf("    Path: %s\n", r.Path)
			}
			fmt.Println()
		}

		fmt.Println(bold.Render("Optional Dependencies:"))
		fmt.Println()

		for _, r := range optional {
			var status string
			if r.Available {
				status = green.Render("✓")
			} else {
				status = gray.Render("○")
			}
			fmt.Printf("  %s %s\n", status, bold.Render(r.Dependency.Name))
			fmt.Printf("    %s\n", gray.Render(r.Dependency.Description))
			if r.Available {
				fmt.Printf("    Path: %s\n", r.Path)
			}
			fmt.Println()
		}

		missing := deps.MissingRequired(required)
		if len(missing) == 0 {
			fmt.Println(green.Render("All required dependencies are installed!"))
		} else {
			fmt.Println(red.Render("Some required dependencies are missing."))
			fmt.Println()
			fmt.Print(deps.FormatMissing(missing))
			fmt.Println("Compositions will return the base video until they are installed.")
		}
		fmt.Println()
	},
}
