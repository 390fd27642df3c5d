package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/mellow-player/mellow/constant"
	"github.com/mellow-player/mellow/icon"
	"github.com/mellow-player/mellow/key"
	"github.com/mellow-player/mellow/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.SetOut(os.Stdout)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the playback engine is installed",
	Run: func(cmd *cobra.Command, args []string) {
		path, err := exec.LookPath(engineBinary())
		if err != nil {
			printMissingDependencyError(engineBinary())
			os.Exit(1)
		}
		cmd.Printf("%s %s found at %s\n", icon.Get(icon.Success), engineBinary(), path)
	},
}

func engineBinary() string {
	if binary := viper.GetString(key.PlayerBinary); binary != "" {
		return binary
	}
	return constant.Engine
}

// CheckDependencies exits with an explanation if the engine binary is not on PATH.
func CheckDependencies() {
	if _, err := exec.LookPath(engineBinary()); err != nil {
		printMissingDependencyError(engineBinary())
		os.Exit(1)
	}
}

func printMissingDependencyError(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case "darwin":
		installCmd = "brew install mpv"
	case "linux":
		installCmd = "sudo apt install mpv"
	case "windows":
		installCmd = "scoop install mpv"
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("The playback engine '%s' was not found in your PATH.", dep))

	suggestion := ""
	if installCmd != "" && dep == constant.Engine {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(installCmd))
	} else {
		suggestion = fmt.Sprintf("\n\nSet %s to the path of an mpv executable.", style.New().Foreground(style.AccentColor).Bold(true).Render(key.PlayerBinary))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
