package commands

import (
	"fmt"

	"github.com/bryanchriswhite/SpaceBar/internal/focus"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the selected provider and accessibility permission",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusInfo struct {
	ConfigPath   string
	Provider     string
	Executable   string
	Focus        string
	FallbackTick string
}

func runStatus(cmd *cobra.Command, args []string) error {
	configMgr, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	info := statusInfo{
		ConfigPath:   configMgr.GetConfigPath(),
		Provider:     "none",
		Executable:   "-",
		FallbackTick: cfg.Refresh.FallbackInterval.String(),
	}

	p, err := selectProvider(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if p != nil {
		info.Provider = p.Name()
		info.Executable = p.Executable()
	}

	ax, err := focus.NewSystemAccessibility()
	switch {
	case err != nil:
		info.Focus = "unsupported"
	case ax.IsTrusted(false):
		info.Focus = "trusted"
	default:
		info.Focus = "not trusted"
	}

	fmt.Fprint(lipgloss.DefaultRenderer().Output(), renderStatus(info))
	return nil
}

func renderStatus(info statusInfo) string {
	row := func(label, value string) string {
		return titleStyle.Render(fmt.Sprintf("%-14s", label)) + value + "\n"
	}
	focusValue := focusedStyle.Render(info.Focus)
	if info.Focus != "trusted" {
		focusValue = dimStyle.Render(info.Focus)
	}
	return headerStyle.Render("SpaceBar status") + "\n" +
		row("Config", info.ConfigPath) +
		row("Provider", spaceStyle.Render(info.Provider)) +
		row("Executable", info.Executable) +
		row("Accessibility", focusValue) +
		row("Fallback", info.FallbackTick)
}
