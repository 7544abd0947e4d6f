package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/bryanchriswhite/SpaceBar/internal/model"
	"github.com/bryanchriswhite/SpaceBar/internal/tracker"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	spaceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	focusedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List spaces and their windows",
	Long: `Query the window manager once and print the space model exactly as
the tracker would publish it.`,
	Example: `  # List spaces in table format (default)
  spacebar list

  # List spaces in JSON format
  spacebar list --format json`,
	RunE: runList,
}

var listFormat string

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
}

func runList(cmd *cobra.Command, args []string) error {
	if listFormat != "table" && listFormat != "json" {
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}

	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 4*cfg.Refresh.CommandTimeout)
	defer cancel()

	provider, err := selectProvider(ctx, cfg)
	if err != nil {
		return err
	}

	spaces := []model.Space{}
	if provider != nil {
		// Failures publish an empty model, and so does list.
		spaces, _ = tracker.Collect(ctx, provider, nil)
	}

	if listFormat == "json" {
		return printSpacesJSON(cmd.OutOrStdout(), spaces)
	}
	if provider == nil {
		fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render("No supported window manager running"))
		return nil
	}
	return printSpacesTable(lipgloss.DefaultRenderer().Output(), spaces)
}

func printSpacesJSON(w io.Writer, spaces []model.Space) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(spaces)
}

func printSpacesTable(out io.Writer, spaces []model.Space) error {
	if len(spaces) == 0 {
		fmt.Fprintln(out, headerStyle.Render("No spaces with windows"))
		return nil
	}

	count := 0
	for _, s := range spaces {
		count += len(s.Windows)
	}
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d space(s), %d window(s)", len(spaces), count)))
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSpacesTable(spaces))
	return nil
}

// renderSpacesTable lays out one row per window. Cells are styled before the
// table measures them, so column widths ignore escape sequences.
func renderSpacesTable(spaces []model.Space) string {
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("SPACE", "WINDOW", "APP", "TITLE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return titleStyle.Padding(0, 1)
			}
			return cell
		})

	for _, s := range spaces {
		label := spaceStyle.Render(s.ID)
		if s.Active() {
			label = focusedStyle.Render("*" + s.ID)
		}
		for i, win := range s.Windows {
			if i > 0 {
				label = ""
			}
			app := win.App
			if win.Focused {
				app = focusedStyle.Render(app)
			}
			title := win.Title
			if title == "" {
				title = dimStyle.Render("-")
			}
			t.Row(label, dimStyle.Render(strconv.Itoa(win.ID)), app, title)
		}
	}
	return t.Render()
}
