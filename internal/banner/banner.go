package banner

import (
	"pairbench/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
    ____        _      ____                  __
   / __ \____ _(_)____/ __ )___  ____  _____/ /_
  / /_/ / __ '/ / ___/ __  / _ \/ __ \/ ___/ __ \
 / ____/ /_/ / / /  / /_/ /  __/ / / / /__/ / / /
/_/    \__,_/_/_/  /_____/\___/_/ /_/\___/_/ /_/ `

	return "\n" + style.Render(ascii) + "\n"
}
