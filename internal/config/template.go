package config

func DefaultTemplate() string {
	return `# heat-sheet-pdf-highlighter configuration
#
# Precedence: flags > environment variables > config file > defaults
# Environment prefix: HEAT_SHEET_

# Base URL of the release API. Override to point the updater at a mirror
# or a test server. Default:
# https://api.github.com/repos/jonalbr/heat-sheet-pdf-highlighter
api_base: ""

# Per-user data directory holding settings.json and the two cache files.
# Empty uses the OS-specific default (e.g. ~/.config/heat-sheet-pdf-highlighter).
data_dir: ""

# Enable debug logging
debug: false
`
}
