// Package consts contains constants for the download domain
package consts

// Command represents a bot command
type Command struct {
	Name        string
	Description string
}

// Bot commands
var (
	CommandStart = Command{Name: "start", Description: "Start the bot"}
	CommandHelp  = Command{Name: "help", Description: "Show help message"}
	CommandAbout = Command{Name: "about", Description: "About this bot"}
)

// AllCommands contains all available bot commands for menu registration
var AllCommands = []Command{
	CommandStart,
	CommandHelp,
	CommandAbout,
}

// MaxAlbumSize is the largest media group Telegram accepts in one upload
const MaxAlbumSize = 10
