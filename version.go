package yaiwr

// Overridden at link time: -ldflags "-X github.com/softdevteam/pavel.yaiwr.Version=..."
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)
