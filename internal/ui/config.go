package ui

// Config contains window/input/audio related settings.
type Config struct {
	Title         string // window title
	Scale         int    // integer upscaling factor
	AudioBufferMs int    // player buffer in ms (approx)
	Muted         bool   // start with audio muted
	StateDir      string // directory for save state slots
	GameName      string // base name for slot and screenshot files
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "intvemu"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.AudioBufferMs <= 0 {
		c.AudioBufferMs = 60
	}
	if c.StateDir == "" {
		c.StateDir = "states"
	}
	if c.GameName == "" {
		c.GameName = "game"
	}
}
