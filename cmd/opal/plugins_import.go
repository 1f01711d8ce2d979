package main

// Blank imports ensure plugin init() registration runs for the bot binary.
import (
	_ "github.com/opalmirror/opal/internal/plugins/directimage"
	_ "github.com/opalmirror/opal/internal/plugins/imgur"
	_ "github.com/opalmirror/opal/internal/plugins/opengraph"
	_ "github.com/opalmirror/opal/internal/plugins/rawvideo"
)
