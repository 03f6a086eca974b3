package main

import (
	"github.com/nodamushi/mjpegavi/cmd/mjpegavi/cmd"
)

// set by the linker
var version = "dev"

func main() {
	cmd.Version = version
	cmd.Execute()
}
