package main

import (
	"os"

	"github.com/TechCowboy/fastbasic/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
