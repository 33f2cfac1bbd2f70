package main

import (
	"os"

	"github.com/harsheyeditor/OneBlood/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
