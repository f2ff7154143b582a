package main

import (
	"github.com/lanheader/Archery/pkg/cli/cmd"
)

func main() {
	cmd.Execute()
}
