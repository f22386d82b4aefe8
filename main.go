package main

import (
	"github.com/jjtimmons/sraprep/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
