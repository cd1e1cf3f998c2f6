package main

import "github.com/tokenlens/burnwatch/cmd"

func main() {
	cmd.Execute()
}
