package main

import "github.com/hackbox-events/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
