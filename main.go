package main

import "deskbot/cmd"

func main() {
	cmd.Execute()
}
