package main

import "cybersh/cmd"

func main() {
	cmd.Execute()
}
