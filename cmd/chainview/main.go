package main

import "chainview/cli/cmd"

func main() {
	cmd.Execute()
}
