package main

import "github.com/Kritoooo/CodeEnvSwitch/cmd"

func main() {
	cmd.Execute()
}
