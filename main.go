package main

import "github.com/crystaldolphin/crystalgate/cmd"

func main() {
	cmd.Execute()
}
