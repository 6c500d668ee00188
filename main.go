package main

import "github.com/iandees/marblecutter/cmd"

func main() {
	cmd.Execute()
}
