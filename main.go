package main

import "prefmodel/cmd"

func main() {
	cmd.Execute()
}
