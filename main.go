package main

import "pairbench/cmd"

func main() {
	cmd.Execute()
}
