package main

import "asset-forge/cmd"

func main() {
	cmd.Execute()
}
