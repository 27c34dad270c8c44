package main

import "github.com/iksnae/hypnojourney/cmd"

func main() {
	cmd.Execute()
}
