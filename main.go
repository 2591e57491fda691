package main

import "github.com/Akshay-cybersec/NeuroVibe/cmd"

func main() {
	cmd.Execute()
}
