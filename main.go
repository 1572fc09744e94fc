package main

import "github.com/chronostore/chrono-go/cmd"

func main() {
	cmd.Execute()
}
