package main

import "github.com/fakeyudi/kpimarks/cmd"

func main() {
	cmd.Execute()
}
