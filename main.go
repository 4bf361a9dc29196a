package main

import "github.com/mpapenbr/iracelog-sector-monitor/cmd"

func main() {
	cmd.Execute()
}
