package main

import "tariff-dashboard/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
