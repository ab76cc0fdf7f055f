package main

import "vehicle-admin/internal/cli"

func main() {
	cli.Execute()
}
