package main

import "alad-i18n/internal/cli"

func main() {
	cli.Execute()
}
