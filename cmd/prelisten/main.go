package main

import "github.com/tessro/prelisten/internal/cli"

func main() {
	cli.Execute()
}
