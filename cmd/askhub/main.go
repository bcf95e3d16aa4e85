package main

import "github.com/vietddude/askhub/internal/cli"

func main() {
	cli.Execute()
}
