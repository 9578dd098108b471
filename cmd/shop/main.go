package main

import (
	"kilometers.ai/shop/internal/interfaces/cli"
	"kilometers.ai/shop/internal/interfaces/di"
)

func main() {
	cli.Execute(di.Open)
}
