package main

import (
	"github.com/Sunnie-Evergale/kurokin-tool/internal/cli"
)

func main() {
	cli.Execute()
}
