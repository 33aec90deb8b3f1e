package main

import (
	"AutoQFM/cmd"
)

func main() {
	cmd.Execute()
}
