package main

import "github.com/endorses/acscan/cmd"

func main() {
	cmd.Execute()
}
