package main

import "github.com/KaramelBytes/datalens-cli/cmd"

func main() {
	cmd.Execute()
}
