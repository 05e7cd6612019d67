package main

import "github.com/shaharia-lab/trainingdesk/cmd"

func main() {
	cmd.Execute()
}
