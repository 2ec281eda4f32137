package main

import "github.com/nfrund/gobychat/cmd/chat-cli/cmd"

func main() {
	cmd.Execute()
}
