package main

import "ephemeral-photo-backend/cmd"

func main() {
	cmd.Run()
}
