package main

import "sync-photo-client/cmd"

func main() {
	cmd.Run()
}
