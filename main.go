package main

import "webrtc-signal-relay/cmd"

func main() {
	cmd.Execute()
}
