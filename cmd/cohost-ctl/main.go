package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"cohost/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", "/tmp/cohost.sock", "Control socket path")
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		fmt.Println("usage: cohost-ctl [--socket path] <trigger|record-stop|stop|ask [text...]>")
		os.Exit(1)
	}

	msg := ipc.ControlMessage{Cmd: args[0]}
	if args[0] == "ask" {
		msg.Text = strings.Join(args[1:], " ")
	}

	if err := ipc.Send(*socket, msg); err != nil {
		fmt.Println("cohost not running:", err)
		os.Exit(1)
	}
}
