package main

import (
	"fmt"
	"os"
	"time"

	cli "github.com/spf13/pflag"

	"shealert/internal/ipc"
	"shealert/internal/panel"
)

const usage = `usage: shealert-ctl [flags] <command>

commands:
  alert            send emergency alert now
  voice [file]     listen for 'help' (or check a recorded voice note)
  refresh          refresh displayed location
  status           show location, map and nearest police station
  history          show alert history
`

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	timeout := cli.DurationP("timeout", "t", 60*time.Second, "Reply timeout")
	cli.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		cli.PrintDefaults()
	}
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		cli.Usage()
		os.Exit(2)
	}

	req := ipc.Request{Cmd: args[0]}
	if req.Cmd == panel.CmdVoice && len(args) > 1 {
		req.Arg = args[1]
	}

	rep, err := ipc.Send(*socket, req, *timeout)
	if err != nil {
		fmt.Println("shealert-daemon not running:", err)
		os.Exit(1)
	}

	fmt.Println(rep.Text)
	if !rep.OK {
		os.Exit(1)
	}
}
