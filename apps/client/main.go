package main

import (
	"fmt"
	"os"

	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/session"
)

func main() {
	conf := core.NewConfig()

	store, err := session.NewStore(session.FilePersister{Path: conf.Client.SessionFile})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "warning: %v (signed out)\n", err)
	}

	cli := commandLine{
		store: store,
		api:   newAPIClient(conf.Client.APIURL, conf.Client.Timeout),
		out:   os.Stdout,
	}
	if err := cli.run(os.Args[1:]); err != nil {
		if err != errHelp {
			_, _ = fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
