package main

import (
	"net/http"

	"github.com/urfave/cli/v2"
)

var info = cli.Command{
	Name:   "info",
	Usage:  "get info about the daemon and the registry counters",
	Action: infoAction,
}

func infoAction(ctx *cli.Context) error {
	resp, err := doRequest(http.MethodGet, "/v1/info", nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}
