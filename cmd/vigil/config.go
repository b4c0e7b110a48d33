package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
)

var (
	rpcFlag = cli.StringFlag{
		Name:  "rpcserver",
		Usage: "vigild daemon base url",
		Value: "http://localhost:9000",
	}

	macaroonFlag = cli.StringFlag{
		Name:  "macaroon",
		Usage: "hex encoded macaroon authorizing the operator surface",
		Value: "",
	}

	privateKeyFlag = cli.StringFlag{
		Name:  "privatekey",
		Usage: "hex encoded private key used to sign requests",
		Value: "",
	}
)

var configCmd = cli.Command{
	Name:   "config",
	Usage:  "Print local configuration of the vigil CLI",
	Action: configAction,
	Subcommands: []*cli.Command{
		{
			Name:   "set",
			Usage:  "set a <key> <value> in the local state",
			Action: configSetAction,
		},
		{
			Name:   "init",
			Usage:  "initialize the local state with flags",
			Action: configInitAction,
			Flags: []cli.Flag{
				&rpcFlag,
				&macaroonFlag,
				&privateKeyFlag,
			},
		},
	},
}

func configAction(ctx *cli.Context) error {
	state, err := getState()
	if err != nil {
		return err
	}

	for key, value := range state {
		fmt.Println(key + ": " + value)
	}

	return nil
}

func configInitAction(c *cli.Context) error {
	return setState(map[string]string{
		"rpcserver":  c.String("rpcserver"),
		"macaroon":   c.String("macaroon"),
		"privatekey": c.String("privatekey"),
	})
}

func configSetAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return errors.New("key and value are missing")
	}

	key := c.Args().Get(0)
	value := c.Args().Get(1)

	if err := setState(map[string]string{key: value}); err != nil {
		return err
	}

	fmt.Printf("%s %s has been set\n", key, value)

	return nil
}
