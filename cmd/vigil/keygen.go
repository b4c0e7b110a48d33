package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/vigil-network/vigil-daemon/pkg/httpauth"
)

var keygen = cli.Command{
	Name: "keygen",
	Usage: "generate a new signing key and print the party id derived " +
		"from it",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "save",
			Usage: "store the key in the local state as the signing key",
			Value: false,
		},
	},
	Action: keygenAction,
}

func keygenAction(ctx *cli.Context) error {
	prvKey, err := httpauth.NewPrivateKey()
	if err != nil {
		return err
	}

	keyHex := httpauth.SerializePrivateKey(prvKey)
	party := httpauth.PartyID(prvKey.PubKey())

	fmt.Println("private key: " + keyHex)
	fmt.Println("party id: " + party)

	if ctx.Bool("save") {
		if err := setState(map[string]string{"privatekey": keyHex}); err != nil {
			return err
		}
		fmt.Println("the key has been stored in the local state")
	}
	return nil
}
