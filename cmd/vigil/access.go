package main

import (
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"
)

var (
	partyFlag = cli.StringFlag{
		Name:  "party",
		Usage: "the party id, 40 hex chars",
		Value: "",
	}

	access = cli.Command{
		Name:  "access",
		Usage: "inspect and manage the roles of the access registry",
		Subcommands: []*cli.Command{
			accessShowCmd, curatorCmd, transferCmd,
		},
	}

	accessShowCmd = &cli.Command{
		Name:   "show",
		Usage:  "print the current owner and the explicit curator set",
		Action: accessShowAction,
	}

	curatorCmd = &cli.Command{
		Name:  "curator",
		Usage: "add, remove or check curators",
		Subcommands: []*cli.Command{
			{
				Name:   "add",
				Usage:  "grant the curator role to a party, owner only",
				Flags:  []cli.Flag{&partyFlag},
				Action: curatorAddAction,
			},
			{
				Name:   "remove",
				Usage:  "revoke the explicit curator role of a party, owner only",
				Flags:  []cli.Flag{&partyFlag},
				Action: curatorRemoveAction,
			},
			{
				Name:   "check",
				Usage:  "check whether a party holds the curator role",
				Flags:  []cli.Flag{&partyFlag},
				Action: curatorCheckAction,
			},
		},
	}

	transferCmd = &cli.Command{
		Name:  "transfer",
		Usage: "transfer the registry ownership to another party, owner only",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "to",
				Usage: "the party id of the new owner",
				Value: "",
			},
		},
		Action: transferAction,
	}
)

func accessShowAction(ctx *cli.Context) error {
	resp, err := doRequest(http.MethodGet, "/v1/access", nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func curatorAddAction(ctx *cli.Context) error {
	party := ctx.String("party")
	if party == "" {
		return &invalidUsageError{ctx, "add"}
	}

	resp, err := doRequest(
		http.MethodPost, "/v1/access/curators",
		map[string]string{"curator": party},
	)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func curatorRemoveAction(ctx *cli.Context) error {
	party := ctx.String("party")
	if party == "" {
		return &invalidUsageError{ctx, "remove"}
	}

	resp, err := doRequest(
		http.MethodDelete, "/v1/access/curators/"+party, nil,
	)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func curatorCheckAction(ctx *cli.Context) error {
	party := ctx.String("party")
	if party == "" {
		return &invalidUsageError{ctx, "check"}
	}

	resp, err := doRequest(http.MethodGet, "/v1/access/curators/"+party, nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func transferAction(ctx *cli.Context) error {
	newOwner := ctx.String("to")
	if newOwner == "" {
		return &invalidUsageError{ctx, "transfer"}
	}

	if _, err := doRequest(
		http.MethodPost, "/v1/access/transfer",
		map[string]string{"new_owner": newOwner},
	); err != nil {
		return err
	}

	fmt.Println("ownership transferred to " + newOwner)
	return nil
}
