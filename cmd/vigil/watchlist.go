package main

import (
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"
)

var (
	nameFlag = cli.StringFlag{
		Name:  "name",
		Usage: "the subject's full name, fingerprinted before sealing",
		Value: "",
	}
	countryFlag = cli.Uint64Flag{
		Name:  "country",
		Usage: "the subject's numeric country code, e.g. 840 for the US",
		Value: 0,
	}
	accountFlag = cli.StringFlag{
		Name:  "account",
		Usage: "the subject's account reference, fingerprinted before sealing",
		Value: "",
	}
	entityIDFlag = cli.Uint64Flag{
		Name:  "id",
		Usage: "the watchlist entity id",
		Value: 0,
	}

	watchlist = cli.Command{
		Name:  "watchlist",
		Usage: "maintain the confidential watchlist, curator only",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "append a subject to the watchlist",
				Flags: []cli.Flag{
					&nameFlag, &countryFlag, &accountFlag,
				},
				Action: watchlistAddAction,
			},
			{
				Name:   "deactivate",
				Usage:  "exclude an entity from matching without deleting it",
				Flags:  []cli.Flag{&entityIDFlag},
				Action: watchlistDeactivateAction,
			},
			{
				Name:   "reactivate",
				Usage:  "include a deactivated entity in matching again",
				Flags:  []cli.Flag{&entityIDFlag},
				Action: watchlistReactivateAction,
			},
			{
				Name:   "count",
				Usage:  "print the number of entities ever listed",
				Action: watchlistCountAction,
			},
		},
	}
)

func watchlistAddAction(ctx *cli.Context) error {
	name := ctx.String("name")
	account := ctx.String("account")
	if name == "" || account == "" {
		return &invalidUsageError{ctx, "add"}
	}

	subject, err := sealSubject(name, ctx.Uint64("country"), account)
	if err != nil {
		return err
	}

	resp, err := doRequest(http.MethodPost, "/v1/watchlist/entities", subject)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func watchlistDeactivateAction(ctx *cli.Context) error {
	return toggleEntity(ctx, "deactivate")
}

func watchlistReactivateAction(ctx *cli.Context) error {
	return toggleEntity(ctx, "reactivate")
}

func toggleEntity(ctx *cli.Context, action string) error {
	id := ctx.Uint64("id")
	apiPath := fmt.Sprintf("/v1/watchlist/entities/%d/%s", id, action)

	if _, err := doRequest(http.MethodPost, apiPath, nil); err != nil {
		return err
	}

	fmt.Printf("entity %d %sd\n", id, action)
	return nil
}

func watchlistCountAction(ctx *cli.Context) error {
	resp, err := doRequest(http.MethodGet, "/v1/watchlist/entities/count", nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}
