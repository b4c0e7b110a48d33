package main

import (
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"
)

var (
	checkIDFlag = cli.Uint64Flag{
		Name:  "id",
		Usage: "the check id",
		Value: 0,
	}

	screening = cli.Command{
		Name:  "screening",
		Usage: "submit screening checks and manage verdict access",
		Subcommands: []*cli.Command{
			{
				Name: "check",
				Usage: "screen a subject against the watchlist, the verdict " +
					"stays confidential until revealed",
				Flags: []cli.Flag{
					&nameFlag, &countryFlag, &accountFlag,
				},
				Action: screeningCheckAction,
			},
			{
				Name:   "reveal",
				Usage:  "decrypt the verdict of a check, submitter or grantee only",
				Flags:  []cli.Flag{&checkIDFlag},
				Action: screeningRevealAction,
			},
			{
				Name:   "status",
				Usage:  "print the public record of a check",
				Flags:  []cli.Flag{&checkIDFlag},
				Action: screeningStatusAction,
			},
			{
				Name:   "grant",
				Usage:  "allow a party to reveal the verdict, submitter only",
				Flags:  []cli.Flag{&checkIDFlag, &partyFlag},
				Action: screeningGrantAction,
			},
			{
				Name:   "revoke",
				Usage:  "retract a verdict access grant, submitter only",
				Flags:  []cli.Flag{&checkIDFlag, &partyFlag},
				Action: screeningRevokeAction,
			},
			{
				Name:   "grants",
				Usage:  "list the grants of a check, submitter only",
				Flags:  []cli.Flag{&checkIDFlag},
				Action: screeningGrantsAction,
			},
			{
				Name:   "count",
				Usage:  "print the number of checks ever recorded",
				Action: screeningCountAction,
			},
		},
	}
)

func screeningCheckAction(ctx *cli.Context) error {
	name := ctx.String("name")
	account := ctx.String("account")
	if name == "" || account == "" {
		return &invalidUsageError{ctx, "check"}
	}

	subject, err := sealSubject(name, ctx.Uint64("country"), account)
	if err != nil {
		return err
	}

	resp, err := doRequest(http.MethodPost, "/v1/screening/checks", subject)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func screeningRevealAction(ctx *cli.Context) error {
	apiPath := fmt.Sprintf("/v1/screening/checks/%d/reveal", ctx.Uint64("id"))
	resp, err := doRequest(http.MethodPost, apiPath, nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func screeningStatusAction(ctx *cli.Context) error {
	id := ctx.Uint64("id")

	views := []string{"status", "user", "timestamp"}
	for _, view := range views {
		apiPath := fmt.Sprintf("/v1/screening/checks/%d/%s", id, view)
		resp, err := doRequest(http.MethodGet, apiPath, nil)
		if err != nil {
			return err
		}
		printRespJSON(resp)
	}
	return nil
}

func screeningGrantAction(ctx *cli.Context) error {
	party := ctx.String("party")
	if party == "" {
		return &invalidUsageError{ctx, "grant"}
	}

	apiPath := fmt.Sprintf("/v1/screening/checks/%d/grants", ctx.Uint64("id"))
	if _, err := doRequest(
		http.MethodPost, apiPath, map[string]string{"grantee": party},
	); err != nil {
		return err
	}

	fmt.Println("access granted to " + party)
	return nil
}

func screeningRevokeAction(ctx *cli.Context) error {
	party := ctx.String("party")
	if party == "" {
		return &invalidUsageError{ctx, "revoke"}
	}

	apiPath := fmt.Sprintf(
		"/v1/screening/checks/%d/grants/%s", ctx.Uint64("id"), party,
	)
	if _, err := doRequest(http.MethodDelete, apiPath, nil); err != nil {
		return err
	}

	fmt.Println("access revoked from " + party)
	return nil
}

func screeningGrantsAction(ctx *cli.Context) error {
	apiPath := fmt.Sprintf("/v1/screening/checks/%d/grants", ctx.Uint64("id"))
	resp, err := doRequest(http.MethodGet, apiPath, nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func screeningCountAction(ctx *cli.Context) error {
	resp, err := doRequest(http.MethodGet, "/v1/screening/checks/count", nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}
