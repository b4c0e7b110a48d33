package main

import (
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"
)

var webhook = cli.Command{
	Name:  "webhook",
	Usage: "manage webhooks notified of registry audit events",
	Subcommands: []*cli.Command{
		{
			Name:  "add",
			Usage: "register a webhook endpoint for an audit event topic",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name: "topic",
					Usage: "the audit event topic, use * to subscribe to " +
						"every event",
					Value: "*",
				},
				&cli.StringFlag{
					Name:  "endpoint",
					Usage: "the endpoint called whenever the event occurs",
					Value: "",
				},
				&cli.StringFlag{
					Name: "secret",
					Usage: "the eventual secret used to sign an auth token " +
						"attached to the webhook calls",
					Value: "",
				},
			},
			Action: webhookAddAction,
		},
		{
			Name:  "remove",
			Usage: "remove a webhook",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "id",
					Usage: "the id of the webhook to remove",
					Value: "",
				},
			},
			Action: webhookRemoveAction,
		},
		{
			Name:  "list",
			Usage: "list webhooks, optionally filtered by topic",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "topic",
					Usage: "return only the webhooks of this topic",
					Value: "",
				},
			},
			Action: webhookListAction,
		},
	},
}

func webhookAddAction(ctx *cli.Context) error {
	endpoint := ctx.String("endpoint")
	if endpoint == "" {
		return &invalidUsageError{ctx, "add"}
	}

	resp, err := doRequest(http.MethodPost, "/v1/webhooks", map[string]string{
		"topic":    ctx.String("topic"),
		"endpoint": endpoint,
		"secret":   ctx.String("secret"),
	})
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func webhookRemoveAction(ctx *cli.Context) error {
	id := ctx.String("id")
	if id == "" {
		return &invalidUsageError{ctx, "remove"}
	}

	if _, err := doRequest(
		http.MethodDelete, "/v1/webhooks/"+id, nil,
	); err != nil {
		return err
	}

	fmt.Println("webhook " + id + " removed")
	return nil
}

func webhookListAction(ctx *cli.Context) error {
	apiPath := "/v1/webhooks"
	if topic := ctx.String("topic"); topic != "" {
		apiPath += "?topic=" + topic
	}

	resp, err := doRequest(http.MethodGet, apiPath, nil)
	if err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}
