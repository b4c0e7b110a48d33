package httpinterface

import (
	"gopkg.in/macaroon-bakery.v2/bakery"
)

const (
	EntityAccess    = "access"
	EntityWatchlist = "watchlist"
	EntityWebhook   = "webhook"
)

// AdminPermissions returns the permissions of the macaroon admin.macaroon.
// This grants access to all actions for all entities.
func AdminPermissions() []bakery.Op {
	return []bakery.Op{
		{
			Entity: EntityAccess,
			Action: "read",
		},
		{
			Entity: EntityAccess,
			Action: "write",
		},
		{
			Entity: EntityWatchlist,
			Action: "read",
		},
		{
			Entity: EntityWatchlist,
			Action: "write",
		},
		{
			Entity: EntityWebhook,
			Action: "read",
		},
		{
			Entity: EntityWebhook,
			Action: "write",
		},
	}
}

// CuratorPermissions returns the permissions of the macaroon
// curator.macaroon. This grants access to all actions for the watchlist
// entity, role administration stays with the admin macaroon.
func CuratorPermissions() []bakery.Op {
	return []bakery.Op{
		{
			Entity: EntityWatchlist,
			Action: "read",
		},
		{
			Entity: EntityWatchlist,
			Action: "write",
		},
	}
}

// ReadOnlyPermissions returns the permissions of the macaroon
// readonly.macaroon. This grants access to the read action for all
// entities.
func ReadOnlyPermissions() []bakery.Op {
	return []bakery.Op{
		{
			Entity: EntityAccess,
			Action: "read",
		},
		{
			Entity: EntityWatchlist,
			Action: "read",
		},
		{
			Entity: EntityWebhook,
			Action: "read",
		},
	}
}

// Macaroons maps the macaroon files to the permissions they are baked
// with at the first daemon start.
var Macaroons = map[string][]bakery.Op{
	AdminMacaroonFile:    AdminPermissions(),
	CuratorMacaroonFile:  CuratorPermissions(),
	ReadOnlyMacaroonFile: ReadOnlyPermissions(),
}
