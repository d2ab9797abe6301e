// Package natsbridge exposes the cache actor's commands as NATS
// request/reply subjects.
package natsbridge

import (
	natsgo "github.com/nats-io/nats.go"
)

type closeFunc = func()

// Connector opens a NATS connection and returns a function that closes it.
type Connector func() (nc *natsgo.Conn, close closeFunc, err error)

// ConnectURL returns a Connector dialling natsURL.
func ConnectURL(natsURL string) Connector {
	return func() (*natsgo.Conn, closeFunc, error) {
		nc, err := natsgo.Connect(
			natsURL,
			natsgo.Name("stash"),
			natsgo.MaxReconnects(3),
		)
		if err != nil {
			return nil, nil, err
		}
		return nc, func() { nc.Close() }, nil
	}
}
