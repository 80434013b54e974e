package util

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/database"
	"github.com/zizibee/zizibee/database/boltdb"
	"github.com/zizibee/zizibee/database/sqlite"
	"github.com/zizibee/zizibee/logger"
	"github.com/zizibee/zizibee/metrics"
	"github.com/zizibee/zizibee/remote"
	"github.com/zizibee/zizibee/storage"
)

// Connect opens an SSH connection to the login host.
func Connect(ctx context.Context, conf config.Config, log *logger.Logger) (*remote.Client, error) {
	c, err := remote.NewClient(conf, log)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Transfer is an open connection to the transfer host.
type Transfer struct {
	*storage.Transfer
	client *remote.Client
}

// Close closes the SFTP subsystem and the SSH connection.
func (t *Transfer) Close() error {
	var result *multierror.Error
	if err := t.Transfer.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := t.client.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// ConnectTransfer opens an SSH connection to the transfer host and starts
// the file transfer gateway on it.
func ConnectTransfer(ctx context.Context, conf config.Config, log *logger.Logger) (*Transfer, error) {
	c, err := remote.NewTransferClient(conf, log)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		c.Close()
		return nil, err
	}
	t, err := storage.NewTransfer(conf, c.Conn(), log.Sub("transfer"))
	if err != nil {
		c.Close()
		return nil, err
	}
	return &Transfer{Transfer: t, client: c}, nil
}

// OpenStore opens the job store selected by conf.Database.
func OpenStore(conf config.Config) (database.JobStore, error) {
	switch conf.Database {
	case "boltdb", "":
		return boltdb.NewBoltDB(conf.BoltDB)
	case "sqlite":
		return sqlite.NewSQLite(conf.SQLite)
	}
	return nil, fmt.Errorf("unknown database: '%s'", conf.Database)
}

// WriteMetrics writes the metrics textfile, if one is configured.
func WriteMetrics(conf config.Config, log *logger.Logger) {
	if err := metrics.WriteTextfile(conf.Metrics.TextfilePath); err != nil {
		log.Error("Couldn't write metrics", err)
	}
}
