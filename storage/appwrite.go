package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strconv"

	"github.com/appwrite/sdk-for-go/appwrite"
	"github.com/appwrite/sdk-for-go/client"
	"github.com/appwrite/sdk-for-go/tablesdb"
	"go.uber.org/multierr"

	"github.com/back2basic/euregiohosting/sniffer/config"
	"github.com/back2basic/euregiohosting/sniffer/logging"
	"github.com/back2basic/euregiohosting/sniffer/model"
)

// Appwrite pushes stored pairs to an Appwrite table.
type Appwrite struct {
	client   *client.Client
	db       *tablesdb.TablesDB
	database string
	table    string
}

// NewAppwrite returns nil when cfg is not enabled.
func NewAppwrite(cfg config.Appwrite) *Appwrite {
	if !cfg.Enabled() {
		logging.For("appwrite").Info("missing endpoint, project or key, external push disabled")
		return nil
	}

	c := appwrite.NewClient(
		appwrite.WithEndpoint(cfg.Endpoint),
		appwrite.WithProject(cfg.Project),
		appwrite.WithKey(cfg.APIKey),
	)

	return &Appwrite{
		client:   &c,
		db:       tablesdb.New(c),
		database: cfg.Database,
		table:    cfg.Table,
	}
}

func makeRowID(hostname string, p model.AddressPortPair) string {
	h := sha1.New()
	h.Write([]byte(hostname))
	h.Write([]byte(p.Address1))
	h.Write([]byte(strconv.Itoa(int(p.Port1))))
	h.Write([]byte(p.Address2))
	h.Write([]byte(strconv.Itoa(int(p.Port2))))
	h.Write([]byte(p.TransProtocol.String()))
	sum := hex.EncodeToString(h.Sum(nil))
	return sum[:32] // Appwrite ids are at most 36 chars
}

func rowData(r model.AggregatedRecord) map[string]interface{} {
	return map[string]interface{}{
		"hostname":            r.Hostname,
		"address1":            r.Pair.Address1,
		"port1":               int(r.Pair.Port1),
		"address2":            r.Pair.Address2,
		"port2":               int(r.Pair.Port2),
		"trans_protocol":      r.Pair.TransProtocol.String(),
		"app_protocol":        r.Info.AppProtocol.String(),
		"traffic_type":        r.Info.TrafficType.String(),
		"dns":                 r.DNS,
		"transmitted_bytes":   r.Info.TransmittedBytes.String(),
		"transmitted_packets": r.Info.TransmittedPackets.String(),
		"initial_timestamp":   r.Info.InitialTimestamp,
		"final_timestamp":     r.Info.FinalTimestamp,
		"updated_at":          r.UpdatedAt,
	}
}

// Push upserts rows. Failed rows are logged and reported together; the
// remaining rows are still pushed.
func (a *Appwrite) Push(rows []model.AggregatedRecord) error {
	if a == nil || a.client == nil {
		return nil
	}
	if a.database == "" || a.table == "" {
		return errors.New("missing APPWRITE_DATABASE or APPWRITE_TABLE")
	}

	log := logging.For("appwrite")
	var errs error
	pushed := 0
	for _, r := range rows {
		if r.Info.TransmittedPackets.IsZero() {
			continue
		}
		rowID := makeRowID(r.Hostname, r.Pair)
		_, err := a.db.UpsertRow(a.database, a.table, rowID, a.db.WithUpsertRowData(rowData(r)))
		if err != nil {
			log.Warnw("upsert failed", "row", rowID, "error", err)
			errs = multierr.Append(errs, err)
			continue
		}
		pushed++
	}

	log.Infow("pushed rows", "rows", pushed)
	return errs
}
