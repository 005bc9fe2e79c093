package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"lukechampine.com/uint128"

	"github.com/back2basic/euregiohosting/sniffer/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pairs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hostname TEXT NOT NULL,
    address1 TEXT NOT NULL,
    port1 INTEGER NOT NULL,
    address2 TEXT NOT NULL,
    port2 INTEGER NOT NULL,
    trans_protocol TEXT NOT NULL,
    app_protocol TEXT NOT NULL,
    traffic_type TEXT NOT NULL,
    dns TEXT,
    transmitted_bytes TEXT NOT NULL,
    transmitted_packets TEXT NOT NULL,
    initial_timestamp TEXT NOT NULL,
    final_timestamp TEXT NOT NULL,
    updated_at INTEGER NOT NULL,
    seg_initial TEXT NOT NULL,
    seg_bytes TEXT NOT NULL,
    seg_packets TEXT NOT NULL,
    UNIQUE (hostname, address1, port1, address2, port2, trans_protocol)
);
`

// Store persists the totals of every pair in SQLite. Counters are kept as
// decimal text so the full 128-bit range survives.
//
// The table may drop a pair and start it again from zero, so each row also
// remembers the live record ("segment") it was last saved from. Saving the
// same segment adds only its growth; a new segment adds all of it.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		_ = os.MkdirAll(dir, 0755)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SavePairs accumulates rows into the stored totals in one transaction.
func (s *Store) SavePairs(rows []model.AggregatedRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	for _, r := range rows {
		if err := savePair(tx, r); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert %s: %w", r.Pair.PrintGUI(), err)
		}
	}

	return tx.Commit()
}

type segment struct {
	initial string
	bytes   uint128.Uint128
	packets uint128.Uint128
}

func savePair(tx *sql.Tx, r model.AggregatedRecord) error {
	key := []interface{}{
		r.Hostname, r.Pair.Address1, r.Pair.Port1, r.Pair.Address2, r.Pair.Port2,
		r.Pair.TransProtocol.String(),
	}
	seg := segment{
		initial: r.Info.InitialTimestamp,
		bytes:   r.Info.TransmittedBytes,
		packets: r.Info.TransmittedPackets,
	}

	var totalB, totalP, segB, segP, segInit string
	err := tx.QueryRow(`
        SELECT transmitted_bytes, transmitted_packets, seg_initial, seg_bytes, seg_packets
        FROM pairs
        WHERE hostname = ? AND address1 = ? AND port1 = ? AND address2 = ? AND port2 = ? AND trans_protocol = ?
    `, key...).Scan(&totalB, &totalP, &segInit, &segB, &segP)

	if errors.Is(err, sql.ErrNoRows) {
		_, err = tx.Exec(`
            INSERT INTO pairs (
                hostname, address1, port1, address2, port2, trans_protocol,
                app_protocol, traffic_type, dns,
                transmitted_bytes, transmitted_packets,
                initial_timestamp, final_timestamp, updated_at,
                seg_initial, seg_bytes, seg_packets
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        `, append(key,
			r.Info.AppProtocol.String(), r.Info.TrafficType.String(), r.DNS,
			seg.bytes.String(), seg.packets.String(),
			r.Info.InitialTimestamp, r.Info.FinalTimestamp, r.UpdatedAt,
			seg.initial, seg.bytes.String(), seg.packets.String(),
		)...)
		return err
	}
	if err != nil {
		return err
	}

	total, prev, err := parseCounters(totalB, totalP, segInit, segB, segP)
	if err != nil {
		return err
	}
	total = accumulate(total, prev, seg)

	_, err = tx.Exec(`
        UPDATE pairs SET
            app_protocol = ?, dns = ?,
            transmitted_bytes = ?, transmitted_packets = ?,
            final_timestamp = ?, updated_at = ?,
            seg_initial = ?, seg_bytes = ?, seg_packets = ?
        WHERE hostname = ? AND address1 = ? AND port1 = ? AND address2 = ? AND port2 = ? AND trans_protocol = ?
    `, append([]interface{}{
		r.Info.AppProtocol.String(), r.DNS,
		total.bytes.String(), total.packets.String(),
		r.Info.FinalTimestamp, r.UpdatedAt,
		seg.initial, seg.bytes.String(), seg.packets.String(),
	}, key...)...)
	return err
}

func parseCounters(totalB, totalP, segInit, segB, segP string) (total, prev segment, err error) {
	if total.bytes, err = uint128.FromString(totalB); err != nil {
		return
	}
	if total.packets, err = uint128.FromString(totalP); err != nil {
		return
	}
	if prev.bytes, err = uint128.FromString(segB); err != nil {
		return
	}
	if prev.packets, err = uint128.FromString(segP); err != nil {
		return
	}
	prev.initial = segInit
	return
}

// accumulate adds cur to total. cur continues prev when it started at the
// same time and has not shrunk; otherwise it is a fresh record.
func accumulate(total, prev, cur segment) segment {
	same := cur.initial == prev.initial &&
		cur.bytes.Cmp(prev.bytes) >= 0 &&
		cur.packets.Cmp(prev.packets) >= 0
	if same {
		total.bytes = addSat(total.bytes, cur.bytes.Sub(prev.bytes))
		total.packets = addSat(total.packets, cur.packets.Sub(prev.packets))
		return total
	}
	total.bytes = addSat(total.bytes, cur.bytes)
	total.packets = addSat(total.packets, cur.packets)
	return total
}

func addSat(a, b uint128.Uint128) uint128.Uint128 {
	if uint128.Max.Sub(a).Cmp(b) < 0 {
		return uint128.Max
	}
	return a.Add(b)
}

// Pairs returns the stored rows updated at or after since (unix seconds),
// oldest update first.
func (s *Store) Pairs(since int64) ([]model.AggregatedRecord, error) {
	rows, err := s.db.Query(`
        SELECT hostname, address1, port1, address2, port2,
               trans_protocol, app_protocol, traffic_type, COALESCE(dns, ''),
               transmitted_bytes, transmitted_packets,
               initial_timestamp, final_timestamp, updated_at
        FROM pairs
        WHERE updated_at >= ?
        ORDER BY updated_at, id
    `, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AggregatedRecord
	for rows.Next() {
		var (
			r                   model.AggregatedRecord
			trans, app, traffic string
			bytesText, pktsText string
		)
		err := rows.Scan(
			&r.Hostname, &r.Pair.Address1, &r.Pair.Port1, &r.Pair.Address2, &r.Pair.Port2,
			&trans, &app, &traffic, &r.DNS,
			&bytesText, &pktsText,
			&r.Info.InitialTimestamp, &r.Info.FinalTimestamp, &r.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if r.Info.TransmittedBytes, err = uint128.FromString(bytesText); err != nil {
			return nil, fmt.Errorf("bytes of %s: %w", r.Pair.PrintGUI(), err)
		}
		if r.Info.TransmittedPackets, err = uint128.FromString(pktsText); err != nil {
			return nil, fmt.Errorf("packets of %s: %w", r.Pair.PrintGUI(), err)
		}
		r.Pair.TransProtocol = model.ParseTransProtocol(trans)
		r.Info.TransProtocol = r.Pair.TransProtocol
		r.Info.AppProtocol = model.ParseAppProtocol(app)
		r.Info.TrafficType = model.ParseTrafficType(traffic)
		r.Info.VeryLongAddress = r.Pair.VeryLong()
		out = append(out, r)
	}
	return out, rows.Err()
}
