//nolint:whitespace //can't make both the linter and editor happy :(
package sectordef

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/iracelog-sector-monitor/pkg/repository"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/sector"
	"github.com/mpapenbr/iracelog-sector-monitor/pkg/trackdef"
)

var ErrNotFound = errors.New("sector definition not found")

// Entry is the summary of a stored definition
type Entry struct {
	ID         uuid.UUID
	Name       string
	TrackID    int
	Source     string
	Created    time.Time
	NumSectors int
}

// Create stores the definition and its ranges. The order of the ranges is kept.
// Range values are stored without rounding, so a loaded definition maps to
// the same slots as the stored one.
// Use a transaction as conn to get an atomic insert.
func Create(
	ctx context.Context,
	conn repository.Querier,
	def *trackdef.Definition,
) (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	source := def.Source
	if source == "" {
		source = trackdef.SourceFile
	}
	if _, err = conn.Exec(ctx,
		"insert into sector_definition (id, name, track_id, source) values ($1,$2,$3,$4)",
		id, def.Name, nullableTrackID(def.TrackID), source); err != nil {
		return uuid.Nil, err
	}
	batch := &pgx.Batch{}
	for i, r := range def.Sectors {
		batch.Queue(
			`insert into sector_range (definition_id, seq, name, start_pct, end_pct)
			values ($1,$2,$3,$4,$5)`,
			id, i, r.Name,
			decimal.NewFromFloat(r.Start), decimal.NewFromFloat(r.End))
	}
	br := conn.SendBatch(ctx, batch)
	for _, r := range def.Sectors {
		if _, err = br.Exec(); err != nil {
			//nolint:errcheck // the insert error is the one to report
			br.Close()
			return uuid.Nil, fmt.Errorf("sector %s: %w", r.Name, err)
		}
	}
	if err = br.Close(); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Replace deletes an existing definition with the same name and stores def.
func Replace(
	ctx context.Context,
	conn repository.Querier,
	def *trackdef.Definition,
) (uuid.UUID, error) {
	if _, err := DeleteByName(ctx, conn, def.Name); err != nil {
		return uuid.Nil, err
	}
	return Create(ctx, conn, def)
}

func LoadByName(
	ctx context.Context,
	conn repository.Querier,
	name string,
) (*trackdef.Definition, error) {
	var (
		id      uuid.UUID
		trackID *int32
		ret     = trackdef.Definition{Name: name}
	)
	row := conn.QueryRow(ctx,
		"select id, track_id, source from sector_definition where name=$1", name)
	if err := row.Scan(&id, &trackID, &ret.Source); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	if trackID != nil {
		ret.TrackID = int(*trackID)
	}

	rows, err := conn.Query(ctx,
		`select name, start_pct, end_pct from sector_range
		where definition_id=$1 order by seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r          sector.Range
			start, end decimal.Decimal
		)
		if err := rows.Scan(&r.Name, &start, &end); err != nil {
			return nil, err
		}
		r.Start = start.InexactFloat64()
		r.End = end.InexactFloat64()
		ret.Sectors = append(ret.Sectors, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &ret, nil
}

// List returns all stored definitions ordered by name
func List(ctx context.Context, conn repository.Querier) ([]Entry, error) {
	rows, err := conn.Query(ctx, `
	select d.id, d.name, d.track_id, d.source, d.created, count(r.seq)
	from sector_definition d left join sector_range r on r.definition_id=d.id
	group by d.id order by d.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			trackID *int32
			count   int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &trackID, &e.Source, &e.Created,
			&count); err != nil {
			return nil, err
		}
		if trackID != nil {
			e.TrackID = int(*trackID)
		}
		e.NumSectors = int(count)
		ret = append(ret, e)
	}
	return ret, rows.Err()
}

// deletes an entry from the database, returns number of rows deleted.
func DeleteByName(
	ctx context.Context,
	conn repository.Querier,
	name string,
) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from sector_definition where name=$1", name)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func nullableTrackID(id int) *int32 {
	if id == 0 {
		return nil
	}
	v := int32(id) //nolint:gosec // track ids are small
	return &v
}
