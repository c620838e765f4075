package db

import (
	"context"
)

const deleteLoadEventsBefore = `-- name: DeleteLoadEventsBefore :exec
delete from load_event where at < ?
`

func (q *Queries) DeleteLoadEventsBefore(ctx context.Context, at int64) error {
	_, err := q.db.ExecContext(ctx, deleteLoadEventsBefore, at)
	return err
}

const getCurrentDocument = `-- name: GetCurrentDocument :one
select content, source, revision, size, record_count, loaded_at from current_document
where id = 1
`

type GetCurrentDocumentRow struct {
	Content     []byte
	Source      string
	Revision    string
	Size        int64
	RecordCount int64
	LoadedAt    int64
}

func (q *Queries) GetCurrentDocument(ctx context.Context) (GetCurrentDocumentRow, error) {
	row := q.db.QueryRowContext(ctx, getCurrentDocument)
	var i GetCurrentDocumentRow
	err := row.Scan(
		&i.Content,
		&i.Source,
		&i.Revision,
		&i.Size,
		&i.RecordCount,
		&i.LoadedAt,
	)
	return i, err
}

const getCurrentDocumentInfo = `-- name: GetCurrentDocumentInfo :one
select source, revision, size, record_count, loaded_at from current_document
where id = 1
`

type GetCurrentDocumentInfoRow struct {
	Source      string
	Revision    string
	Size        int64
	RecordCount int64
	LoadedAt    int64
}

func (q *Queries) GetCurrentDocumentInfo(ctx context.Context) (GetCurrentDocumentInfoRow, error) {
	row := q.db.QueryRowContext(ctx, getCurrentDocumentInfo)
	var i GetCurrentDocumentInfoRow
	err := row.Scan(
		&i.Source,
		&i.Revision,
		&i.Size,
		&i.RecordCount,
		&i.LoadedAt,
	)
	return i, err
}

const getRecentLoadEvents = `-- name: GetRecentLoadEvents :many
select id, source, revision, ok, message, at from load_event
order by at desc, id desc
limit ?
`

func (q *Queries) GetRecentLoadEvents(ctx context.Context, limit int64) ([]LoadEvent, error) {
	rows, err := q.db.QueryContext(ctx, getRecentLoadEvents, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LoadEvent
	for rows.Next() {
		var i LoadEvent
		if err := rows.Scan(
			&i.ID,
			&i.Source,
			&i.Revision,
			&i.Ok,
			&i.Message,
			&i.At,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const noteLoadEvent = `-- name: NoteLoadEvent :exec
insert into load_event(source, revision, ok, message, at)
values (?, ?, ?, ?, ?)
`

type NoteLoadEventParams struct {
	Source   string
	Revision string
	Ok       bool
	Message  string
	At       int64
}

func (q *Queries) NoteLoadEvent(ctx context.Context, arg NoteLoadEventParams) error {
	_, err := q.db.ExecContext(ctx, noteLoadEvent,
		arg.Source,
		arg.Revision,
		arg.Ok,
		arg.Message,
		arg.At,
	)
	return err
}

const setCurrentDocument = `-- name: SetCurrentDocument :exec
insert into current_document(id, content, source, revision, size, record_count, loaded_at)
values (1, ?, ?, ?, ?, ?, ?)
on conflict (id) do update set
    content = excluded.content,
    source = excluded.source,
    revision = excluded.revision,
    size = excluded.size,
    record_count = excluded.record_count,
    loaded_at = excluded.loaded_at
`

type SetCurrentDocumentParams struct {
	Content     []byte
	Source      string
	Revision    string
	Size        int64
	RecordCount int64
	LoadedAt    int64
}

func (q *Queries) SetCurrentDocument(ctx context.Context, arg SetCurrentDocumentParams) error {
	_, err := q.db.ExecContext(ctx, setCurrentDocument,
		arg.Content,
		arg.Source,
		arg.Revision,
		arg.Size,
		arg.RecordCount,
		arg.LoadedAt,
	)
	return err
}
