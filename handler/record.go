package handler

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"golang.org/x/xerrors"

	"netscan/domain/entity"
)

// Columns of the connection table.
var Columns = []string{"Offset", "Proto", "LocalAddr", "LocalPort", "ForeignAddr", "ForeignPort", "State", "PID", "Owner", "Created"}

// RecordSource is satisfied by netscan.Stream.
type RecordSource interface {
	Next() bool
	Record() *entity.NetworkRecord
	Err() error
}

type table struct {
	w *tabwriter.Writer
}

func NewTable(w io.Writer) *table {
	return &table{w: tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)}
}

func formatTime(f entity.Field[time.Time]) string {
	if t, ok := f.Value(); ok {
		return t.UTC().Format("2006-01-02 15:04:05 UTC")
	}
	return f.String()
}

// Row renders one record in column order.
func Row(r *entity.NetworkRecord) []interface{} {
	return []interface{}{
		fmt.Sprintf("0x%x", r.Offset),
		r.Protocol,
		r.LocalAddr,
		r.LocalPort,
		r.RemoteAddr,
		r.RemotePort,
		r.State,
		r.OwnerPID,
		r.OwnerName,
		formatTime(r.CreatedAt),
	}
}

// Render writes every record of src and returns how many were written.
func (h *table) Render(src RecordSource) (n int, err error) {
	for i, c := range Columns {
		sep := "\t"
		if i == len(Columns)-1 {
			sep = "\n"
		}
		fmt.Fprint(h.w, c, sep)
	}

	for src.Next() {
		row := Row(src.Record())
		for i, v := range row {
			sep := "\t"
			if i == len(row)-1 {
				sep = "\n"
			}
			fmt.Fprint(h.w, v, sep)
		}
		n++
	}
	if err = h.w.Flush(); err != nil {
		err = xerrors.Errorf("failed to flush table: %w", err)
		return
	}
	if err = src.Err(); err != nil {
		err = xerrors.Errorf(": %w", err)
	}
	return
}
