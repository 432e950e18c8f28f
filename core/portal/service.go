package portal

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/mail"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/user"
	"github.com/trezcool/chuo/core/view"
)

// DigestTemplate is the email template rendering view digests.
const DigestTemplate = "digest"

type (
	// Source fetches the current snapshot of a collection's records.
	Source interface {
		Fetch(ctx context.Context, c Collection) ([]view.Record, error)
	}

	// Listing is one page of a collection's view, as returned to the portal.
	Listing struct {
		view.Page
		Collection string `json:"collection"`
		Ordering   string `json:"ordering"`

		// State is the requested state with the page actually served.
		State view.ViewState `json:"-"`
	}

	// DigestData is the data of the digest email template.
	DigestData struct {
		Title   string
		Total   int
		Columns []string
		Rows    [][]string
	}

	Service struct {
		source      Source
		log         core.Logger
		maxPageSize int
	}
)

func NewService(source Source, log core.Logger, maxPageSize int) *Service {
	return &Service{source: source, log: log, maxPageSize: maxPageSize}
}

func (svc *Service) authorize(session user.Session, c Collection) error {
	if !c.Allows(session) {
		return ErrForbidden
	}
	// scoped views need to know who is asking
	if len(c.ScopeFor(session)) > 0 && strings.TrimSpace(session.UserID) == "" {
		return ErrForbidden
	}
	return nil
}

// List returns the page of c that state points to, as seen by session.
func (svc *Service) List(ctx context.Context, session user.Session, c Collection, state view.ViewState) (Listing, error) {
	if err := svc.authorize(session, c); err != nil {
		return Listing{}, err
	}

	records, err := svc.source.Fetch(ctx, c)
	if err != nil {
		return Listing{}, errors.Wrapf(err, "fetching %s", c.Name)
	}

	if svc.maxPageSize > 0 && state.PageSize > svc.maxPageSize {
		state.PageSize = svc.maxPageSize
	}
	scoped := state
	scoped.Filters = state.Filters.And(c.ScopeFor(session)...)

	page := view.Apply(records, scoped)
	state.Page = page.CurrentPage
	state.PageSize = page.PageSize

	return Listing{
		Page:       page,
		Collection: c.Name,
		Ordering:   state.Sort.Ordering(),
		State:      state,
	}, nil
}

// Digest renders the first limit records of a view into an email to the given recipients,
// with the same rows attached as CSV.
func (svc *Service) Digest(
	ctx context.Context,
	session user.Session,
	c Collection,
	state view.ViewState,
	limit int,
	to ...mail.Address,
) (*core.EmailMessage, error) {
	state.Page = 1
	state.PageSize = limit
	listing, err := svc.List(ctx, session, c, state)
	if err != nil {
		return nil, err
	}

	data := DigestData{Title: c.Title, Total: listing.TotalItems, Columns: Columns(c), Rows: Rows(c, listing.Items)}
	msg := &core.EmailMessage{
		To:           to,
		Subject:      fmt.Sprintf("%s: %d matching record(s)", c.Title, listing.TotalItems),
		TemplateName: DigestTemplate,
		TemplateData: data,
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(data.Columns)
	_ = w.WriteAll(data.Rows) // flushes
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "writing digest csv")
	}
	if err := msg.Attach(&buf, c.Name+".csv", "text/csv"); err != nil {
		return nil, err
	}
	return msg, nil
}

// Columns returns the labels of the fields of c.
func Columns(c Collection) []string {
	cols := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		cols[i] = f.Label
	}
	return cols
}

// Rows renders records as rows of cells following the fields of c.
func Rows(c Collection, records []view.Record) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(c.Fields))
		for j, f := range c.Fields {
			v, _ := r.Lookup(f.Name)
			row[j] = cast.ToString(v)
		}
		rows[i] = row
	}
	return rows
}
