// Package sheets mirrors state changes into a Google Spreadsheet. The mirror
// is a side channel, never a source of truth: every exported write is
// detached from the calling request, failures are logged and lost, and the
// sheet is never read back into application state.
package sheets

import (
	"context"
	"fmt"
	"log"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"socialgram/models"
)

const (
	postsRange     = "Posts!A:I"
	loginsRange    = "Logins!A:D"
	userStatsRange = "UserStats!A:E"

	mirrorTimeout = 10 * time.Second
)

// Cell addresses a single spreadsheet cell update.
type Cell struct {
	Range string
	Value interface{}
}

// valuesAPI is the slice of the Sheets values API the mirror uses. Narrowed
// to an interface so the row-building logic is testable without the network.
type valuesAPI interface {
	Append(ctx context.Context, readRange string, row []interface{}) error
	Get(ctx context.Context, readRange string) ([][]interface{}, error)
	Update(ctx context.Context, readRange string, row []interface{}) error
	BatchUpdate(ctx context.Context, cells []Cell) error
}

type Mirror struct {
	api valuesAPI
}

// New builds a mirror backed by a service-account Sheets client.
func New(ctx context.Context, spreadsheetID string, credentialsJSON []byte) (*Mirror, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, err
	}
	return &Mirror{api: &googleValues{svc: svc, spreadsheetID: spreadsheetID}}, nil
}

// PostStats carries the counters that changed; nil fields keep their cell.
type PostStats struct {
	Likes    *int
	Comments *int
	Saved    *int
}

// PostCreated appends a row for a new post.
func (m *Mirror) PostCreated(p models.Post) {
	m.async("add post", func(ctx context.Context) error {
		return m.api.Append(ctx, postsRange, postRow(p))
	})
}

// PostStatsChanged locates the post's row by id and rewrites the changed
// counter cells. The lookup scans the sheet linearly, acceptable for a
// best-effort side channel.
func (m *Mirror) PostStatsChanged(postID string, stats PostStats) {
	m.async("update post stats", func(ctx context.Context) error {
		rows, err := m.api.Get(ctx, postsRange)
		if err != nil {
			return err
		}
		row := findRow(rows, postID)
		if row == -1 {
			return fmt.Errorf("post %s not found in sheet", postID)
		}
		return m.api.BatchUpdate(ctx, statCells(row, stats))
	})
}

// UserLogin appends a row for a registration or login event.
func (m *Mirror) UserLogin(userID, username, event string) {
	m.async("log user login", func(ctx context.Context) error {
		return m.api.Append(ctx, loginsRange, []interface{}{
			userID, username, event, time.Now().UTC().Format(time.RFC3339),
		})
	})
}

// UserStats appends a row with the user's current counters.
func (m *Mirror) UserStats(userID string, followers, following, posts int) {
	m.async("update user stats", func(ctx context.Context) error {
		return m.api.Append(ctx, userStatsRange, []interface{}{
			userID, followers, following, posts, time.Now().UTC().Format(time.RFC3339),
		})
	})
}

// Init writes the fixed header row of each mirror table.
func (m *Mirror) Init(ctx context.Context) error {
	if err := m.api.Update(ctx, "Posts!A1:I1", []interface{}{
		"Post ID", "Author ID", "Type", "Caption", "Text Content", "Likes", "Comments", "Saved", "Created At",
	}); err != nil {
		return err
	}
	if err := m.api.Update(ctx, "Logins!A1:D1", []interface{}{
		"User ID", "Username", "Login Timestamp", "Recorded At",
	}); err != nil {
		return err
	}
	return m.api.Update(ctx, "UserStats!A1:E1", []interface{}{
		"User ID", "Followers Count", "Following Count", "Posts Count", "Updated At",
	})
}

// async runs op detached from the caller with its own deadline. A nil mirror
// (sheets not configured) is a no-op. Errors never reach the caller.
func (m *Mirror) async(op string, fn func(context.Context) error) {
	if m == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("Google Sheets %s error: %v", op, err)
		}
	}()
}

func postRow(p models.Post) []interface{} {
	return []interface{}{
		p.ID.Hex(),
		p.Author.Hex(),
		p.Type,
		p.Caption,
		p.TextContent,
		p.LikesCount,
		p.CommentsCount,
		p.SavedCount,
		time.Now().UTC().Format(time.RFC3339),
	}
}

func findRow(rows [][]interface{}, postID string) int {
	for i, row := range rows {
		if len(row) > 0 && fmt.Sprint(row[0]) == postID {
			return i + 1 // sheet rows are 1-based
		}
	}
	return -1
}

func statCells(row int, stats PostStats) []Cell {
	var cells []Cell
	if stats.Likes != nil {
		cells = append(cells, Cell{Range: fmt.Sprintf("Posts!F%d", row), Value: *stats.Likes})
	}
	if stats.Comments != nil {
		cells = append(cells, Cell{Range: fmt.Sprintf("Posts!G%d", row), Value: *stats.Comments})
	}
	if stats.Saved != nil {
		cells = append(cells, Cell{Range: fmt.Sprintf("Posts!H%d", row), Value: *stats.Saved})
	}
	return cells
}

// googleValues implements valuesAPI on the real Sheets service.
type googleValues struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

func (g *googleValues) Append(ctx context.Context, readRange string, row []interface{}) error {
	_, err := g.svc.Spreadsheets.Values.
		Append(g.spreadsheetID, readRange, &sheetsapi.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return err
}

func (g *googleValues) Get(ctx context.Context, readRange string) ([][]interface{}, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (g *googleValues) Update(ctx context.Context, readRange string, row []interface{}) error {
	_, err := g.svc.Spreadsheets.Values.
		Update(g.spreadsheetID, readRange, &sheetsapi.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	return err
}

func (g *googleValues) BatchUpdate(ctx context.Context, cells []Cell) error {
	data := make([]*sheetsapi.ValueRange, len(cells))
	for i, c := range cells {
		data[i] = &sheetsapi.ValueRange{
			Range:  c.Range,
			Values: [][]interface{}{{c.Value}},
		}
	}
	_, err := g.svc.Spreadsheets.Values.
		BatchUpdate(g.spreadsheetID, &sheetsapi.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data:             data,
		}).
		Context(ctx).Do()
	return err
}
