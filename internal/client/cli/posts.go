package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/gopherblog/internal/client/client"
	"github.com/dmitrijs2005/gopherblog/internal/client/models"
)

const timeLayout = "2006-01-02 15:04"

var getMultiline = GetMultiline

// List prints the newest posts as a table.
func (a *App) List(ctx context.Context) error {
	posts, err := a.client.ListPosts(ctx)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Fprintln(a.out, "No posts yet")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tCREATED")
	for _, p := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Title, p.AuthorName(), p.CreatedAt.Local().Format(timeLayout))
	}
	return tw.Flush()
}

// Show prints a single post.
func (a *App) Show(ctx context.Context, id string) error {
	p, err := a.client.GetPost(ctx, id)
	if err != nil {
		return err
	}
	a.printPost(p)
	return nil
}

func (a *App) printPost(p *models.Post) {
	fmt.Fprintf(a.out, "%s\n%s\n", p.Title, strings.Repeat("=", len(p.Title)))
	fmt.Fprintf(a.out, "by %s, %s", p.AuthorName(), p.CreatedAt.Local().Format(timeLayout))
	if p.UpdatedAt.After(p.CreatedAt) {
		fmt.Fprintf(a.out, " (edited %s)", p.UpdatedAt.Local().Format(timeLayout))
	}
	fmt.Fprintln(a.out)
	if cover := p.CoverURL(a.baseURL); cover != "" {
		fmt.Fprintf(a.out, "cover: %s\n", cover)
	}
	if p.Summary != "" {
		fmt.Fprintf(a.out, "\n%s\n", p.Summary)
	}
	fmt.Fprintf(a.out, "\n%s\n", p.Content)
}

// Delete removes a post the current user wrote.
func (a *App) Delete(ctx context.Context, id string) error {
	p, err := a.client.DeletePost(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %q\n", p.Title)
	return nil
}

// Create prompts for the post fields and an optional cover image path.
func (a *App) Create(ctx context.Context) error {
	var np client.NewPost
	var err error

	if np.Title, err = getRequiredText(a.reader, "Title", a.out); err != nil {
		return err
	}
	if np.Summary, err = getSimpleText(a.reader, "Summary", a.out); err != nil {
		return err
	}
	if np.Content, err = getMultiline(a.reader, "Content", a.out); err != nil {
		return err
	}
	if np.CoverPath, err = getSimpleText(a.reader, "Cover image path (empty for none)", a.out); err != nil {
		return err
	}

	p, err := a.client.CreatePost(ctx, np)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s\n", p.ID)
	return nil
}
