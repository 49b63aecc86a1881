package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/kvetinski/contacts/config"
	"github.com/kvetinski/contacts/internal/client/api"
	"github.com/kvetinski/contacts/internal/client/listcache"
	"github.com/kvetinski/contacts/internal/domain"
	"github.com/kvetinski/contacts/internal/query"
	"github.com/kvetinski/contacts/internal/tui"
)

var (
	version = "dev"
	commit  = "unknown"
)

const (
	exitSuccess = 0
	exitRequest = 1
	exitSetup   = 2
)

// Globals are flags accepted by every command.
type Globals struct {
	Server  string        `help:"Contacts server URL. Overrides the config file." placeholder:"URL"`
	Timeout time.Duration `help:"Request timeout. Overrides the config file."`
}

// CLI is the top-level command structure for contacts.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version." short:"V"`
	TUI     TUICmd           `cmd:"" name:"tui" default:"1" help:"Open the interactive contact manager."`
	List    ListCmd          `cmd:"" help:"List contacts."`
	Get     GetCmd           `cmd:"" help:"Show one contact."`
	Add     AddCmd           `cmd:"" help:"Add a contact."`
	Update  UpdateCmd        `cmd:"" help:"Change fields of a contact."`
	Delete  DeleteCmd        `cmd:"" help:"Delete a contact."`
	Migrate MigrateCmd       `cmd:"" help:"Manage the database schema."`
}

// app carries what commands share at run time.
type app struct {
	out     io.Writer
	tty     bool
	globals Globals
	paths   []string
}

func (a *app) clientConfig() (*config.Client, error) {
	cfg, err := config.LoadClient(a.paths...)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if a.globals.Server != "" {
		cfg.API.Server = a.globals.Server
	}
	if a.globals.Timeout != 0 {
		cfg.API.Timeout = a.globals.Timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (a *app) client() (*api.Client, *config.Client, error) {
	cfg, err := a.clientConfig()
	if err != nil {
		return nil, nil, err
	}

	return api.New(cfg.API.Server, cfg.API.Timeout), cfg, nil
}

// asJSON resolves an output format flag. auto means JSON unless stdout is a terminal.
func (a *app) asJSON(format string) bool {
	return format == "json" || (format == "auto" && !a.tty)
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- TUI command ---

type TUICmd struct{}

func (c *TUICmd) Run(a *app) error {
	if !a.tty {
		return errSetup(errors.New("tui: requires a terminal (TTY)"))
	}

	client, cfg, err := a.client()
	if err != nil {
		return errSetup(fmt.Errorf("tui: %w", err))
	}

	m := tui.New(client, listcache.New(), tui.Options{
		PageSize: cfg.UI.PageSize,
		Timeout:  cfg.API.Timeout,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	return nil
}

// --- List command ---

type ListCmd struct {
	Page    int    `help:"Page number." default:"1"`
	Limit   int    `help:"Contacts per page. Defaults to ui.page_size."`
	Sort    string `help:"Sort order, field_direction." default:"createdAt_desc"`
	Search  string `help:"Match against name, email or phone." short:"s"`
	Country string `help:"Country code filter, or all." default:"all"`
	Format  string `help:"Output format." enum:"auto,table,json" default:"auto"`
}

func (c *ListCmd) Run(a *app) error {
	client, cfg, err := a.client()
	if err != nil {
		return errSetup(fmt.Errorf("list: %w", err))
	}

	p := query.Params{
		Page:    c.Page,
		Limit:   c.Limit,
		Sort:    c.Sort,
		Search:  c.Search,
		Country: c.Country,
	}
	if p.Limit == 0 {
		p.Limit = cfg.UI.PageSize
	}

	page, err := client.List(context.Background(), p)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	if a.asJSON(c.Format) {
		return a.writeJSON(page)
	}

	if len(page.Contacts) == 0 {
		_, _ = fmt.Fprintln(a.out, "No contacts found")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tEMAIL\tPHONE\tID")
	for _, ct := range page.Contacts {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ct.Name, ct.Email, phone(ct.Phone), ct.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "\nPage %d of %d (%d contacts)\n", page.CurrentPage, page.TotalPages, page.TotalContacts)

	return nil
}

// --- Get command ---

type GetCmd struct {
	ID     string `arg:"" help:"Contact ID."`
	Format string `help:"Output format." enum:"auto,table,json" default:"auto"`
}

func (c *GetCmd) Run(a *app) error {
	client, _, err := a.client()
	if err != nil {
		return errSetup(fmt.Errorf("get: %w", err))
	}

	ct, err := client.Get(context.Background(), c.ID)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}

	if a.asJSON(c.Format) {
		return a.writeJSON(ct)
	}

	printContact(a.out, ct)
	return nil
}

// --- Add command ---

type AddCmd struct {
	Name        string `help:"Full name." required:""`
	Email       string `help:"Email address." required:""`
	CountryCode string `help:"Phone country code, e.g. +91." required:""`
	Number      string `help:"Ten digit phone number." required:""`
}

func (c *AddCmd) Run(a *app) error {
	in, err := domain.ValidateContact(domain.ContactInput{
		Name:  c.Name,
		Email: c.Email,
		Phone: domain.Phone{CountryCode: c.CountryCode, Number: c.Number},
	})
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	client, _, err := a.client()
	if err != nil {
		return errSetup(fmt.Errorf("add: %w", err))
	}

	ct, err := client.Create(context.Background(), in)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	_, _ = fmt.Fprintf(a.out, "%s has been added to your contacts (%s)\n", ct.Name, ct.ID)
	return nil
}

// --- Update command ---

// UpdateCmd sends only the flags that were given. A lone country code or
// number is completed from the stored phone.
type UpdateCmd struct {
	ID          string `arg:"" help:"Contact ID."`
	Name        string `help:"New full name."`
	Email       string `help:"New email address."`
	CountryCode string `help:"New phone country code."`
	Number      string `help:"New phone number."`
}

func (c *UpdateCmd) Run(a *app) error {
	client, _, err := a.client()
	if err != nil {
		return errSetup(fmt.Errorf("update: %w", err))
	}

	ctx := context.Background()
	var patch domain.ContactPatch
	if c.Name != "" {
		patch.Name = &c.Name
	}
	if c.Email != "" {
		patch.Email = &c.Email
	}
	if c.CountryCode != "" || c.Number != "" {
		ph := domain.Phone{CountryCode: c.CountryCode, Number: c.Number}
		if ph.CountryCode == "" || ph.Number == "" {
			current, err := client.Get(ctx, c.ID)
			if err != nil {
				return fmt.Errorf("update: %w", err)
			}
			if ph.CountryCode == "" {
				ph.CountryCode = current.Phone.CountryCode
			}
			if ph.Number == "" {
				ph.Number = current.Phone.Number
			}
		}
		patch.Phone = &ph
	}
	if patch.IsEmpty() {
		return errSetup(errors.New("update: nothing to change, pass --name, --email, --country-code or --number"))
	}

	if patch, err = domain.ValidatePatch(patch); err != nil {
		return fmt.Errorf("update: %w", err)
	}

	ct, err := client.Update(ctx, c.ID, patch)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}

	_, _ = fmt.Fprintf(a.out, "%s's information has been updated\n", ct.Name)
	return nil
}

// --- Delete command ---

type DeleteCmd struct {
	ID string `arg:"" help:"Contact ID."`
}

func (c *DeleteCmd) Run(a *app) error {
	client, _, err := a.client()
	if err != nil {
		return errSetup(fmt.Errorf("delete: %w", err))
	}

	if err := client.Delete(context.Background(), c.ID); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	_, _ = fmt.Fprintf(a.out, "Contact %s deleted\n", c.ID)
	return nil
}

func phone(p domain.Phone) string {
	return p.CountryCode + " " + p.Number
}

func printContact(w io.Writer, c domain.Contact) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Name:\t%s\n", c.Name)
	_, _ = fmt.Fprintf(tw, "Email:\t%s\n", c.Email)
	_, _ = fmt.Fprintf(tw, "Phone:\t%s\n", phone(c.Phone))
	_, _ = fmt.Fprintf(tw, "ID:\t%s\n", c.ID)
	_, _ = fmt.Fprintf(tw, "Added:\t%s\n", c.CreatedAt.Local().Format(time.DateTime))
	_, _ = fmt.Fprintf(tw, "Updated:\t%s\n", c.UpdatedAt.Local().Format(time.DateTime))
	_ = tw.Flush()
}

// setupError marks failures that happen before any request is sent.
type setupError struct{ err error }

func (e *setupError) Error() string { return e.err.Error() }
func (e *setupError) Unwrap() error { return e.err }

func errSetup(err error) error { return &setupError{err: err} }

func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *setupError
	if errors.As(err, &se) {
		return exitSetup
	}

	return exitRequest
}

// describe renders err for the terminal, one validation problem per line.
func describe(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		lines := make([]string, 0, len(verr.Violations))
		for _, v := range verr.Violations {
			if v.Field == "" {
				lines = append(lines, "  "+v.Message)
				continue
			}
			lines = append(lines, fmt.Sprintf("  %s: %s", v.Field, v.Message))
		}
		return "invalid contact:\n" + strings.Join(lines, "\n")
	}

	return err.Error()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("contacts"),
		kong.Description("Manage contacts from the terminal."),
		kong.Vars{"version": version + " " + commit},
	)

	err := ctx.Run(&app{
		out:     os.Stdout,
		tty:     isTerminal(os.Stdout),
		globals: cli.Globals,
		paths:   config.ClientPaths(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", describe(err))
		os.Exit(exitCode(err))
	}
}
