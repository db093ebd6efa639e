package views

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"biletmaster/models"
	"biletmaster/presenter"
)

const consoleTimeLayout = "Mon 02 Jan 2006 15:04"

var (
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
	okColor    = color.New(color.FgGreen)
)

// LineReader yields one line per call and io.EOF once input ends.
// A readline instance satisfies it.
type LineReader interface {
	Readline() (string, error)
}

type scannerLines struct{ s *bufio.Scanner }

// Lines reads r line by line.
func Lines(r io.Reader) LineReader { return scannerLines{s: bufio.NewScanner(r)} }

func (l scannerLines) Readline() (string, error) {
	if l.s.Scan() {
		return l.s.Text(), nil
	}
	if err := l.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Console is a line oriented view. Each input line is either the number or
// the name of a listed location, or "retry".
type Console struct {
	in  LineReader
	out io.Writer
	loc *time.Location

	selections chan models.Location
	retries    chan struct{}

	mu        sync.Mutex
	locations []models.Location
}

func NewConsole(in LineReader, out io.Writer, loc *time.Location) *Console {
	if loc == nil {
		loc = time.Local
	}
	return &Console{
		in:         in,
		out:        out,
		loc:        loc,
		selections: make(chan models.Location),
		retries:    make(chan struct{}),
	}
}

var _ presenter.View = (*Console)(nil)

// Run reads commands until the input ends or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	defer close(c.selections)
	defer close(c.retries)

	for {
		raw, err := c.in.Readline()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.EqualFold(line, "retry") {
			select {
			case c.retries <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		location, err := c.resolve(line)
		if err != nil {
			c.printf("%v\n", err)
			continue
		}
		select {
		case c.selections <- location:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Console) resolve(input string) (models.Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(c.locations) {
			return models.Location{}, fmt.Errorf("no location #%d", n)
		}
		return c.locations[n-1], nil
	}
	for _, l := range c.locations {
		if strings.EqualFold(l.Name, input) {
			return l, nil
		}
	}
	return models.Location{}, fmt.Errorf("unknown location %q", input)
}

func (c *Console) SetLocations(locations []models.Location) {
	c.mu.Lock()
	c.locations = append([]models.Location(nil), locations...)
	c.mu.Unlock()

	var b strings.Builder
	b.WriteString("Locations:\n")
	for i, l := range locations {
		fmt.Fprintf(&b, "%3d. %s (%d venues)\n", i+1, l.Name, len(l.Venues))
	}
	c.write(b.String())
}

func (c *Console) SetEvents(events []models.Event) {
	var b strings.Builder
	if len(events) == 0 {
		b.WriteString("No events.\n")
	}
	for _, e := range events {
		when := "date to be announced"
		if e.DateTime != nil {
			when = e.DateTime.In(c.loc).Format(consoleTimeLayout)
		}
		fmt.Fprintf(&b, "%-24s %s", when, e.Name)
		if e.Artist != "" {
			fmt.Fprintf(&b, " / %s", e.Artist)
		}
		if e.Venue != nil {
			fmt.Fprintf(&b, " @ %s", e.Venue.Name)
		}
		if e.Room != "" {
			fmt.Fprintf(&b, " (%s)", e.Room)
		}
		if e.Cancelled {
			b.WriteString(errorColor.Sprint(" [cancelled]"))
		}
		b.WriteString("\n")
	}
	c.write(b.String())
}

func (c *Console) ShowOffline() {
	c.write(warnColor.Sprint("Offline: the site cannot be reached. Type \"retry\" to try again.") + "\n")
}
func (c *Console) HideOffline() { c.write(okColor.Sprint("Back online.") + "\n") }
func (c *Console) ShowError()   { c.write(errorColor.Sprint("Something went wrong loading events.") + "\n") }

func (c *Console) SelectedLocations() <-chan models.Location { return c.selections }
func (c *Console) OfflineView() presenter.OfflineView        { return c }
func (c *Console) Retries() <-chan struct{}                  { return c.retries }

func (c *Console) printf(format string, args ...any) {
	c.write(fmt.Sprintf(format, args...))
}

func (c *Console) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, s)
}
