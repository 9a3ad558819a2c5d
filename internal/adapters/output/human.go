package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"github.com/mikey-austin/raumbridge/internal/core"
	"github.com/mikey-austin/raumbridge/pkg/brain"
)

// HumanPrinter prints human-readable output.
type HumanPrinter struct {
	// Writer defaults to stdout.
	Writer io.Writer
	// NoColor disables pterm styling.
	NoColor bool
}

// Print renders human output.
func (p HumanPrinter) Print(v any) error {
	w := p.Writer
	if w == nil {
		w = os.Stdout
	}
	if p.NoColor {
		pterm.DisableStyling()
	}
	switch data := v.(type) {
	case core.NodesResult:
		return printNodes(w, data)
	case core.DevicesResult:
		return printDevices(w, data)
	case core.ComponentResult:
		_, err := fmt.Fprintf(w, "%s %s = %v\n", data.Component.DeviceID, data.Component.Component, data.Component.Value)
		return err
	case core.VolumeResult:
		_, err := fmt.Fprintf(w, "%s volume %d\n", data.Volume.DeviceID, data.Volume.Volume)
		return err
	case core.BrowseResult:
		return printPage(w, data)
	case core.NotificationResult:
		return printNotification(w, data.Notification)
	default:
		_, err := fmt.Fprintln(w, "ok")
		return err
	}
}

func renderTable(w io.Writer, rows [][]string) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func printNodes(w io.Writer, result core.NodesResult) error {
	rows := [][]string{{"NAME", "KIND", "NODE_ID", "SEEN"}}
	for _, node := range result.Nodes {
		seen := ""
		if node.TS > 0 {
			seen = time.Unix(node.TS, 0).Format(time.RFC3339)
		}
		rows = append(rows, []string{node.Name, node.Kind, node.NodeID, seen})
	}
	return renderTable(w, rows)
}

func printDevices(w io.Writer, result core.DevicesResult) error {
	rows := [][]string{{"ID", "NAME", "REACHABLE"}}
	for _, d := range result.Devices {
		rows = append(rows, []string{d.ID, d.Name, strconv.FormatBool(d.Reachable)})
	}
	return renderTable(w, rows)
}

func printPage(w io.Writer, result core.BrowseResult) error {
	if _, err := fmt.Fprintln(w, pterm.DefaultSection.WithLevel(2).Sprint(result.Page.Title)); err != nil {
		return err
	}
	if len(result.Page.Buttons) > 0 {
		line := ""
		for i, b := range result.Page.Buttons {
			if i > 0 {
				line += "  "
			}
			label := b.Title
			if label == "" {
				label = b.IconName
			}
			line += fmt.Sprintf("[%s -> %s]", label, b.ActionIdentifier)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	rows := [][]string{{"TYPE", "TITLE", "BROWSE", "ACTION"}}
	for _, e := range result.Page.Entries {
		switch e.Type {
		case "tiles":
			for _, tile := range e.Tiles {
				rows = append(rows, []string{"tile", tile.Title, "", tile.ActionIdentifier})
			}
		default:
			rows = append(rows, []string{e.Type, e.Title, e.BrowseIdentifier, e.ActionIdentifier})
		}
	}
	if err := renderTable(w, rows); err != nil {
		return err
	}
	return printPaging(w, result.Page)
}

func printPaging(w io.Writer, page brain.BrowsePage) error {
	footer := fmt.Sprintf("offset %d limit %d", page.Offset, page.Limit)
	if page.TotalMatchingItems > 0 {
		footer += fmt.Sprintf(" of %d", page.TotalMatchingItems)
	}
	if page.Previous != nil {
		footer += fmt.Sprintf("  previous=%d", *page.Previous)
	}
	if page.Next != nil {
		footer += fmt.Sprintf("  next=%d", *page.Next)
	}
	_, err := fmt.Fprintln(w, footer)
	return err
}

func printNotification(w io.Writer, note brain.Notification) error {
	ts := time.Now()
	if note.TS > 0 {
		ts = time.Unix(note.TS, 0)
	}
	_, err := fmt.Fprintf(w, "%s  %-12s %-12s %v\n", ts.Format("15:04:05"), note.DeviceID, note.Component, note.Value)
	return err
}
