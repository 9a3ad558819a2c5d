package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mikey-austin/raumbridge/internal/core"
	"github.com/mikey-austin/raumbridge/pkg/brain"
)

func TestHumanPrinterPage(t *testing.T) {
	next := 64
	var buf bytes.Buffer
	p := HumanPrinter{Writer: &buf, NoColor: true}
	err := p.Print(core.BrowseResult{DeviceID: "Kitchen", Page: brain.BrowsePage{
		Title:   "Player Queue",
		Limit:   64,
		Next:    &next,
		Buttons: []brain.ListButton{{Title: "Clear", ActionIdentifier: "QUEUE_CLEAR"}},
		Entries: []brain.ListEntry{
			{Type: "item", Title: "Song A", ActionIdentifier: "0/1"},
			{Type: "tiles", Tiles: []brain.ListTile{{Title: "Radio", ActionIdentifier: "Renderer:x"}}},
		},
	}})
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Player Queue", "Clear", "Song A", "Renderer:x", "next=64"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestHumanPrinterDevices(t *testing.T) {
	var buf bytes.Buffer
	p := HumanPrinter{Writer: &buf, NoColor: true}
	if err := p.Print(core.DevicesResult{Devices: []brain.Device{{ID: "Kitchen", Name: "Kitchen", Reachable: true}}}); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(buf.String(), "Kitchen") || !strings.Contains(buf.String(), "true") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestHumanPrinterDefault(t *testing.T) {
	var buf bytes.Buffer
	if err := (HumanPrinter{Writer: &buf}).Print(nil); err != nil {
		t.Fatalf("print: %v", err)
	}
	if buf.String() != "ok\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestJSONPrinter(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONPrinter{Writer: &buf}).Print(core.VolumeResult{Volume: brain.VolumeReply{DeviceID: "Kitchen", Volume: 24}}); err != nil {
		t.Fatalf("print: %v", err)
	}
	var out struct {
		Volume brain.VolumeReply
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Volume.Volume != 24 {
		t.Fatalf("unexpected volume %+v", out.Volume)
	}
}
