package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lanikai/alohacam"
	"github.com/lanikai/alohacam/device"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List cameras and microphones",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, release, err := newPlatform(cfg)
		if err != nil {
			return err
		}
		defer release()
		return listDevices(cmd.OutOrStdout(), p)
	},
}

func listDevices(out io.Writer, p alohacam.Platform) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tPOSITION\tACCESS\tCAPABILITIES")
	for _, mt := range []device.MediaType{device.Video, device.Audio} {
		access := p.AuthorizationStatus(mt)
		for _, d := range p.Devices(mt) {
			fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%v\t%s\n", d.ID(), d.Name(), d.Type(), d.Position(), access, capabilities(p, d))
		}
	}
	return w.Flush()
}

// capabilities opens the device briefly to query its controls.
func capabilities(p alohacam.Platform, d device.Device) string {
	if d.MediaType() != device.Video {
		return "-"
	}
	in, err := p.NewInput(d)
	if err != nil {
		return "unavailable: " + err.Error()
	}
	if c, ok := in.(io.Closer); ok {
		defer c.Close()
	}
	ctrl := in.Controls()
	if ctrl == nil {
		return "-"
	}

	var caps []string
	if min, max := ctrl.ZoomRange(); max > min {
		caps = append(caps, fmt.Sprintf("zoom %gx-%gx", min, max))
	}
	if ctrl.HasTorch() {
		caps = append(caps, "torch")
	}
	if ctrl.HasFlash() {
		caps = append(caps, "flash")
	}
	if ctrl.FocusModeSupported(alohacam.FocusAuto) {
		caps = append(caps, "autofocus")
	}
	if ctrl.ExposureModeSupported(alohacam.ExposureAuto) {
		caps = append(caps, "autoexposure")
	}
	if len(caps) == 0 {
		return "-"
	}
	return strings.Join(caps, ", ")
}
