package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwkeyer/internal/audio"
	"github.com/ColonelBlimp/cwkeyer/internal/serial"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List serial ports and audio devices",
	Args:  cobra.NoArgs,
	RunE:  runDevices,
}

func runDevices(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	ports, err := serial.ListPorts()
	if err != nil {
		return err
	}
	printPorts(out, ports)

	engine, err := audio.NewEngine()
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	capture, err := engine.CaptureDevices()
	if err != nil {
		return err
	}
	playback, err := engine.PlaybackDevices()
	if err != nil {
		return err
	}
	printAudio(out, "Audio capture devices (device_index):", capture)
	printAudio(out, "Audio playback devices:", playback)
	return nil
}

func printPorts(w io.Writer, ports []string) {
	_, _ = fmt.Fprintln(w, headerStyle.Render("Serial ports:"))
	if len(ports) == 0 {
		_, _ = fmt.Fprintln(w, dimStyle.Render("  none found"))
	}
	for _, p := range ports {
		_, _ = fmt.Fprintf(w, "  %s\n", p)
	}
}

func printAudio(w io.Writer, title string, devices []audio.Device) {
	_, _ = fmt.Fprintln(w, headerStyle.Render(title))
	if len(devices) == 0 {
		_, _ = fmt.Fprintln(w, dimStyle.Render("  none found"))
	}
	for _, d := range devices {
		mark := ""
		if d.IsDefault {
			mark = " (default)"
		}
		_, _ = fmt.Fprintf(w, "  [%d] %s%s\n", d.Index, d.Name, mark)
	}
}
