package lua

import (
	"fmt"
	"io"

	"github.com/samaelod/netassist/types"
)

func WriteProfile(w io.Writer, p *types.Profile) error {
	ew := &errWriter{w: w}

	ew.println("local profile = {}")
	ew.println()

	ew.println("-- ENDPOINTS --------------------------------------")
	ew.printf("profile.name = %q\n", p.Name)
	ew.printf("profile.local_ip = %q\n", p.LocalIP)
	ew.printf("profile.local_port = %d\n", p.LocalPort)
	ew.printf("profile.remote_ip = %q\n", p.RemoteIP)
	ew.printf("profile.remote_port = %d\n", p.RemotePort)
	ew.println()

	ew.println("-- MODES ------------------------------------------")
	ew.printf("profile.rx_hex = %t\n", p.RxHex)
	ew.printf("profile.tx_hex = %t\n", p.TxHex)
	ew.println()

	// An empty table maps to a Go map, not a slice, so skip it entirely.
	if len(p.Presets) > 0 {
		ew.println("-- PRESETS ----------------------------------------")
		ew.println("profile.presets = {")
		for _, pr := range p.Presets {
			ew.println("\t{")
			ew.printf("\t\tname = %q,\n", pr.Name)
			ew.printf("\t\tvalue = %q,\n", pr.Value)
			ew.printf("\t\thex = %t,\n", pr.Hex)
			ew.println("\t},")
		}
		ew.println("}")
		ew.println()
	}
	ew.println("return profile")

	return ew.err
}

// errWriter keeps the first write error so WriteProfile can report it.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *errWriter) println(args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintln(e.w, args...)
}
