// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// demo walks the syscall surface: bind events to a port, poke them in a
// scrambled order and show the IO packets coming back in poke order.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/momentics/kernio/api"
	"github.com/momentics/kernio/control"
	"github.com/momentics/kernio/facade"
	"github.com/momentics/kernio/handle"
)

func newDemoCommand() *cobra.Command {
	var dump bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Show signal dispatch through bound events",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys := facade.New(nil)

			portH, err := sys.PortCreate(0)
			if err != nil {
				return err
			}
			defer sys.HandleClose(portH)

			var events []handle.Handle
			for i := 0; i < 5; i++ {
				eh, err := sys.EventCreate(0)
				if err != nil {
					return err
				}
				defer sys.HandleClose(eh)
				events = append(events, eh)
				if err := sys.PortBind(portH, -api.Key(eh), eh, api.SignalSignaled); err != nil {
					return err
				}
			}

			order := []int{2, 1, 0, 4, 3, 1, 2}
			for _, ix := range order {
				if err := sys.EventSignal(events[ix]); err != nil {
					return err
				}
				if err := sys.EventReset(events[ix]); err != nil {
					return err
				}
			}

			fmt.Println("poke order:", order)
			for range order {
				pkt, err := sys.PortWait(portH, api.IOPayloadSize)
				if err != nil {
					return err
				}
				fmt.Printf("io packet: key=%d signals=%#x flags=%#x\n",
					pkt.Key, pkt.IO().Signals, pkt.IO().Flags)
			}

			if dump {
				p, err := sys.Table().Get(portH)
				if err != nil {
					return err
				}
				dbg := control.NewDebugRegistry()
				dbg.RegisterProbe("port", func() any { return p })
				fmt.Print(dbg.Dump())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dump, "dump", false, "spew the port state after the run")
	return cmd
}
