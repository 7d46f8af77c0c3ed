// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// bench floods a port from multiple producers against a waiter pool and
// reports throughput plus the port's counter snapshot.

package main

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/momentics/kernio/api"
	"github.com/momentics/kernio/control"
	"github.com/momentics/kernio/pool"
	"github.com/momentics/kernio/port"
)

func newBenchCommand() *cobra.Command {
	var (
		producers int
		workers   int
		packets   int
		capacity  int
		async     bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure queue/wait throughput through a single port",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := port.New(capacity)
			defer p.Close()

			var handled sync.WaitGroup
			handled.Add(packets * producers)
			handler := api.HandlerFunc(func(key api.Key, payload api.UserPayload) error {
				handled.Done()
				return nil
			})

			pl := pool.New(p, handler, pool.Options{Workers: workers, Async: async})
			if err := pl.Start(); err != nil {
				return err
			}

			start := time.Now()
			var producersWG sync.WaitGroup
			producersWG.Add(producers)
			for i := 0; i < producers; i++ {
				go func(id int) {
					defer producersWG.Done()
					var payload api.UserPayload
					for n := 0; n < packets; {
						payload[0] = uint64(n)
						err := p.Queue(api.Key(id+1), payload, api.UserPayloadSize)
						if err == api.ErrNotEnoughBuffer {
							runtime.Gosched()
							continue
						}
						if err != nil {
							return
						}
						n++
					}
				}(i)
			}
			producersWG.Wait()
			handled.Wait()
			elapsed := time.Since(start)

			if err := pl.Shutdown(); err != nil {
				return err
			}

			total := packets * producers
			fmt.Printf("delivered %d packets in %v (%.0f pkt/s)\n",
				total, elapsed, float64(total)/elapsed.Seconds())

			metrics := control.NewMetricsRegistry()
			metrics.RegisterSource("port", p.Stats)
			for k, v := range metrics.GetSnapshot() {
				fmt.Printf("  %s = %v\n", k, v)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&producers, "producers", 4, "concurrent producer goroutines")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "pool waiters")
	cmd.Flags().IntVar(&packets, "packets", 100000, "packets per producer")
	cmd.Flags().IntVar(&capacity, "capacity", port.DefaultCapacity, "ring capacity")
	cmd.Flags().BoolVar(&async, "async", false, "dispatch handlers through the executor")
	return cmd
}
