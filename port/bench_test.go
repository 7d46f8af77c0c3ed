// Package port benchmarks the hot paths.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package port

import (
	"runtime"
	"testing"

	"github.com/momentics/kernio/api"
)

func BenchmarkRing_EnqueueDequeue(b *testing.B) {
	r := NewPacketRing(DefaultCapacity)
	pkt := api.NewUserPacket(1, api.UserPayload{1, 2, 3})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := r.TryEnqueue(pkt); err != nil {
			b.Fatal(err)
		}
		if _, err := r.WaitDequeue(api.UserPayloadSize); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPort_QueueWait(b *testing.B) {
	p := New(DefaultCapacity)
	defer p.Close()
	var payload api.UserPayload
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := p.Queue(1, payload, api.UserPayloadSize); err != nil {
			b.Fatal(err)
		}
		if _, err := p.Wait(api.UserPayloadSize); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPort_QueueWaitParallel(b *testing.B) {
	p := New(1024)
	defer p.Close()
	b.RunParallel(func(pb *testing.PB) {
		var payload api.UserPayload
		for pb.Next() {
			for {
				err := p.Queue(1, payload, api.UserPayloadSize)
				if err == nil {
					break
				}
				if err != api.ErrNotEnoughBuffer {
					b.Error(err)
					return
				}
				runtime.Gosched()
			}
			if _, err := p.Wait(api.UserPayloadSize); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
