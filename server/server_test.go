package server

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"sparkgrid/world"
)

func TestFanOut(t *testing.T) {
	Convey("When censuses arrive on the source", t, func() {
		source := make(chan world.Census)
		s := New(":0", source)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go s.fanOut(ctx)

		Convey("Subscribers receive them in order", func() {
			sub := s.subscribe()
			defer s.unsubscribe(sub)

			source <- world.Census{Tick: 1, Population: 10}
			source <- world.Census{Tick: 2, Population: 11}

			c := <-sub
			So(c.Tick, ShouldEqual, 1)
			c = <-sub
			So(c.Tick, ShouldEqual, 2)
			So(c.Population, ShouldEqual, 11)
		})

		Convey("A full subscriber drops updates instead of blocking", func() {
			sub := s.subscribe()
			defer s.unsubscribe(sub)

			for tick := 0; tick < clientBacklog+5; tick++ {
				source <- world.Census{Tick: uint64(tick)}
			}
			// The source was never blocked; the subscriber holds at most
			// its backlog.
			So(len(sub), ShouldBeLessThanOrEqualTo, clientBacklog)
		})

		Convey("An unsubscribed channel receives nothing further", func() {
			sub := s.subscribe()
			s.unsubscribe(sub)
			source <- world.Census{Tick: 99}
			select {
			case c := <-sub:
				So(c.Tick, ShouldNotEqual, 99)
			case <-time.After(20 * time.Millisecond):
				// Expected: nothing delivered.
			}
		})
	})
}

func TestFanOutStopsOnCancel(t *testing.T) {
	Convey("When the context is canceled", t, func() {
		source := make(chan world.Census, 1)
		s := New(":0", source)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			s.fanOut(ctx)
			close(done)
		}()
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("fanOut did not stop on cancel")
		}
	})
}
