package worker_test

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	queue "github.com/okian/grapple/internal/adapters/mq/queue"
	worker "github.com/okian/grapple/internal/adapters/mq/worker"
	"github.com/okian/grapple/internal/domain/extract"
	"github.com/okian/grapple/internal/domain/model"
)

type countingProcessor struct {
	calls atomic.Int64
	panic string // round id that panics
}

func (p *countingProcessor) Process(_ context.Context, doc worker.Document) extract.Result {
	p.calls.Add(1)
	if doc.RoundID == p.panic {
		panic("bad round")
	}
	m := model.Match{ID: doc.Key() + "/1", EventID: doc.EventID, RoundID: doc.RoundID}
	return extract.Result{
		Matches: []model.Match{m},
		Report:  model.Report{Documents: 1, SourceRows: 1, Matches: 1},
	}
}

func fill(q *queue.InMemoryQueue, n int) {
	go func() {
		for i := 0; i < n; i++ {
			_ = q.Enqueue(context.Background(), model.RoundDocument{EventID: "10", RoundID: fmt.Sprintf("r%02d", i)})
		}
		_ = q.Close()
	}()
}

func TestPool(t *testing.T) {
	Convey("Given a pool of three workers over twenty documents", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		proc := &countingProcessor{}
		pool := worker.NewPool(3, q, proc)
		fill(q, 20)

		var keys []string
		for o := range pool.Start(ctx) {
			So(o.Err, ShouldBeNil)
			keys = append(keys, o.Result.Matches[0].ID)
		}

		Convey("Then every document is processed exactly once", func() {
			So(proc.calls.Load(), ShouldEqual, 20)
			sort.Strings(keys)
			So(len(keys), ShouldEqual, 20)
			So(keys[0], ShouldEqual, "10/r00/1")
			So(keys[19], ShouldEqual, "10/r19/1")
			So(pool.Shutdown(ctx), ShouldBeNil)
		})
	})

	Convey("Given a processor that panics on one document", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue()
		proc := &countingProcessor{panic: "r03"}
		pool := worker.NewPool(2, q, proc, worker.WithName("extract"))
		fill(q, 6)

		var failed []worker.Output
		ok := 0
		for o := range pool.Start(ctx) {
			if o.Err != nil {
				failed = append(failed, o)
				continue
			}
			ok++
		}

		Convey("Then only that document fails and the rest complete", func() {
			So(ok, ShouldEqual, 5)
			So(len(failed), ShouldEqual, 1)
			So(failed[0].Doc.RoundID, ShouldEqual, "r03")
			So(failed[0].Err.Error(), ShouldContainSubstring, "bad round")
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(0, q, &countingProcessor{})

		Convey("Then the output channel still closes", func() {
			for range pool.Start(ctx) {
			}
			So(pool.Shutdown(context.Background()), ShouldBeNil)
		})
	})
}
