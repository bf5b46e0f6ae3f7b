// Package dispatch owns the listening socket, the bounded connection queue,
// and the fixed-size worker pool that drains it (spec §4.6). The queue is a
// buffered chan net.Conn sized to the pool, generalizing the teacher's
// processing.Processor buffered-channel + bounded-queue pattern from
// "background job queue" to "accepted connection queue"; shutdown follows
// the teacher's cmd/server/main.go signal.NotifyContext pattern.
package dispatch

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"sync"

	"github.com/lowkeyarhan/Socket-P-assignment/internal/config"
	"github.com/lowkeyarhan/Socket-P-assignment/internal/connection"
	"github.com/lowkeyarhan/Socket-P-assignment/internal/logging"
	"github.com/lowkeyarhan/Socket-P-assignment/internal/wire"
)

// Dispatcher binds the listening socket and runs the accept loop and worker
// pool for its lifetime.
type Dispatcher struct {
	cfg *config.Config
	log *logging.Logger

	queue    chan net.Conn
	wg       sync.WaitGroup
	listener net.Listener
}

// New constructs a Dispatcher. The connection queue's capacity equals the
// configured pool size (spec §4.6's "capacity equal to the pool size").
func New(cfg *config.Config, log *logging.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:   cfg,
		log:   log,
		queue: make(chan net.Conn, cfg.QueueCapacity()),
	}
}

// Run binds the listening socket, starts the worker pool, and accepts
// connections until ctx is cancelled. It blocks until every worker has
// drained and exited. A bind failure is returned to the caller so main can
// choose a non-zero exit code (spec §6).
func (d *Dispatcher) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", d.cfg.Addr())
	if err != nil {
		return err
	}
	d.listener = ln
	d.log.Log("MAIN", "listening on %s (pool=%d, backlog>=%d)", d.cfg.Addr(), d.cfg.MaxThreads, config.ListenBacklog)

	for i := 0; i < d.cfg.MaxThreads; i++ {
		d.wg.Add(1)
		go d.runWorker(i)
	}

	go func() {
		<-ctx.Done()
		d.log.Log("MAIN", "shutdown signal received, closing listener")
		_ = ln.Close()
	}()

	d.acceptLoop(ctx, ln)

	close(d.queue)
	d.wg.Wait()
	d.log.Log("MAIN", "all workers drained, exiting")
	return nil
}

// acceptLoop accepts connections and enqueues them, synthesising a 503
// directly on the socket when the queue is full (spec §4.6's overflow
// policy) instead of ever blocking the accept loop on a full queue.
func (d *Dispatcher) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			d.log.Log("MAIN", "accept error: %v", err)
			continue
		}
		select {
		case d.queue <- conn:
		default:
			d.rejectOverloaded(conn)
		}
	}
}

// rejectOverloaded writes a 503 straight onto conn and closes it: no worker
// ever sees more connections than the queue admits.
func (d *Dispatcher) rejectOverloaded(conn net.Conn) {
	defer conn.Close()
	bw := bufio.NewWriter(conn)
	resp := &wire.Response{
		Status:      503,
		ContentType: "text/plain; charset=utf-8",
		Extra:       []wire.HeaderField{{Name: "Retry-After", Value: "5"}},
		Body:        []byte("503 Service Unavailable\n"),
		KeepAlive:   false,
	}
	if err := wire.WriteResponse(bw, resp); err != nil {
		d.log.Log("MAIN", "503 write error: %v", err)
		return
	}
	d.log.Log("MAIN", "queue full, rejected connection from %s with 503", conn.RemoteAddr())
}

// runWorker drains the queue until it closes, handing each connection to a
// fresh connection.Worker. Workers finish any in-flight connection before
// exiting (spec §4.6): the queue only closes after the listener stops
// accepting, so there is nothing left to race against.
func (d *Dispatcher) runWorker(index int) {
	defer d.wg.Done()
	tag := workerTag(index)
	w := connection.New(d.cfg, d.log, tag)
	for conn := range d.queue {
		w.Serve(conn)
	}
}

func workerTag(index int) string {
	return "Thread-" + strconv.Itoa(index+1)
}
