// Package crosslink launches worker processes and establishes a private,
// synchronized shared-memory channel with each one at spawn time.
//
// Each launched child gets its own resource bundle: a fixed-size shared
// memory region, a cross-process lock, and a pair of signaling events. The
// bundle is created inheritable, and the identities of its primitives are
// serialized into a single command-line token so the child can open the
// same kernel objects without any prior coordination. No files, sockets,
// or environment variables are involved in the bootstrap.
//
// # Architecture Overview
//
// Crosslink is built from three layers:
//
//  1. Primitive layer: Memory, Lock, and Event wrap the OS objects behind
//     a System interface. On Linux these are memfd-backed mappings and
//     eventfds, passed to the child through file descriptor inheritance.
//
//  2. Channel: a single-slot, half-duplex handshake over one bundle. A
//     writer takes the lock, frames its payload into the slot, signals the
//     ready event and blocks on the ack event; the reader mirrors the
//     sequence. At most one message is in flight per round trip.
//
//  3. Launcher: creates a bundle, starts the child with the primitives
//     inherited and their identities on its command line, and records the
//     (process, channel) pair.
//
// # Launching a Worker
//
//	launcher := crosslink.NewLauncher(crosslink.NewSystem())
//	child, err := launcher.Launch("/usr/local/bin/worker")
//	if err != nil {
//	    return err
//	}
//
//	// Finish any parent-side slot setup, then let the child in.
//	child.Channel.Unlock()
//
//	if err := child.Channel.Send([]byte("hello")); err != nil {
//	    return err
//	}
//
// The channel is created with the lock held by the parent, so the child
// cannot touch the shared slot until Unlock is called.
//
// # The Child Side
//
// The child finds the bootstrap token among its arguments and attaches to
// the inherited primitives:
//
//	args, ok := crosslink.FindToken(os.Args)
//	if !ok {
//	    log.Fatal("no crosslink token")
//	}
//	ch, err := crosslink.OpenChannel(crosslink.NewSystem(), args)
//	payload, err := ch.Receive()
//
// # Typed Messages
//
// Conn layers MessagePack serialization over any Transport for typed
// envelope exchange:
//
//	conn := crosslink.NewConn(child.Channel)
//	id, err := conn.Send("status", map[string]interface{}{"stage": "boot"})
//
// # Blocking and Cancellation
//
// Send and Receive block with no timeout; SendContext and ReceiveContext
// honor context cancellation and deadlines. A child that dies without
// acknowledging leaves its half of the bundle abandoned, so parents that
// must not hang forever should use the context variants.
//
// # Platform Support
//
// The primitive layer is implemented for Linux (memfd_create, eventfd,
// mmap; pure Go, no CGO). On other platforms NewSystem returns a stub
// whose operations fail with ErrNotSupported. The Channel, Launcher, and
// Conn layers are platform-independent and work with any System
// implementation, which is also how the test suite exercises them.
package crosslink
