// Package framed turns a byte-oriented duplex transport into a channel of
// frames, using a codec.Codec to translate between bytes and values.
//
// An Adapter owns two buffers. The read side decodes frames from bytes it
// already holds before issuing another Read, so frames never wait on I/O
// they do not need. The write side encodes submitted frames into an output
// buffer that Flush drains with a single Write:
//
//	a := framed.New[string, string](port, &codec.Lines{})
//	if err := a.Ready(ctx); err != nil { ... }
//	if err := a.Send("AT"); err != nil { ... }
//	if err := a.Flush(ctx); err != nil { ... }
//	for line, err := range a.Frames(ctx) { ... }
//
// A short write is reported as an IncompleteWriteError and the remainder is
// dropped; nothing in this package retries. The adapter never closes its
// transport.
//
// Blocking operations take a context. When the transport supports read or
// write deadlines (os.File on a tty, net.Conn) the context deadline is
// applied and cancellation interrupts the blocked call; otherwise the
// context is only checked before each I/O call.
//
// An Adapter is not safe for concurrent use. Split returns a read half and a
// write half that may each be driven by their own goroutine.
package framed
