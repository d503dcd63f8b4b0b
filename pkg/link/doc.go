// Package link implements the serial link between the main controller
// and the USB interface controller.
package link

// The link carries one fixed 8-byte controller frame at a time over a
// point-to-point serial channel. It favors strict alternation over
// throughput: the USB interface announces it can take a frame by sending
// a ready byte, and the main controller sends exactly one frame per ready
// byte. Byte alignment is checked with a magic value in the last byte of
// every frame; alignment is restored with an explicit resync handshake
// started by the main controller at boot.
//
// Any protocol violation latches a fault code which is presented as a
// blink pattern until the controller is reset.
//
// Sender: main controller (Framer)
// Receiver: USB interface (Receiver, Scheduler)
