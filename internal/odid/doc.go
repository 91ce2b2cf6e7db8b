// Package odid encodes and decodes ASTM F3411 (OpenDroneID) broadcast
// messages.
//
// Every message is a fixed 25-byte block. The first byte carries the
// message type in its high nibble and the protocol version in its low
// nibble. Multi-byte integers are little endian.
//
// The decoders are pure functions. They never look at the transport that
// carried the block; Bluetooth framing lives in package remoteid.
//
//	loc, err := odid.DecodeLocation(block)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(loc.Latitude, loc.Longitude)
package odid
