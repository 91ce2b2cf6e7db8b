// Package remoteid turns raw Bluetooth advertisements into per-aircraft
// records.
//
// Processing an advertisement has three steps:
//
//  1. DetectSignature checks for the OpenDroneID service-data envelope and
//     locates the embedded message block.
//  2. Classifier reads the block's type tag and decodes one of four message
//     kinds (BasicID, Location, System, OperatorID) into a Message.
//  3. Registry resolves the sender address to one of a fixed number of
//     slots and merges the message into that slot's DeviceRecord.
//
// Processor runs all three under a single registry lock per advertisement.
// Nothing here returns an error for bad input: adverts that do not match are
// reported as an Outcome and otherwise ignored.
//
// The registry has no expiry. Once every slot is taken, a new address takes
// over slot 0 and the previous occupant's record is discarded.
package remoteid
