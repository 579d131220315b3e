// Package input defines the touch input model and the binary replay log
// format.
//
// RECORD LAYOUT (little-endian):
//
//	| frame  | event type | timestamp | point count | points          |
//	| uint32 | uint32     | uint32    | uint32      | count x 32 bytes|
//
// Each point is:
//
//	| device | state  | screenX | screenY | radiusX | radiusY | pressure | angle |
//	| int32  | uint32 | f32     | f32     | f32     | f32     | f32      | f32   |
//
// LOG FORMATS:
//
// A legacy log is a bare sequence of records read until end of file.
//
// A framed log starts with the 8-byte header "VLRP", uint16 version,
// uint16 reserved, followed by frames:
//
//	| length | crc32 (IEEE) | record      |
//	| uint32 | uint32       | length bytes|
//
// Decode detects the format from the magic. Both formats decode all or
// nothing: a truncated record, checksum mismatch, unknown version or a
// frame number lower than its predecessor fails the whole log.
package input
