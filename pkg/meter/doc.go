// Package meter implements spot metering on camera frames.
//
// A Session holds the user's tap point and middle-gray reference. Sample
// averages Rec.709 luminance over a 20x20 window around the tap, and Compute
// turns that average into stops relative to the reference.
//
// The package does no I/O and never logs; front-ends render the returned
// Report or error themselves.
package meter
