// Package rfpulse detects, classifies, and dispatches OOK and FSK pulse
// packets from time-aligned AM (envelope) and FM (discriminator) sample
// streams, the same demodulation front end rtl_433-style receivers use
// ahead of a protocol-specific decoder.
package rfpulse
