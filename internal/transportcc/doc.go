// Package transportcc implements the receiver side of a transport-wide
// congestion control feedback loop: it watches arriving media packets for a
// transport sequence number extension, keeps a bounded record of arrival
// times, and periodically packetizes that record into feedback reports for
// the sender's congestion controller.
package transportcc
